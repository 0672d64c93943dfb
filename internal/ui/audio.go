package ui

import (
	"fmt"

	"github.com/veandco/go-sdl2/mix"
	"github.com/veandco/go-sdl2/sdl"

	"nitro-vn/internal/audio"
)

// Player implements audio.Player on SDL_mixer. The policy engine above it
// guarantees a single music track at a time, which matches the mixer's one
// music slot; SFX ride the mixing channels.
type Player struct {
	opened bool
	// liveChunks holds sample data until its channel finishes.
	liveChunks []*chunkHandle
}

type chunkHandle struct {
	chunk   *mix.Chunk
	channel int
}

// NewPlayer opens the audio device and the MP3/OGG/FLAC decoders.
func NewPlayer() (*Player, error) {
	if err := mix.Init(mix.INIT_MP3 | mix.INIT_OGG | mix.INIT_FLAC); err != nil {
		// Some decoders may be absent; WAV still works.
		fmt.Printf("Warning: audio decoders partially available: %v\n", err)
	}
	if err := mix.OpenAudio(44100, mix.DEFAULT_FORMAT, 2, 2048); err != nil {
		return nil, fmt.Errorf("ui: open audio: %w", err)
	}
	return &Player{opened: true}, nil
}

// musicTrack adapts the mixer's global music slot to audio.Track.
type musicTrack struct {
	music *mix.Music
}

func (t *musicTrack) SetVolume(v float64) {
	mix.VolumeMusic(volumeUnits(v))
}

func (t *musicTrack) Stop() {
	mix.HaltMusic()
	if t.music != nil {
		t.music.Free()
		t.music = nil
	}
}

// StartTrack implements audio.Player.
func (p *Player) StartTrack(path string, data []byte, looping bool, volume float64) (audio.Track, error) {
	rw, err := sdl.RWFromMem(data)
	if err != nil {
		return nil, fmt.Errorf("ui: music %s: %w", path, err)
	}
	music, err := mix.LoadMUSRW(rw, 1)
	if err != nil {
		return nil, fmt.Errorf("ui: music %s: %w", path, err)
	}

	loops := 1
	if looping {
		loops = -1
	}
	mix.VolumeMusic(volumeUnits(volume))
	if err := music.Play(loops); err != nil {
		music.Free()
		return nil, fmt.Errorf("ui: music %s: %w", path, err)
	}
	return &musicTrack{music: music}, nil
}

// PlayOneShot implements audio.Player.
func (p *Player) PlayOneShot(path string, data []byte, volume float64) error {
	rw, err := sdl.RWFromMem(data)
	if err != nil {
		return fmt.Errorf("ui: sfx %s: %w", path, err)
	}
	chunk, err := mix.LoadWAVRW(rw, true)
	if err != nil {
		return fmt.Errorf("ui: sfx %s: %w", path, err)
	}
	chunk.Volume(volumeUnits(volume))
	channel, err := chunk.Play(-1, 0)
	if err != nil {
		chunk.Free()
		return fmt.Errorf("ui: sfx %s: %w", path, err)
	}
	p.liveChunks = append(p.liveChunks, &chunkHandle{chunk: chunk, channel: channel})
	return nil
}

// Pump frees sample data whose channels went silent. Call once per frame.
func (p *Player) Pump() {
	kept := p.liveChunks[:0]
	for _, handle := range p.liveChunks {
		if mix.Playing(handle.channel) != 0 {
			kept = append(kept, handle)
			continue
		}
		handle.chunk.Free()
	}
	p.liveChunks = kept
}

// Close shuts the mixer down.
func (p *Player) Close() {
	if !p.opened {
		return
	}
	for _, handle := range p.liveChunks {
		handle.chunk.Free()
	}
	p.liveChunks = nil
	mix.CloseAudio()
	mix.Quit()
	p.opened = false
}

func volumeUnits(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v * float64(mix.MAX_VOLUME))
}
