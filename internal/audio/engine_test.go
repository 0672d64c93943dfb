package audio

import (
	"math"
	"testing"

	"nitro-vn/internal/resource"
)

// stubSource serves fixed bytes for any path it knows.
type stubSource map[string][]byte

func (s stubSource) Read(logical string) ([]byte, error) {
	if data, ok := s[logical]; ok {
		return data, nil
	}
	return nil, resource.ErrNotFound
}

func (s stubSource) Exists(logical string) bool { _, ok := s[logical]; return ok }

func (s stubSource) ListFiles(string) ([]string, error) { return nil, nil }

func (s stubSource) FullPath(logical string) string { return logical }

// stubTrack records volume changes and stop calls.
type stubTrack struct {
	volume  float64
	stopped bool
}

func (t *stubTrack) SetVolume(v float64) { t.volume = v }
func (t *stubTrack) Stop()               { t.stopped = true }

// stubPlayer records started tracks and one-shots.
type stubPlayer struct {
	tracks   []*stubTrack
	started  []string
	oneShots []string
}

func (p *stubPlayer) StartTrack(path string, _ []byte, _ bool, volume float64) (Track, error) {
	track := &stubTrack{volume: volume}
	p.tracks = append(p.tracks, track)
	p.started = append(p.started, path)
	return track, nil
}

func (p *stubPlayer) PlayOneShot(path string, _ []byte, _ float64) error {
	p.oneShots = append(p.oneShots, path)
	return nil
}

func newTestEngine() (*Engine, *stubPlayer) {
	src := stubSource{
		"bgm/a.mp3": []byte("a"),
		"bgm/b.mp3": []byte("b"),
		"sfx/c.wav": []byte("c"),
	}
	player := &stubPlayer{}
	return NewEngine(src, player, nil), player
}

func TestPlayBGMImmediate(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 0)

	if len(p.tracks) != 1 || p.tracks[0].volume != 1 {
		t.Fatalf("tracks = %+v", p.tracks)
	}
	path, looping, ok := e.CurrentBGM()
	if !ok || path != "bgm/a.mp3" || !looping {
		t.Errorf("current = %q %v %v", path, looping, ok)
	}
}

func TestPlayBGMNormalizesPath(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("assets/bgm/a.mp3", true, 0)
	if len(p.started) != 1 || p.started[0] != "bgm/a.mp3" {
		t.Errorf("started = %v", p.started)
	}
}

func TestPlayBGMReplacesCurrent(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 0)
	e.PlayBGM("bgm/b.mp3", false, 0)

	if !p.tracks[0].stopped {
		t.Error("old track not stopped")
	}
	path, _, _ := e.CurrentBGM()
	if path != "bgm/b.mp3" {
		t.Errorf("current = %q", path)
	}
}

func TestFadeIn(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 1.0)
	track := p.tracks[0]

	if track.volume != 0 {
		t.Fatalf("fade-in must start silent, got %v", track.volume)
	}
	e.Update(0.5)
	if math.Abs(track.volume-0.5) > 1e-9 {
		t.Errorf("mid fade volume = %v", track.volume)
	}
	e.Update(0.6)
	if track.volume != 1 {
		t.Errorf("final volume = %v", track.volume)
	}
}

func TestStopBGMWithFadeOut(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 0)
	track := p.tracks[0]

	e.StopBGM(1.0)
	if track.stopped {
		t.Fatal("stopped before fade completed")
	}
	e.Update(0.5)
	if track.stopped || math.Abs(track.volume-0.5) > 1e-9 {
		t.Errorf("mid fade: stopped=%v volume=%v", track.stopped, track.volume)
	}
	e.Update(0.6)
	if !track.stopped {
		t.Error("track not disposed after fade-out")
	}
	if _, _, ok := e.CurrentBGM(); ok {
		t.Error("current bgm survives stop")
	}
}

func TestStopBGMImmediate(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 0)
	e.StopBGM(0)
	if !p.tracks[0].stopped {
		t.Error("immediate stop did not stop track")
	}
}

func TestCrossfade(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/a.mp3", true, 0)
	old := p.tracks[0]

	e.CrossfadeBGM("bgm/b.mp3", true, 1.0)
	// First half: old fades out.
	e.Update(0.25)
	if old.stopped {
		t.Fatal("old track stopped too early")
	}
	if old.volume >= 1 {
		t.Errorf("old volume not falling: %v", old.volume)
	}
	e.Update(0.3)
	if !old.stopped {
		t.Fatal("old track not disposed at fade-out end")
	}
	// Second half: new track ramps up.
	if len(p.tracks) != 2 {
		t.Fatalf("new track not started: %d", len(p.tracks))
	}
	newTrack := p.tracks[1]
	if newTrack.volume != 0 {
		t.Errorf("new track must start silent: %v", newTrack.volume)
	}
	e.Update(0.5)
	if newTrack.volume != 1 {
		t.Errorf("new track volume after fade-in = %v", newTrack.volume)
	}
	path, _, _ := e.CurrentBGM()
	if path != "bgm/b.mp3" {
		t.Errorf("current = %q", path)
	}
}

func TestMuteAndVolume(t *testing.T) {
	e, p := newTestEngine()
	e.SetBGMVolume(0.5)
	e.PlayBGM("bgm/a.mp3", true, 0)
	if p.tracks[0].volume != 0.5 {
		t.Errorf("volume = %v", p.tracks[0].volume)
	}
	e.SetMuted(true)
	if p.tracks[0].volume != 0 {
		t.Errorf("muted volume = %v", p.tracks[0].volume)
	}
	e.SetMuted(false)
	if p.tracks[0].volume != 0.5 {
		t.Errorf("unmuted volume = %v", p.tracks[0].volume)
	}
	e.SetBGMVolume(3)
	if e.BGMVolume() != 1 {
		t.Errorf("volume not clamped: %v", e.BGMVolume())
	}
}

func TestPlaySFX(t *testing.T) {
	e, p := newTestEngine()
	e.PlaySFX("sfx/c.wav")
	if len(p.oneShots) != 1 || p.oneShots[0] != "sfx/c.wav" {
		t.Errorf("one shots = %v", p.oneShots)
	}
	if _, _, ok := e.CurrentBGM(); ok {
		t.Error("sfx must not occupy the bgm slot")
	}
}

func TestMissingAudioIsNotFatal(t *testing.T) {
	e, p := newTestEngine()
	e.PlayBGM("bgm/missing.mp3", true, 0)
	if len(p.tracks) != 0 {
		t.Error("track started for missing file")
	}
	if _, _, ok := e.CurrentBGM(); ok {
		t.Error("current set for missing file")
	}
	e.PlaySFX("sfx/missing.wav")
	if len(p.oneShots) != 0 {
		t.Error("one shot played for missing file")
	}
}

func TestApplyRequests(t *testing.T) {
	e, p := newTestEngine()
	e.Apply(&Request{Kind: RequestPlayBGM, Path: "bgm/a.mp3", Looping: true})
	if len(p.tracks) != 1 {
		t.Fatalf("tracks = %d", len(p.tracks))
	}
	e.Apply(&Request{Kind: RequestPlaySFX, Path: "sfx/c.wav"})
	if len(p.oneShots) != 1 {
		t.Errorf("one shots = %v", p.oneShots)
	}
	e.Apply(&Request{Kind: RequestStopBGM})
	for i := 0; i < 30; i++ {
		e.Update(0.1)
	}
	if !p.tracks[0].stopped {
		t.Error("stop request ignored")
	}
}
