// Package ui is the SDL2 platform layer: window and renderer setup, the
// draw-primitive surface the compose policy renders through, audio output,
// and the event pump that latches input snapshots.
package ui

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"nitro-vn/internal/config"
	"nitro-vn/internal/render"
	"nitro-vn/internal/texture"
)

// Window owns the SDL window, renderer and uploaded-texture cache, and
// implements render.Surface.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer

	fullscreen bool
	width      int
	height     int

	// uploaded maps decoded textures to their GPU copies. Entries are
	// destroyed only in Close; evictions from the CPU texture cache do not
	// remove them, so the map keeps every texture ever drawn.
	uploaded map[*texture.Texture]*sdl.Texture

	// dissolveTex is the streaming target the software rule-dissolve
	// composite renders into.
	dissolveTex *sdl.Texture
	dissolveW   int
	dissolveH   int

	text TextRenderer
}

// NewWindow initializes SDL video and audio and opens the game window.
func NewWindow(cfg config.WindowConfig, fontPath string) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("ui: sdl init: %w", err)
	}
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "1")

	flags := uint32(sdl.WINDOW_SHOWN)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	window, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("ui: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("ui: create renderer: %w", err)
	}
	if err := renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("ui: blend mode: %w", err)
	}

	text, err := newTTFRenderer(fontPath)
	if err != nil {
		// Text falls back to nothing rather than failing the launch; the
		// game is still navigable.
		fmt.Printf("Warning: text renderer unavailable: %v\n", err)
	}

	return &Window{
		window:     window,
		renderer:   renderer,
		fullscreen: cfg.Fullscreen,
		width:      cfg.Width,
		height:     cfg.Height,
		uploaded:   make(map[*texture.Texture]*sdl.Texture),
		text:       text,
	}, nil
}

// Size implements render.Surface.
func (w *Window) Size() (int, int) { return w.width, w.height }

// Clear implements render.Surface.
func (w *Window) Clear(c render.Color) {
	w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	w.renderer.Clear()
}

// Present flips the frame.
func (w *Window) Present() {
	w.renderer.Present()
}

// upload fetches or creates the GPU copy of a decoded texture.
func (w *Window) upload(tex *texture.Texture) *sdl.Texture {
	if gpu, ok := w.uploaded[tex]; ok {
		return gpu
	}
	gpu, err := w.renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_ABGR8888),
		sdl.TEXTUREACCESS_STATIC,
		int32(tex.Width),
		int32(tex.Height),
	)
	if err != nil {
		return nil
	}
	gpu.Update(nil, unsafe.Pointer(&tex.Pixels.Pix[0]), tex.Pixels.Stride)
	gpu.SetBlendMode(sdl.BLENDMODE_BLEND)
	w.uploaded[tex] = gpu
	return gpu
}

// DrawTexture implements render.Surface.
func (w *Window) DrawTexture(tex *texture.Texture, dst render.Rect, alpha float64) {
	gpu := w.upload(tex)
	if gpu == nil {
		return
	}
	gpu.SetAlphaMod(alphaByte(alpha))
	w.renderer.Copy(gpu, nil, sdlRect(dst))
}

// FillRect implements render.Surface.
func (w *Window) FillRect(dst render.Rect, c render.Color) {
	w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	w.renderer.FillRect(sdlRect(dst))
}

// DrawText implements render.Surface.
func (w *Window) DrawText(text string, x, y, size float64, c render.Color) {
	if w.text == nil || text == "" {
		return
	}
	w.text.Draw(w.renderer, text, int32(x), int32(y), int(size), sdl.Color{R: c.R, G: c.G, B: c.B, A: c.A})
}

// DrawImageDissolve implements render.Surface. SDL2's fixed-function
// renderer has no fragment shaders, so the adapter composites the
// ImageDissolve policy in software into a streaming texture, using the
// same per-pixel factor as the GLSL reference.
func (w *Window) DrawImageDissolve(newTex, oldTex, mask *texture.Texture, progress float64, reversed bool, dst render.Rect) {
	width, height := newTex.Width, newTex.Height
	if width <= 0 || height <= 0 {
		return
	}
	if w.dissolveTex == nil || w.dissolveW != width || w.dissolveH != height {
		if w.dissolveTex != nil {
			w.dissolveTex.Destroy()
		}
		streaming, err := w.renderer.CreateTexture(
			uint32(sdl.PIXELFORMAT_ABGR8888),
			sdl.TEXTUREACCESS_STREAMING,
			int32(width),
			int32(height),
		)
		if err != nil {
			return
		}
		w.dissolveTex = streaming
		w.dissolveW = width
		w.dissolveH = height
	}

	pixels := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			m := float64(samplePix(mask, x, y, width, height, 0)) / 255
			factor := render.DissolveFactor(m, progress, 0, reversed)

			for ch := 0; ch < 4; ch++ {
				oldV := float64(samplePix(oldTex, x, y, width, height, ch))
				newV := float64(samplePix(newTex, x, y, width, height, ch))
				pixels[i+ch] = byte(oldV + (newV-oldV)*factor)
			}
		}
	}
	w.dissolveTex.Update(nil, unsafe.Pointer(&pixels[0]), width*4)
	w.renderer.Copy(w.dissolveTex, nil, sdlRect(dst))
}

// samplePix reads one channel of a texture stretched over a w×h grid.
func samplePix(tex *texture.Texture, x, y, w, h, ch int) byte {
	tx := x * tex.Width / w
	ty := y * tex.Height / h
	return tex.Pixels.Pix[ty*tex.Pixels.Stride+tx*4+ch]
}

// ToggleFullscreen flips between windowed and desktop fullscreen.
func (w *Window) ToggleFullscreen() {
	w.fullscreen = !w.fullscreen
	if w.fullscreen {
		w.window.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	} else {
		w.window.SetFullscreen(0)
	}
}

// Close tears everything down in reverse creation order.
func (w *Window) Close() {
	for _, gpu := range w.uploaded {
		gpu.Destroy()
	}
	if w.dissolveTex != nil {
		w.dissolveTex.Destroy()
	}
	if w.text != nil {
		w.text.Close()
	}
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.window != nil {
		w.window.Destroy()
	}
	sdl.Quit()
}

func sdlRect(r render.Rect) *sdl.Rect {
	return &sdl.Rect{X: int32(r.X), Y: int32(r.Y), W: int32(r.W), H: int32(r.H)}
}

func alphaByte(alpha float64) uint8 {
	if alpha <= 0 {
		return 0
	}
	if alpha >= 1 {
		return 255
	}
	return uint8(alpha * 255)
}
