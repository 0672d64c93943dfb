//go:build !no_sdl_ttf
// +build !no_sdl_ttf

package ui

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

// TextRenderer draws UTF-8 strings through the SDL renderer.
type TextRenderer interface {
	Draw(renderer *sdl.Renderer, text string, x, y int32, size int, color sdl.Color) error
	Close()
}

// ttfRenderer renders text with SDL_ttf, caching one open font per size.
type ttfRenderer struct {
	path  string
	fonts map[int]*ttf.Font
}

// fallbackFontPaths are probed when the configured font is absent.
var fallbackFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
	"/System/Library/Fonts/Helvetica.ttc", // macOS
	"C:/Windows/Fonts/arial.ttf",          // Windows
}

// newTTFRenderer opens the configured font, probing system fonts when it
// is empty or unreadable.
func newTTFRenderer(fontPath string) (TextRenderer, error) {
	if err := ttf.Init(); err != nil {
		return nil, fmt.Errorf("ui: ttf init: %w", err)
	}

	paths := fallbackFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, paths...)
	}

	var lastErr error
	for _, path := range paths {
		font, err := ttf.OpenFont(path, 22)
		if err != nil {
			lastErr = err
			continue
		}
		font.Close()
		return &ttfRenderer{path: path, fonts: make(map[int]*ttf.Font)}, nil
	}
	ttf.Quit()
	return nil, fmt.Errorf("ui: no usable font (last error: %v)", lastErr)
}

func (tr *ttfRenderer) font(size int) (*ttf.Font, error) {
	if size <= 0 {
		size = 22
	}
	if font, ok := tr.fonts[size]; ok {
		return font, nil
	}
	font, err := ttf.OpenFont(tr.path, size)
	if err != nil {
		return nil, err
	}
	tr.fonts[size] = font
	return font, nil
}

// Draw rasterizes the string and copies it at (x, y).
func (tr *ttfRenderer) Draw(renderer *sdl.Renderer, text string, x, y int32, size int, color sdl.Color) error {
	font, err := tr.font(size)
	if err != nil {
		return err
	}
	surface, err := font.RenderUTF8Blended(text, color)
	if err != nil {
		return fmt.Errorf("ui: render text: %w", err)
	}
	defer surface.Free()

	tex, err := renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return fmt.Errorf("ui: text texture: %w", err)
	}
	defer tex.Destroy()

	tex.SetAlphaMod(color.A)
	dst := &sdl.Rect{X: x, Y: y, W: surface.W, H: surface.H}
	return renderer.Copy(tex, nil, dst)
}

// Close releases every cached font.
func (tr *ttfRenderer) Close() {
	for _, font := range tr.fonts {
		font.Close()
	}
	ttf.Quit()
}
