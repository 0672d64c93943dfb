//go:build no_sdl_ttf
// +build no_sdl_ttf

package ui

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// TextRenderer draws UTF-8 strings through the SDL renderer.
type TextRenderer interface {
	Draw(renderer *sdl.Renderer, text string, x, y int32, size int, color sdl.Color) error
	Close()
}

// newTTFRenderer stub when SDL_ttf is not available.
func newTTFRenderer(string) (TextRenderer, error) {
	return nil, fmt.Errorf("ui: SDL_ttf not available - install libsdl2-ttf-dev or build with -tags no_sdl_ttf knowingly")
}
