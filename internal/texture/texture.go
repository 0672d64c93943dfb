// Package texture decodes images into RGBA textures and caches them under a
// byte budget with LRU eviction and per-frame pinning.
package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Texture is a decoded RGBA8 image. The renderer's platform layer uploads
// it; everything above treats it as immutable after creation.
type Texture struct {
	Width  int
	Height int
	Pixels *image.RGBA
}

// SizeBytes estimates the memory footprint as width*height*4.
func (t *Texture) SizeBytes() int {
	return t.Width * t.Height * 4
}

// Decode turns encoded PNG/JPEG bytes into a texture.
func Decode(data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decode: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts any image into an RGBA texture, copying pixels only
// when the source is not already RGBA.
func FromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		xdraw.Draw(rgba, bounds, img, bounds.Min, xdraw.Src)
	}
	return &Texture{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba,
	}
}

// Scale resamples the texture to the given size with bilinear filtering,
// used when a manifest pre-scale shrinks oversized sprite sheets at load.
func (t *Texture) Scale(width, height int) *Texture {
	if width <= 0 || height <= 0 || (width == t.Width && height == t.Height) {
		return t
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), t.Pixels, t.Pixels.Bounds(), xdraw.Src, nil)
	return &Texture{Width: width, Height: height, Pixels: dst}
}

// Solid builds a single-colour texture, used for the black frame of a rule
// blackout and for test fixtures.
func Solid(width, height int, r, g, b, a uint8) *Texture {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return &Texture{Width: width, Height: height, Pixels: img}
}
