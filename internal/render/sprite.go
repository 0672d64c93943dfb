package render

import (
	"sync"

	"nitro-vn/internal/script"
)

// CharacterSprite is one visible character. Its scalar presentation
// properties live behind a mutex so the animation system can drive them
// while the renderer reads snapshots; everything else is plain state owned
// by the command executor.
type CharacterSprite struct {
	Alias       string
	TexturePath string
	Position    script.Position
	ZOrder      int
	// FadingOut marks a sprite whose hide animation is running; the app
	// removes it once its alpha bottoms out.
	FadingOut bool

	mu    sync.Mutex
	props spriteProps
}

type spriteProps struct {
	alpha     float64
	positionX float64
	positionY float64
	scale     float64
	rotation  float64
}

// NewCharacterSprite creates a sprite at full opacity and neutral scale.
func NewCharacterSprite(alias, texturePath string, position script.Position, zOrder int) *CharacterSprite {
	return &CharacterSprite{
		Alias:       alias,
		TexturePath: texturePath,
		Position:    position,
		ZOrder:      zOrder,
		props:       spriteProps{alpha: 1, scale: 1},
	}
}

// GetProperty implements anim.Animatable.
func (c *CharacterSprite) GetProperty(property string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch property {
	case "alpha":
		return c.props.alpha, true
	case "position_x":
		return c.props.positionX, true
	case "position_y":
		return c.props.positionY, true
	case "scale":
		return c.props.scale, true
	case "rotation":
		return c.props.rotation, true
	default:
		return 0, false
	}
}

// SetProperty implements anim.Animatable.
func (c *CharacterSprite) SetProperty(property string, value float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch property {
	case "alpha":
		c.props.alpha = value
	case "position_x":
		c.props.positionX = value
	case "position_y":
		c.props.positionY = value
	case "scale":
		c.props.scale = value
	case "rotation":
		c.props.rotation = value
	default:
		return false
	}
	return true
}

// PropertyList implements anim.Animatable.
func (c *CharacterSprite) PropertyList() []string {
	return []string{"alpha", "position_x", "position_y", "scale", "rotation"}
}

// Alpha reads the current opacity.
func (c *CharacterSprite) Alpha() float64 {
	v, _ := c.GetProperty("alpha")
	return v
}

// Offset reads the animated position offset in preset-interpolation space.
func (c *CharacterSprite) Offset() (x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props.positionX, c.props.positionY
}

// ScaleFactor reads the animated scale multiplier.
func (c *CharacterSprite) ScaleFactor() float64 {
	v, _ := c.GetProperty("scale")
	return v
}
