package render

import (
	"sort"

	"nitro-vn/internal/logging"
	"nitro-vn/internal/manifest"
	"nitro-vn/internal/resource"
	"nitro-vn/internal/scene"
	"nitro-vn/internal/texture"
)

// Color is an 8-bit RGBA colour.
type Color struct {
	R, G, B, A uint8
}

var (
	colorBlack   = Color{0, 0, 0, 255}
	colorWhite   = Color{255, 255, 255, 255}
	colorBox     = Color{16, 16, 24, 220}
	colorSpeaker = Color{255, 214, 140, 255}
	colorText    = Color{235, 235, 235, 255}
)

// Rect is a destination rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}

// Surface is the draw-primitive collaborator: textured quads with alpha,
// filled rectangles, text, and the compiled rule-dissolve shader.
type Surface interface {
	Size() (width, height int)
	Clear(c Color)
	DrawTexture(tex *texture.Texture, dst Rect, alpha float64)
	FillRect(dst Rect, c Color)
	DrawText(text string, x, y, size float64, c Color)
	// DrawImageDissolve runs the ImageDissolve shader over dst.
	DrawImageDissolve(newTex, oldTex, mask *texture.Texture, progress float64, reversed bool, dst Rect)
}

// PathResolver turns an authored asset path into a logical path.
type PathResolver func(string) string

// Renderer composes the frame from render state and animated properties.
// It mutates nothing but the texture cache (loads and pins).
type Renderer struct {
	surface  Surface
	cache    *texture.Cache
	source   resource.Source
	manifest *manifest.Manifest
	resolve  PathResolver
	log      *logging.Logger

	black *texture.Texture
}

// NewRenderer wires the compose policy to its collaborators.
func NewRenderer(surface Surface, cache *texture.Cache, source resource.Source, m *manifest.Manifest, resolve PathResolver, log *logging.Logger) *Renderer {
	if resolve == nil {
		resolve = resource.Normalize
	}
	if m == nil {
		m = manifest.Default()
	}
	return &Renderer{
		surface:  surface,
		cache:    cache,
		source:   source,
		manifest: m,
		resolve:  resolve,
		log:      log,
		black:    texture.Solid(2, 2, 0, 0, 0, 255),
	}
}

// SetResolver swaps the path resolver when a new script loads.
func (r *Renderer) SetResolver(resolve PathResolver) {
	if resolve != nil {
		r.resolve = resolve
	}
}

// loadTexture fetches a texture through the cache, decoding on miss. The
// entry is pinned for the current frame. A missing or undecodable asset
// draws nothing and logs a warning on every attempt.
func (r *Renderer) loadTexture(authored string) *texture.Texture {
	if authored == "" {
		return nil
	}
	logical := r.resolve(authored)
	if tex, ok := r.cache.Get(logical); ok {
		r.cache.Pin(logical)
		return tex
	}
	data, err := r.source.Read(logical)
	if err != nil {
		r.warnf("texture %s: %v", logical, err)
		return nil
	}
	tex, err := texture.Decode(data)
	if err != nil {
		r.warnf("texture %s: %v", logical, err)
		return nil
	}
	r.cache.Insert(logical, tex)
	r.cache.Pin(logical)
	return tex
}

// peekTexture looks a texture up without disturbing LRU order, for within-
// frame re-reads.
func (r *Renderer) peekTexture(authored string) *texture.Texture {
	if authored == "" {
		return nil
	}
	tex, _ := r.cache.Peek(r.resolve(authored))
	return tex
}

func (r *Renderer) warnf(format string, args ...any) {
	if r.log != nil {
		r.log.Logf(logging.ComponentRender, logging.LevelWarning, format, args...)
	}
}

// Draw renders one frame: background (with dissolve or rule shader),
// characters by z-order, UI scaled by the scene transition's UI alpha, and
// the scene mask overlay.
func (r *Renderer) Draw(state *State, background *BackgroundTransition, sceneMgr *scene.Manager) {
	r.surface.Clear(colorBlack)
	sw, sh := r.surface.Size()
	screen := Rect{W: float64(sw), H: float64(sh)}

	r.drawBackground(state, background, sceneMgr, screen)
	r.drawCharacters(state, screen)

	if state.UIVisible {
		uiAlpha := 1.0
		if sceneMgr != nil && sceneMgr.IsActive() {
			uiAlpha = sceneMgr.UIAlpha()
		}
		r.drawDialogue(state, screen, uiAlpha)
		r.drawChoices(state, screen, uiAlpha)
	}
	r.drawChapterMark(state, screen)
	r.drawSceneMask(sceneMgr, screen)
}

func (r *Renderer) drawBackground(state *State, background *BackgroundTransition, sceneMgr *scene.Manager, screen Rect) {
	// Rule transitions own the whole background pass: the shader mixes
	// between old/new/black frames by mask luminance.
	if sceneMgr != nil && sceneMgr.IsActive() && sceneMgr.Kind() == scene.Rule && !sceneMgr.IsMaskComplete() {
		mask := r.loadTexture(sceneMgr.MaskPath())
		if mask == nil {
			panic("render: rule transition without mask texture: " + sceneMgr.MaskPath())
		}
		current := r.loadTexture(state.CurrentBackground)
		if current == nil {
			current = r.black
		}
		switch sceneMgr.Phase() {
		case scene.FadeIn:
			// Old scene dissolves into black.
			r.surface.DrawImageDissolve(r.black, current, mask, sceneMgr.Progress(), sceneMgr.Reversed(), screen)
		case scene.Blackout:
			r.surface.FillRect(screen, colorBlack)
		case scene.FadeOut:
			// Symmetric sweep out of black into the new background: same
			// progress ramp, inverted mask.
			r.surface.DrawImageDissolve(current, r.black, mask, sceneMgr.Progress(), !sceneMgr.Reversed(), screen)
		}
		return
	}

	if background != nil && background.IsActive() {
		if old := r.loadTexture(background.OldPath()); old != nil {
			r.surface.DrawTexture(old, screen, background.OldAlpha())
		}
		if tex := r.loadTexture(state.CurrentBackground); tex != nil {
			r.surface.DrawTexture(tex, screen, background.NewAlpha())
		}
		return
	}

	if tex := r.loadTexture(state.CurrentBackground); tex != nil {
		r.surface.DrawTexture(tex, screen, 1)
	}
}

// DrawOverlay paints the toast stack and, when debug is on, the stats
// lines, above everything else.
func (r *Renderer) DrawOverlay(toasts []string, debugLines []string) {
	sw, _ := r.surface.Size()
	y := 16.0
	for _, toast := range toasts {
		w := float64(len(toast))*11 + 32
		box := Rect{X: float64(sw) - w - 16, Y: y, W: w, H: 34}
		r.surface.FillRect(box, colorBox)
		r.surface.DrawText(toast, box.X+16, box.Y+7, 18, colorText)
		y += 42
	}

	y = 12
	for _, line := range debugLines {
		r.surface.DrawText(line, 12, y, 16, colorWhite)
		y += 20
	}
}

func (r *Renderer) drawCharacters(state *State, screen Rect) {
	sprites := make([]*CharacterSprite, 0, len(state.VisibleCharacters))
	for _, sprite := range state.VisibleCharacters {
		sprites = append(sprites, sprite)
	}
	sort.Slice(sprites, func(i, j int) bool { return sprites[i].ZOrder < sprites[j].ZOrder })

	for _, sprite := range sprites {
		tex := r.loadTexture(sprite.TexturePath)
		if tex == nil {
			continue
		}
		r.surface.DrawTexture(tex, r.characterRect(sprite, tex, screen), sprite.Alpha())
	}
}

// characterRect computes the destination so the group anchor lands on the
// preset point. Animated offsets (from move effects) override the preset
// coordinates.
func (r *Renderer) characterRect(sprite *CharacterSprite, tex *texture.Texture, screen Rect) Rect {
	group := r.manifest.GroupFor(r.resolve(sprite.TexturePath))
	preset := r.manifest.PresetFor(string(sprite.Position))

	px, py := preset.X, preset.Y
	if ox, oy := sprite.Offset(); ox != 0 || oy != 0 {
		px, py = ox, oy
	}

	scale := group.PreScale * preset.Scale * sprite.ScaleFactor()
	w := float64(tex.Width) * scale
	h := float64(tex.Height) * scale
	return Rect{
		X: screen.W*px - group.Anchor.X*w,
		Y: screen.H*py - group.Anchor.Y*h,
		W: w,
		H: h,
	}
}

func (r *Renderer) drawDialogue(state *State, screen Rect, uiAlpha float64) {
	d := state.Dialogue
	if d == nil || uiAlpha <= 0 {
		return
	}

	box := Rect{
		X: screen.W * 0.05,
		Y: screen.H * 0.75,
		W: screen.W * 0.9,
		H: screen.H * 0.2,
	}
	r.surface.FillRect(box, scaleAlpha(colorBox, uiAlpha))

	textX := box.X + 24
	textY := box.Y + 18
	if d.Speaker != "" {
		r.surface.DrawText(d.Speaker, textX, textY, 26, scaleAlpha(colorSpeaker, uiAlpha))
		textY += 34
	}
	r.surface.DrawText(visibleText(d), textX, textY, 22, scaleAlpha(colorText, uiAlpha))
}

// visibleText cuts the content at the typewriter's revealed length.
func visibleText(d *DialogueState) string {
	if d.IsComplete {
		return d.Content
	}
	runes := []rune(d.Content)
	if d.VisibleChars >= len(runes) {
		return d.Content
	}
	return string(runes[:d.VisibleChars])
}

func (r *Renderer) drawChoices(state *State, screen Rect, uiAlpha float64) {
	c := state.Choices
	if c == nil || uiAlpha <= 0 {
		return
	}

	itemH := screen.H * 0.08
	gap := screen.H * 0.02
	total := float64(len(c.Items))*itemH + (float64(len(c.Items))-1)*gap
	y := (screen.H - total) / 2

	for i, item := range c.Items {
		box := Rect{X: screen.W * 0.25, Y: y, W: screen.W * 0.5, H: itemH}
		fill := colorBox
		if i == c.Hovered || i == c.Selected {
			fill = Color{40, 40, 64, 235}
		}
		r.surface.FillRect(box, scaleAlpha(fill, uiAlpha))
		r.surface.DrawText(item.Text, box.X+box.W*0.1, box.Y+box.H*0.3, 22, scaleAlpha(colorText, uiAlpha))
		y += itemH + gap
	}
}

func (r *Renderer) drawChapterMark(state *State, screen Rect) {
	mark := state.ChapterMark
	if mark == nil || mark.Alpha <= 0 {
		return
	}
	size := 44 - float64(mark.Level)*4
	r.surface.DrawText(mark.Title, screen.W*0.5-float64(len(mark.Title))*size*0.25, screen.H*0.4, size, scaleAlpha(colorWhite, mark.Alpha))
}

// drawSceneMask paints the fade/fadewhite curtain; rule curtains render in
// the background pass.
func (r *Renderer) drawSceneMask(sceneMgr *scene.Manager, screen Rect) {
	if sceneMgr == nil || !sceneMgr.IsActive() || sceneMgr.IsMaskComplete() {
		return
	}
	switch sceneMgr.Kind() {
	case scene.FadeBlack:
		r.surface.FillRect(screen, scaleAlpha(colorBlack, sceneMgr.MaskAlpha()))
	case scene.FadeWhite:
		r.surface.FillRect(screen, scaleAlpha(colorWhite, sceneMgr.MaskAlpha()))
	}
}

func scaleAlpha(c Color, alpha float64) Color {
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	c.A = uint8(float64(c.A) * alpha)
	return c
}
