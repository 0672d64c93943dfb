package render

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"nitro-vn/internal/effect"
	"nitro-vn/internal/scene"
	"nitro-vn/internal/script"
	"nitro-vn/internal/texture"
)

// recordingSurface captures draw calls for assertions.
type recordingSurface struct {
	clears    int
	textures  []Rect
	alphas    []float64
	rects     []Rect
	texts     []string
	dissolves int
}

func (s *recordingSurface) Size() (int, int) { return 1280, 720 }

func (s *recordingSurface) Clear(Color) { s.clears++ }

func (s *recordingSurface) DrawTexture(_ *texture.Texture, dst Rect, alpha float64) {
	s.textures = append(s.textures, dst)
	s.alphas = append(s.alphas, alpha)
}

func (s *recordingSurface) FillRect(dst Rect, _ Color) { s.rects = append(s.rects, dst) }

func (s *recordingSurface) DrawText(text string, _, _, _ float64, _ Color) {
	s.texts = append(s.texts, text)
}

func (s *recordingSurface) DrawImageDissolve(_, _, _ *texture.Texture, _ float64, _ bool, _ Rect) {
	s.dissolves++
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func newTestRenderer(source stubSource) (*Renderer, *recordingSurface, *texture.Cache) {
	surface := &recordingSurface{}
	cache := texture.NewCache(16, nil)
	r := NewRenderer(surface, cache, source, nil, nil, nil)
	return r, surface, cache
}

func TestDrawBackgroundAndCharacter(t *testing.T) {
	source := stubSource{
		"bg.png":    pngBytes(8, 8),
		"c/yui.png": pngBytes(4, 8),
	}
	r, surface, cache := newTestRenderer(source)

	state := NewState()
	state.SetBackground("bg.png")
	state.ShowCharacter("yui", "c/yui.png", script.PosCenter)

	r.Draw(state, nil, nil)

	if surface.clears != 1 {
		t.Errorf("clears = %d", surface.clears)
	}
	// Background plus one character sprite.
	if len(surface.textures) != 2 {
		t.Fatalf("textures drawn = %d", len(surface.textures))
	}
	if surface.alphas[0] != 1 || surface.alphas[1] != 1 {
		t.Errorf("alphas = %v", surface.alphas)
	}
	if !cache.Contains("bg.png") || !cache.Contains("c/yui.png") {
		t.Error("textures not cached")
	}
}

func TestDrawMissingTextureSkips(t *testing.T) {
	r, surface, _ := newTestRenderer(stubSource{})
	state := NewState()
	state.SetBackground("missing.png")
	r.Draw(state, nil, nil)
	if len(surface.textures) != 0 {
		t.Errorf("textures drawn = %d", len(surface.textures))
	}
}

func TestDrawDialogueTypewriter(t *testing.T) {
	r, surface, _ := newTestRenderer(stubSource{})
	state := NewState()
	state.SetDialogue("speaker", "hello world")
	state.Dialogue.VisibleChars = 5

	r.Draw(state, nil, nil)

	found := false
	for _, text := range surface.texts {
		if text == "hello" {
			found = true
		}
	}
	if !found {
		t.Errorf("typewriter cut not drawn: %v", surface.texts)
	}
}

func TestDrawBackgroundDissolveDrawsBoth(t *testing.T) {
	source := stubSource{"old.png": pngBytes(8, 8), "new.png": pngBytes(8, 8)}
	r, surface, _ := newTestRenderer(source)

	state := NewState()
	state.SetBackground("new.png")
	bt := NewBackgroundTransition()
	bt.Start("old.png", effect.Resolve(script.SimpleTransition("dissolve")))
	bt.Update(0.15)

	r.Draw(state, bt, nil)
	if len(surface.textures) != 2 {
		t.Fatalf("textures drawn = %d", len(surface.textures))
	}
	if surface.alphas[0] <= 0 || surface.alphas[0] >= 1 {
		t.Errorf("old alpha = %v", surface.alphas[0])
	}
}

func TestDrawRuleTransitionUsesShader(t *testing.T) {
	source := stubSource{"bg.png": pngBytes(8, 8), "mask.png": pngBytes(8, 8)}
	r, surface, _ := newTestRenderer(source)

	state := NewState()
	state.SetBackground("bg.png")
	mgr := scene.NewManager()
	mgr.Start(&scene.Command{Kind: scene.Rule, Duration: 1, PendingBackground: "bg.png", MaskPath: "mask.png"})
	mgr.Update(0.3)

	r.Draw(state, nil, mgr)
	if surface.dissolves != 1 {
		t.Errorf("dissolve draws = %d", surface.dissolves)
	}
}

func TestDrawFadeMaskOverlay(t *testing.T) {
	r, surface, _ := newTestRenderer(stubSource{})
	state := NewState()
	mgr := scene.NewManager()
	mgr.Start(&scene.Command{Kind: scene.FadeBlack, Duration: 1, PendingBackground: "x.png"})
	mgr.Update(0.5)

	r.Draw(state, nil, mgr)
	if len(surface.rects) == 0 {
		t.Error("fade curtain not drawn")
	}
}

func TestUIHiddenDuringCurtain(t *testing.T) {
	r, surface, _ := newTestRenderer(stubSource{})
	state := NewState()
	state.SetDialogue("s", "c")
	state.UIVisible = false

	r.Draw(state, nil, nil)
	if len(surface.texts) != 0 {
		t.Errorf("texts drawn with UI hidden: %v", surface.texts)
	}
}

func TestCharacterZOrder(t *testing.T) {
	source := stubSource{"a.png": pngBytes(4, 4), "b.png": pngBytes(6, 6)}
	r, surface, _ := newTestRenderer(source)

	state := NewState()
	state.ShowCharacter("first", "a.png", script.PosLeft)
	state.ShowCharacter("second", "b.png", script.PosRight)

	r.Draw(state, nil, nil)
	if len(surface.textures) != 2 {
		t.Fatalf("textures drawn = %d", len(surface.textures))
	}
	// The later character draws in front (last), with its larger size.
	last := surface.textures[len(surface.textures)-1]
	if last.W <= surface.textures[0].W {
		t.Errorf("z-order wrong: %v", surface.textures)
	}
}
