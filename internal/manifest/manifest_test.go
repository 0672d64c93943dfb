package manifest

import "testing"

const sampleYAML = `
groups:
  yui:
    anchor: { x: 0.5, y: 0.9 }
    pre_scale: 0.5
  rin:
    anchor: { x: 0.4, y: 1.0 }
sprites:
  "special/one-off.png": yui
presets:
  center:
    x: 0.5
    y: 0.95
    scale: 1.1
`

func TestParseOverDefaults(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Groups) != 2 {
		t.Errorf("groups = %d", len(m.Groups))
	}
	// Authored preset overrides the default entry.
	center := m.PresetFor("center")
	if center.Y != 0.95 || center.Scale != 1.1 {
		t.Errorf("center = %+v", center)
	}
	// Untouched defaults survive.
	if left := m.PresetFor("left"); left.X != 0.2 {
		t.Errorf("left = %+v", left)
	}
}

func TestGroupLookupOrder(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	// Explicit sprite mapping wins.
	if g := m.GroupFor("special/one-off.png"); g.PreScale != 0.5 {
		t.Errorf("explicit mapping = %+v", g)
	}
	// Parent directory name.
	if g := m.GroupFor("characters/yui/smile.png"); g.PreScale != 0.5 {
		t.Errorf("directory inference = %+v", g)
	}
	// Generic directory names are skipped; stem prefix applies.
	if g := m.GroupFor("characters/rin_happy.png"); g.Anchor.X != 0.4 {
		t.Errorf("stem inference = %+v", g)
	}
	// Nothing matches: defaults.
	if g := m.GroupFor("characters/unknown.png"); g != m.Defaults {
		t.Errorf("fallback = %+v", g)
	}
}

func TestGroupFillDefaults(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	// rin has no pre_scale authored; the default fills in.
	if g := m.GroupFor("rin/stand.png"); g.PreScale != 1 {
		t.Errorf("filled pre_scale = %v", g.PreScale)
	}
}

func TestPresetFallback(t *testing.T) {
	m := Default()
	p := m.PresetFor("nosuchpreset")
	if p.X != 0.5 || p.Scale != 1 {
		t.Errorf("fallback preset = %+v", p)
	}
	// Case-insensitive lookup matches parsed positions.
	if p := m.PresetFor("NearLeft"); p.X != 0.325 {
		t.Errorf("case-insensitive preset = %+v", p)
	}
}

func TestValidate(t *testing.T) {
	m := Default()
	m.Groups["bad"] = Group{Anchor: Point{X: 2, Y: 0.5}, PreScale: -1}
	m.Sprites["x.png"] = "missing_group"
	m.Presets["offscreen"] = Preset{X: 1.5, Y: 0.5, Scale: 1}

	warnings := m.Validate()
	if len(warnings) != 4 {
		t.Fatalf("warnings = %d: %v", len(warnings), warnings)
	}
	contexts := map[string]bool{}
	for _, w := range warnings {
		contexts[w.Context] = true
	}
	for _, want := range []string{
		"groups.bad.anchor",
		"groups.bad.pre_scale",
		"sprites.x.png",
		"presets.offscreen",
	} {
		if !contexts[want] {
			t.Errorf("missing warning for %s (got %v)", want, warnings)
		}
	}
}

func TestValidDefaultIsClean(t *testing.T) {
	if warnings := Default().Validate(); len(warnings) != 0 {
		t.Errorf("default manifest warned: %v", warnings)
	}
}
