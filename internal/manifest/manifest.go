// Package manifest describes sprite layout: group anchors and pre-scales,
// explicit sprite-to-group mappings, and the named screen presets used to
// place characters. Manifests are authored in YAML.
package manifest

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Point is a normalized screen- or sprite-space coordinate in [0,1].
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Group configures how one family of sprites anchors and pre-scales.
type Group struct {
	// Anchor is the sprite-space point placed on the preset position.
	Anchor Point `yaml:"anchor"`
	// PreScale shrinks oversized source art before preset scaling.
	PreScale float64 `yaml:"pre_scale"`
}

// Preset is a named screen position and scale.
type Preset struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Scale float64 `yaml:"scale"`
}

// Manifest binds sprite paths to groups and names screen presets.
type Manifest struct {
	Groups map[string]Group `yaml:"groups"`
	// Sprites maps explicit sprite paths to a group id.
	Sprites  map[string]string `yaml:"sprites"`
	Presets  map[string]Preset `yaml:"presets"`
	Defaults Group             `yaml:"defaults"`
}

// genericDirs are parent directory names too vague to act as group ids.
var genericDirs = map[string]bool{
	"characters": true,
	"sprites":    true,
	"images":     true,
	"assets":     true,
}

// Default returns a manifest with sane fallbacks and the nine standard
// stage presets.
func Default() *Manifest {
	return &Manifest{
		Groups:  map[string]Group{},
		Sprites: map[string]string{},
		Presets: map[string]Preset{
			"left":       {X: 0.2, Y: 1.0, Scale: 1},
			"nearleft":   {X: 0.325, Y: 1.0, Scale: 1},
			"farleft":    {X: 0.1, Y: 1.0, Scale: 1},
			"center":     {X: 0.5, Y: 1.0, Scale: 1},
			"nearmiddle": {X: 0.5, Y: 1.0, Scale: 1.05},
			"farmiddle":  {X: 0.5, Y: 1.0, Scale: 0.9},
			"right":      {X: 0.8, Y: 1.0, Scale: 1},
			"nearright":  {X: 0.675, Y: 1.0, Scale: 1},
			"farright":   {X: 0.9, Y: 1.0, Scale: 1},
		},
		Defaults: Group{Anchor: Point{X: 0.5, Y: 1.0}, PreScale: 1},
	}
}

// Load reads a YAML manifest file, layering it over the defaults.
func Load(filePath string) (*Manifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML manifest bytes over the defaults.
func Parse(data []byte) (*Manifest, error) {
	m := Default()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if m.Defaults.PreScale == 0 {
		m.Defaults.PreScale = 1
	}
	return m, nil
}

// GroupFor resolves the group config for a sprite path. Lookup order:
// explicit mapping, parent directory name (unless generic), file-stem
// prefix up to the first separator, defaults.
func (m *Manifest) GroupFor(spritePath string) Group {
	if id, ok := m.Sprites[spritePath]; ok {
		if g, ok := m.Groups[id]; ok {
			return m.fill(g)
		}
	}

	dir := path.Base(path.Dir(spritePath))
	if dir != "." && dir != "/" && !genericDirs[strings.ToLower(dir)] {
		if g, ok := m.Groups[dir]; ok {
			return m.fill(g)
		}
	}

	stem := strings.TrimSuffix(path.Base(spritePath), path.Ext(spritePath))
	if prefix := splitStem(stem); prefix != "" {
		if g, ok := m.Groups[prefix]; ok {
			return m.fill(g)
		}
	}

	return m.Defaults
}

// splitStem cuts a file stem at the first dash, underscore or space.
func splitStem(stem string) string {
	if i := strings.IndexAny(stem, "-_ "); i > 0 {
		return stem[:i]
	}
	return stem
}

// fill substitutes defaults for zero-valued fields of a group.
func (m *Manifest) fill(g Group) Group {
	if g.PreScale == 0 {
		g.PreScale = m.Defaults.PreScale
	}
	if g.Anchor == (Point{}) {
		g.Anchor = m.Defaults.Anchor
	}
	return g
}

// PresetFor returns the preset for a position name, falling back to a
// centered unit preset.
func (m *Manifest) PresetFor(name string) Preset {
	if p, ok := m.Presets[strings.ToLower(name)]; ok {
		if p.Scale == 0 {
			p.Scale = 1
		}
		return p
	}
	return Preset{X: 0.5, Y: 1.0, Scale: 1}
}

// Warning is a typed validation finding.
type Warning struct {
	Context string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Context, w.Message)
}

// Validate reports out-of-range anchors and scales and dangling group
// references. The manifest stays usable; warnings are advisory.
func (m *Manifest) Validate() []Warning {
	var warnings []Warning

	checkPoint := func(p Point, context string) {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			warnings = append(warnings, Warning{
				Context: context,
				Message: fmt.Sprintf("anchor (%g, %g) outside [0,1]", p.X, p.Y),
			})
		}
	}

	checkPoint(m.Defaults.Anchor, "defaults.anchor")
	if m.Defaults.PreScale <= 0 {
		warnings = append(warnings, Warning{
			Context: "defaults.pre_scale",
			Message: fmt.Sprintf("pre_scale %g must be positive", m.Defaults.PreScale),
		})
	}

	for id, g := range m.Groups {
		checkPoint(g.Anchor, "groups."+id+".anchor")
		if g.PreScale < 0 {
			warnings = append(warnings, Warning{
				Context: "groups." + id + ".pre_scale",
				Message: fmt.Sprintf("pre_scale %g must not be negative", g.PreScale),
			})
		}
	}

	for sprite, id := range m.Sprites {
		if _, ok := m.Groups[id]; !ok {
			warnings = append(warnings, Warning{
				Context: "sprites." + sprite,
				Message: fmt.Sprintf("references unknown group %q", id),
			})
		}
	}

	for name, p := range m.Presets {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			warnings = append(warnings, Warning{
				Context: "presets." + name,
				Message: fmt.Sprintf("position (%g, %g) outside [0,1]", p.X, p.Y),
			})
		}
		if p.Scale < 0 {
			warnings = append(warnings, Warning{
				Context: "presets." + name,
				Message: fmt.Sprintf("scale %g must not be negative", p.Scale),
			})
		}
	}

	return warnings
}
