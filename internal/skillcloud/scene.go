// Package skillcloud models the decorative skills cloud: each skill floats as
// text at a random point inside a particle cloud, the cloud turns slowly, and
// the glyph color pulses.
package skillcloud

import (
	"math"
	"time"
)

// CloudOffset is where the cloud sits relative to the rotating group.
var CloudOffset = Vec3{0, 0, -10}

// Light is a scene light. Position is nil for ambient light.
type Light struct {
	Kind     string `json:"kind"`
	Position *Vec3  `json:"position,omitempty"`
}

// Scene is everything needed to draw one skills cloud.
// Glyphs and Puffs share Offset and the animated rotation.
type Scene struct {
	Key       string     `json:"key"`
	Offset    Vec3       `json:"offset"`
	Glyphs    []Glyph    `json:"glyphs"`
	Cloud     CloudStyle `json:"cloud"`
	Puffs     []Puff     `json:"puffs"`
	Lights    []Light    `json:"lights"`
	Animation Animation  `json:"animation"`
}

// Visualization builds scenes with its own animation settings.
type Visualization struct {
	layouter  *Layouter
	animation Animation
}

// New constructs a Visualization. A nil layouter gets a fresh clock-seeded one.
func New(layouter *Layouter, anim Animation) *Visualization {
	if layouter == nil {
		layouter = NewLayouter(nil)
	}
	return &Visualization{layouter: layouter, animation: anim}
}

// Mount builds the scene for skills. It returns nil when there is nothing to show.
func (v *Visualization) Mount(skills []string) *Scene {
	if len(skills) == 0 {
		return nil
	}
	layout := v.layouter.Layout(skills)
	point := Vec3{10, 10, 10}
	return &Scene{
		Key:       layout.Key,
		Offset:    CloudOffset,
		Glyphs:    append([]Glyph(nil), layout.Glyphs...),
		Cloud:     v.layouter.style,
		Puffs:     append([]Puff(nil), layout.Puffs...),
		Lights:    []Light{{Kind: "ambient"}, {Kind: "point", Position: &point}},
		Animation: v.animation,
	}
}

// FrameGlyph is a glyph resolved to world space at one instant.
type FrameGlyph struct {
	Text     string  `json:"text"`
	Position Vec3    `json:"position"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
}

// Frame is the scene sampled at one instant.
type Frame struct {
	ElapsedMs int64        `json:"elapsedMs"`
	Rotation  float64      `json:"rotation"`
	Color     string       `json:"color"`
	Glyphs    []FrameGlyph `json:"glyphs"`
	Puffs     []Puff       `json:"puffs"`
}

// Frame samples the animation at elapsed time t and resolves world positions.
func (s *Scene) Frame(t time.Duration) Frame {
	sample := s.Animation.Sample(t)
	color := sample.Color.String()
	f := Frame{
		ElapsedMs: t.Milliseconds(),
		Rotation:  sample.Rotation,
		Color:     color,
		Glyphs:    make([]FrameGlyph, 0, len(s.Glyphs)),
		Puffs:     make([]Puff, 0, len(s.Puffs)),
	}
	axis := s.Animation.Rotation.Axis
	for _, g := range s.Glyphs {
		f.Glyphs = append(f.Glyphs, FrameGlyph{
			Text:     g.Text,
			Position: rotate(s.Offset.add(g.Position), axis, sample.Rotation),
			FontSize: g.FontSize,
			Color:    color,
		})
	}
	for _, p := range s.Puffs {
		p.Position = rotate(s.Offset.add(p.Position), axis, sample.Rotation)
		f.Puffs = append(f.Puffs, p)
	}
	return f
}

func (v Vec3) add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func rotate(p Vec3, axis Axis, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	x, y, z := p[0], p[1], p[2]
	switch axis {
	case AxisX:
		return Vec3{x, y*cos - z*sin, y*sin + z*cos}
	case AxisY:
		return Vec3{x*cos + z*sin, y, -x*sin + z*cos}
	default:
		return Vec3{x*cos - y*sin, x*sin + y*cos, z}
	}
}
