package skillcloud

import (
	"math"
	"math/rand/v2"
)

// Puff is one soft billboard of the particle cloud, in cloud-local units.
type Puff struct {
	Position Vec3    `json:"position"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
}

// CloudStyle shapes the particle cloud the glyphs float in.
type CloudStyle struct {
	Segments int     `json:"segments"`
	Width    float64 `json:"width"`
	Depth    float64 `json:"depth"`
	Opacity  float64 `json:"opacity"`
	Color    string  `json:"color"`
}

// DefaultCloudStyle is a 20-puff white cloud ten units wide.
func DefaultCloudStyle() CloudStyle {
	return CloudStyle{Segments: 20, Width: 10, Depth: 1.5, Opacity: 0.5, Color: "#ffffff"}
}

// puffs spreads Segments puffs across Width in x and y, each Depth behind the
// previous one. Puffs in the middle of the run are the largest.
func (st CloudStyle) puffs(rnd *rand.Rand) []Puff {
	if st.Segments <= 0 {
		return nil
	}
	out := make([]Puff, 0, st.Segments)
	for i := 0; i < st.Segments; i++ {
		x := st.Width/2 - rnd.Float64()*st.Width
		y := st.Width/2 - rnd.Float64()*st.Width
		scale := 0.4 + math.Sin(float64(i+1)/float64(st.Segments)*math.Pi)*((0.2+rnd.Float64())*10)
		density := math.Max(0.2, rnd.Float64())
		out = append(out, Puff{
			Position: Vec3{x, y, -float64(i) * st.Depth},
			Scale:    scale,
			Opacity:  math.Min(1, scale/6*density*st.Opacity),
		})
	}
	return out
}
