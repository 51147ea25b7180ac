package skillcloud

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// RGB is an 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String formats the color as a CSS rgb() value.
func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Lerp interpolates from c to to by p in [0, 1].
func (c RGB) Lerp(to RGB, p float64) RGB {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*p))
	}
	return RGB{R: mix(c.R, to.R), G: mix(c.G, to.G), B: mix(c.B, to.B)}
}

// Axis names a rotation axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// RotationSpring turns the whole cloud From→To radians over Duration, then back.
type RotationSpring struct {
	Axis     Axis          `json:"axis"`
	From     float64       `json:"from"`
	To       float64       `json:"to"`
	Duration time.Duration `json:"-"`
}

// ColorSpring moves glyph color From→To over Duration, then back.
type ColorSpring struct {
	From     RGB           `json:"from"`
	To       RGB           `json:"to"`
	Duration time.Duration `json:"-"`
}

// MarshalJSON reports the duration in milliseconds.
func (r RotationSpring) MarshalJSON() ([]byte, error) {
	type alias RotationSpring
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs"`
	}{alias(r), r.Duration.Milliseconds()})
}

// MarshalJSON reports the duration in milliseconds.
func (c ColorSpring) MarshalJSON() ([]byte, error) {
	type alias ColorSpring
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs"`
	}{alias(c), c.Duration.Milliseconds()})
}

// Animation is owned by one visualization instance. Both springs loop forever
// in ping-pong fashion, independently of each other.
type Animation struct {
	Rotation RotationSpring `json:"rotation"`
	Color    ColorSpring    `json:"color"`
}

// DefaultAnimation returns a fresh copy of the stock animation: a full turn
// about Z every 10s and a red/blue pulse every 1s.
func DefaultAnimation() Animation {
	return Animation{
		Rotation: RotationSpring{Axis: AxisZ, From: 0, To: 2 * math.Pi, Duration: 10 * time.Second},
		Color:    ColorSpring{From: RGB{R: 255}, To: RGB{B: 255}, Duration: time.Second},
	}
}

// Sample is the animated state at one instant.
type Sample struct {
	Rotation float64 `json:"rotation"`
	Color    RGB     `json:"color"`
}

// Sample evaluates both springs at elapsed time t.
func (a Animation) Sample(t time.Duration) Sample {
	rp := pingPong(t, a.Rotation.Duration)
	cp := pingPong(t, a.Color.Duration)
	return Sample{
		Rotation: a.Rotation.From + (a.Rotation.To-a.Rotation.From)*rp,
		Color:    a.Color.From.Lerp(a.Color.To, cp),
	}
}

// pingPong maps t onto [0, 1], rising over the first d and falling over the next.
func pingPong(t, d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	if t < 0 {
		t = -t
	}
	p := float64(t) / float64(d)
	cycle := math.Floor(p)
	frac := p - cycle
	if int64(cycle)%2 == 1 {
		return 1 - frac
	}
	return frac
}
