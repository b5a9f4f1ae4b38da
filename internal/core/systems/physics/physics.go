package physics

import "math"

// Vec2 is a 2D vector in arena coordinates (y grows downwards).
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2           { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2           { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2      { return Vec2{X: v.X * s, Y: v.Y * s} }
func (v Vec2) Len() float64              { return math.Hypot(v.X, v.Y) }
func (v Vec2) IsZero() bool              { return v.X == 0 && v.Y == 0 }
func (v Vec2) Position2() (x, y float64) { return v.X, v.Y }

// Mid returns the midpoint between v and o.
func (v Vec2) Mid(o Vec2) Vec2 { return Vec2{X: (v.X + o.X) / 2, Y: (v.Y + o.Y) / 2} }

// Lerp interpolates from v to o by t in [0, 1].
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{X: v.X + (o.X-v.X)*t, Y: v.Y + (o.Y-v.Y)*t}
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Distance computes distance between two vectors.
func Distance(a, b Vec2) float64 { return Distance2(a.X, a.Y, b.X, b.Y) }
