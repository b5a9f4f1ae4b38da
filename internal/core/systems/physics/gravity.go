package physics

// DefaultGravityScale multiplies raw tilt samples into arena gravity.
const DefaultGravityScale = 3.0

// GravityAdapter forwards device tilt samples to the engine as gravity.
type GravityAdapter struct {
	engine Engine
	scale  float64
}

func NewGravityAdapter(engine Engine, scale float64) *GravityAdapter {
	if scale == 0 {
		scale = DefaultGravityScale
	}
	return &GravityAdapter{engine: engine, scale: scale}
}

// Vector maps a tilt sample to gravity: (-x, y) * scale. The x axis is
// mirrored because sensor x grows to the left of the screen.
func (g *GravityAdapter) Vector(tiltX, tiltY float64) Vec2 {
	return Vec2{X: -tiltX, Y: tiltY}.Scale(g.scale)
}

// Update forwards a new tilt sample.
func (g *GravityAdapter) Update(tiltX, tiltY float64) error {
	return g.engine.SetGravity(g.Vector(tiltX, tiltY))
}

func (g *GravityAdapter) Scale() float64 { return g.scale }
