package physics

//go:generate mockgen -destination=mock_engine.go -package=physics . Engine

// Contract between the merge core and an external 2D physics simulation.
// The engine owns bodies only; kinds and merge semantics stay on the core side.

// BodyID names a simulated body. The core uses its entity id verbatim, so the
// engine can index bodies by it.
type BodyID string

// ShapeKind selects the collision shape of a body.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRectangle
)

func (s ShapeKind) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// BodySpec describes a body to create.
type BodySpec struct {
	Shape    ShapeKind
	Static   bool
	Position Vec2
	// Size is the diameter for circles and the side length for rectangles.
	Size float64
}

// Engine is the outbound side of the contract. Every call may fail (resource
// exhaustion, unknown id); callers are expected to roll back their own state.
type Engine interface {
	CreateBody(id BodyID, spec BodySpec) error
	DestroyBody(id BodyID) error
	SetGravity(gravity Vec2) error
	SetDragEnabled(id BodyID, enabled bool) error
}

// Dragger is implemented by engines that let a player move a body whose drag
// was enabled.
type Dragger interface {
	DragTo(id BodyID, position Vec2) error
}

// CollisionEvent is reported by the engine for a pair of touching bodies.
// It may be repeated across steps and in both orderings.
type CollisionEvent struct {
	A       BodyID `json:"a"`
	B       BodyID `json:"b"`
	Contact Vec2   `json:"contact"`
}

// BodyState is a position report for one dynamic body after a step.
type BodyState struct {
	ID       BodyID `json:"id"`
	Position Vec2   `json:"position"`
}

// StepReport is everything an engine yields for one simulation step.
type StepReport struct {
	Bodies     []BodyState
	Collisions []CollisionEvent
}

// Stepper is implemented by engines that are driven by the caller's clock.
type Stepper interface {
	Step(dt float64) StepReport
}
