package models

import (
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// EntityID identifies a live entity. It doubles as the body id handed to the
// physics engine.
type EntityID = physics.BodyID

// Entity is one spawned token. Kind never changes; Position follows the
// engine's step reports.
type Entity struct {
	ID       EntityID     `json:"id"`
	Kind     kinds.Kind   `json:"kind"`
	Position physics.Vec2 `json:"position"`
}

// Body returns the engine body spec for the entity: a dynamic circle whose
// diameter is the kind's visual size.
func (e Entity) Body() physics.BodySpec {
	return physics.BodySpec{
		Shape:    physics.ShapeCircle,
		Position: e.Position,
		Size:     e.Kind.Size,
	}
}
