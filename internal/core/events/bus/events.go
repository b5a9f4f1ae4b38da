package bus

import "github.com/zeusync/suika/internal/core/models"

// Game event types published by the merge core.
const (
	TypeSpawned     = "entity.spawned"
	TypeMerged      = "entity.merged"
	TypeRemoved     = "entity.removed"
	TypeTerminal    = "collision.terminal"
	TypeSyncFailed  = "engine.sync_failed"
	TypeGravity     = "gravity.changed"
	TypeInvariant   = "engine.invariant_violation"
	TypeScoreChange = "score.changed"
	TypeStepped     = "world.stepped"
	TypeDragged     = "entity.dragged"
)

// Spawned is the payload of TypeSpawned.
type Spawned struct {
	Entity models.Entity `json:"entity"`
}

// Merged is the payload of TypeMerged.
type Merged struct {
	Consumed [2]models.Entity `json:"consumed"`
	Produced models.Entity    `json:"produced"`
	Points   int              `json:"points"`
}

// RemoveReason says why an entity left the arena outside of a merge.
type RemoveReason string

const (
	RemovedByPlayer RemoveReason = "player"
	RemovedOffArena RemoveReason = "off_arena"
)

// Removed is the payload of TypeRemoved.
type Removed struct {
	Entity models.Entity `json:"entity"`
	Reason RemoveReason  `json:"reason"`
}

// Terminal is the payload of TypeTerminal: two terminal-kind entities touched.
// Both survive.
type Terminal struct {
	A models.Entity `json:"a"`
	B models.Entity `json:"b"`
}

// SyncFailed is the payload of TypeSyncFailed and TypeInvariant.
type SyncFailed struct {
	Op    string          `json:"op"`
	ID    models.EntityID `json:"id,omitempty"`
	Error string          `json:"error"`
}

// ScoreChanged is the payload of TypeScoreChange.
type ScoreChanged struct {
	Score int `json:"score"`
	Delta int `json:"delta"`
}

// Gravity is the payload of TypeGravity.
type Gravity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dragged is the payload of TypeDragged.
type Dragged struct {
	ID models.EntityID `json:"id"`
	X  float64         `json:"x"`
	Y  float64         `json:"y"`
}
