// Package game ties the merge core together: a Session applies player and
// engine input to the registry and engine under one lock, and a Loop feeds a
// Session from a single command channel.
package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/registry"
	"github.com/zeusync/suika/internal/core/resolver"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

const eventSource = "game"

// Arena bounds the play field. Bodies reported outside it, widened by Margin
// on every side and by Height above the top, are removed.
type Arena struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Margin float64 `json:"margin" yaml:"margin"`
}

// Contains reports whether p is still in play.
func (a Arena) Contains(p physics.Vec2) bool {
	if a.Width <= 0 || a.Height <= 0 {
		return true
	}
	return p.X >= -a.Margin && p.X <= a.Width+a.Margin &&
		p.Y >= -a.Height && p.Y <= a.Height+a.Margin
}

// Options configure a Session. Table, Engine and Policy are required.
type Options struct {
	Table        *kinds.Table
	Engine       physics.Engine
	Policy       *spawn.Policy
	Bus          bus.EventBus
	Logger       log.Log
	Placement    resolver.Placement
	GravityScale float64
	Arena        Arena
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Session  string          `json:"session"`
	Entities []models.Entity `json:"entities"`
	Score    int             `json:"score"`
	Issued   uint64          `json:"issued"`
	Gravity  physics.Vec2    `json:"gravity"`
	Stats    resolver.Stats  `json:"stats"`
	Events   bus.Metrics     `json:"events"`
}

// Session owns one game. Every mutating method holds the session lock across
// the registry update and the engine call, so the two never diverge while
// another goroutine is looking. Events are published after the lock is
// released.
type Session struct {
	mu       sync.Mutex
	id       string
	table    *kinds.Table
	registry *registry.Registry
	engine   physics.Engine
	dragger  physics.Dragger
	sync     *resolver.Sync
	resolver *resolver.Resolver
	policy   *spawn.Policy
	gravity  *physics.GravityAdapter
	bus      bus.EventBus
	logger   log.Log
	arena    Arena
	score    int
	tilt     physics.Vec2
}

func NewSession(opts Options) (*Session, error) {
	switch {
	case opts.Table == nil:
		return nil, errors.New("game: session needs a kind table")
	case opts.Engine == nil:
		return nil, errors.New("game: session needs a physics engine")
	case opts.Policy == nil:
		return nil, errors.New("game: session needs a spawn policy")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}

	dragger, _ := opts.Engine.(physics.Dragger)
	id := uuid.NewString()
	logger := opts.Logger.With(log.String("session", id))
	reg := registry.New()
	s := resolver.NewSync(reg, opts.Engine, logger)

	return &Session{
		id:       id,
		table:    opts.Table,
		registry: reg,
		engine:   opts.Engine,
		dragger:  dragger,
		sync:     s,
		resolver: resolver.New(opts.Table, s, opts.Placement, logger),
		policy:   opts.Policy,
		gravity:  physics.NewGravityAdapter(opts.Engine, opts.GravityScale),
		bus:      opts.Bus,
		logger:   logger.With(log.String("component", "session")),
		arena:    opts.Arena,
	}, nil
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Table() *kinds.Table          { return s.table }
func (s *Session) Bus() bus.EventBus            { return s.bus }
func (s *Session) Registry() *registry.Registry { return s.registry }

// Tap spawns a kind chosen by the spawn policy at position.
func (s *Session) Tap(position physics.Vec2) (models.Entity, error) {
	return s.Spawn(s.policy.Pick(), position)
}

// Spawn creates an entity of kind at position.
func (s *Session) Spawn(kind kinds.Kind, position physics.Vec2) (models.Entity, error) {
	s.mu.Lock()
	e, err := s.sync.Spawn(kind, position)
	s.mu.Unlock()

	if err != nil {
		s.logSyncError("spawn failed", err, log.String("kind", kind.Name))
		s.publish(bus.TypeSyncFailed, bus.SyncFailed{Op: "spawn", Error: err.Error()})
		return models.Entity{}, err
	}
	s.logger.Debug("spawned",
		log.String("id", string(e.ID)),
		log.String("kind", kind.Name),
		log.Float64("x", position.X),
		log.Float64("y", position.Y))
	s.publish(bus.TypeSpawned, bus.Spawned{Entity: e})
	return e, nil
}

// Remove takes an entity out of play at the player's request. An unknown id
// returns ErrNotFound and changes nothing.
func (s *Session) Remove(id models.EntityID) (models.Entity, error) {
	return s.remove(id, bus.RemovedByPlayer)
}

func (s *Session) remove(id models.EntityID, reason bus.RemoveReason) (models.Entity, error) {
	s.mu.Lock()
	e, err := s.sync.Remove(id)
	s.mu.Unlock()

	switch {
	case errors.Is(err, registry.ErrNotFound):
		return models.Entity{}, err
	case err != nil:
		s.logSyncError("remove failed", err, log.String("id", string(id)))
		s.publish(bus.TypeSyncFailed, bus.SyncFailed{Op: "remove", ID: id, Error: err.Error()})
		return models.Entity{}, err
	}
	s.publish(bus.TypeRemoved, bus.Removed{Entity: e, Reason: reason})
	return e, nil
}

// Drag moves a live entity to position through the engine. The registry
// learns the new position from the next step, which also removes the entity
// if it was dragged out of the arena.
func (s *Session) Drag(id models.EntityID, position physics.Vec2) error {
	if s.dragger == nil {
		return ErrDragUnsupported
	}

	s.mu.Lock()
	var err error
	if !s.registry.Contains(id) {
		err = fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if dErr := s.dragger.DragTo(id, position); dErr != nil {
		err = fmt.Errorf("%w: drag %s: %w", ErrEngineSync, id, dErr)
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrNotFound):
		return err
	case err != nil:
		s.logger.Warn("drag failed", log.String("id", string(id)), log.Error(err))
		return err
	}
	s.publish(bus.TypeDragged, bus.Dragged{ID: id, X: position.X, Y: position.Y})
	return nil
}

// HandleCollisions resolves a batch of engine collision reports. Merges add
// to the score. Engine failures are logged and joined into the returned
// error; the remaining events are still resolved.
func (s *Session) HandleCollisions(events []physics.CollisionEvent) ([]resolver.Result, error) {
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	results, err := s.resolver.ResolveBatch(events)
	var out []bus.Event
	for _, res := range results {
		switch res.Outcome {
		case resolver.OutcomeMerged:
			s.score += res.Points
			out = append(out,
				bus.NewEvent(bus.TypeMerged, eventSource, bus.Merged{
					Consumed: res.Consumed, Produced: res.Produced, Points: res.Points,
				}),
				bus.NewEvent(bus.TypeScoreChange, eventSource, bus.ScoreChanged{Score: s.score, Delta: res.Points}))
		case resolver.OutcomeTerminal:
			out = append(out, bus.NewEvent(bus.TypeTerminal, eventSource, bus.Terminal{A: res.Consumed[0], B: res.Consumed[1]}))
		case resolver.OutcomeFailed:
			out = append(out, bus.NewEvent(bus.TypeSyncFailed, eventSource, bus.SyncFailed{
				Op: "merge", ID: res.Event.A + "+" + res.Event.B, Error: "merge rolled back",
			}))
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logSyncError("collision batch had failures", err, log.Int("events", len(events)))
	}
	s.publishAll(out)
	return results, err
}

// Tilt forwards a device tilt sample as gravity.
func (s *Session) Tilt(x, y float64) error {
	s.mu.Lock()
	err := s.gravity.Update(x, y)
	if err == nil {
		s.tilt = s.gravity.Vector(x, y)
	}
	gravity := s.tilt
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("gravity update failed", log.Error(err))
		return fmt.Errorf("%w: set gravity: %w", ErrEngineSync, err)
	}
	s.publish(bus.TypeGravity, bus.Gravity{X: gravity.X, Y: gravity.Y})
	return nil
}

// ApplyStep records body positions from an engine step, removes bodies that
// left the arena and resolves the step's collisions.
func (s *Session) ApplyStep(report physics.StepReport) error {
	var gone []models.EntityID
	s.mu.Lock()
	for _, b := range report.Bodies {
		if err := s.registry.Move(b.ID, b.Position); err != nil {
			// the engine may still report a body removed earlier in this step
			continue
		}
		if !s.arena.Contains(b.Position) {
			gone = append(gone, b.ID)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range gone {
		if _, err := s.remove(id, bus.RemovedOffArena); err != nil && !errors.Is(err, registry.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if _, err := s.HandleCollisions(report.Collisions); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Verify compares the registry with the ids an engine reports as live.
func (s *Session) Verify(engineIDs []physics.BodyID) error {
	s.mu.Lock()
	ids := s.registry.IDs()
	s.mu.Unlock()
	if err := resolver.CheckConsistent(ids, engineIDs); err != nil {
		s.logger.Error("registry and engine disagree", log.Error(err))
		s.publish(bus.TypeInvariant, bus.SyncFailed{Op: "verify", Error: err.Error()})
		return err
	}
	return nil
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) Stats() resolver.Stats { return s.resolver.Stats() }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Session:  s.id,
		Entities: s.registry.All(),
		Score:    s.score,
		Issued:   s.registry.Issued(),
		Gravity:  s.tilt,
		Stats:    s.resolver.Stats(),
		Events:   s.bus.GetMetrics(),
	}
}

func (s *Session) logSyncError(msg string, err error, fields ...log.Field) {
	fields = append(fields, log.Error(err))
	if errors.Is(err, ErrInvariantViolation) {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}

func (s *Session) publish(typ string, data any) {
	s.publishAll([]bus.Event{bus.NewEvent(typ, eventSource, data)})
}

func (s *Session) publishAll(events []bus.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.bus.PublishBatch(events...); err != nil {
		s.logger.Warn("event handler failed", log.Error(err))
	}
}
