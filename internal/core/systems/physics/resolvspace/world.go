// Package resolvspace is a small reference physics.Engine built on resolv's
// spatial grid. It integrates gravity, keeps circles inside an open-topped box
// and reports every overlapping pair of circles once per step.
package resolvspace

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/solarlune/resolv"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var (
	ErrUnknownBody   = errors.New("resolvspace: unknown body")
	ErrDuplicateBody = errors.New("resolvspace: body already exists")
	ErrInvalidBody   = errors.New("resolvspace: invalid body spec")
	ErrNotDraggable  = errors.New("resolvspace: body is not draggable")
)

var tagFruit = resolv.NewTag("fruit")

// resolv keeps shape ids and cell query scratch space in package globals, so
// shape creation and cell queries are serialized across worlds.
var gridMu sync.Mutex

const (
	DefaultCellSize    = 32
	DefaultRestitution = 0.2
	// DefaultMaxSpeed caps body speed in units per second.
	DefaultMaxSpeed = 2000.0
)

// Options configure a World.
type Options struct {
	Width, Height float64
	// CellSize is the resolv grid cell edge; 0 means DefaultCellSize.
	CellSize    int
	Restitution float64
	MaxSpeed    float64
	Logger      log.Log
}

type body struct {
	id     physics.BodyID
	spec   physics.BodySpec
	shape  resolv.IShape
	pos    physics.Vec2
	vel    physics.Vec2
	drag   bool
	radius float64
}

// World implements physics.Engine and physics.Stepper. All methods are safe
// for concurrent use.
type World struct {
	mu      sync.Mutex
	space   *resolv.Space
	width   float64
	height  float64
	restit  float64
	maxVel  float64
	gravity physics.Vec2
	bodies  map[physics.BodyID]*body
	shapes  map[resolv.IShape]*body
	steps   uint64
	logger  log.Log
}

var (
	_ physics.Engine  = (*World)(nil)
	_ physics.Stepper = (*World)(nil)
)

func New(opts Options) (*World, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("resolvspace: arena must have positive size, got %vx%v", opts.Width, opts.Height)
	}
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultCellSize
	}
	if opts.Restitution <= 0 {
		opts.Restitution = DefaultRestitution
	}
	if opts.MaxSpeed <= 0 {
		opts.MaxSpeed = DefaultMaxSpeed
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	w := &World{
		space:  resolv.NewSpace(int(math.Ceil(opts.Width)), int(math.Ceil(opts.Height)), opts.CellSize, opts.CellSize),
		width:  opts.Width,
		height: opts.Height,
		restit: opts.Restitution,
		maxVel: opts.MaxSpeed,
		bodies: make(map[physics.BodyID]*body),
		shapes: make(map[resolv.IShape]*body),
		logger: opts.Logger.With(log.String("component", "resolvspace")),
	}
	w.logger.Debug("arena created",
		log.Float64("width", opts.Width),
		log.Float64("height", opts.Height),
		log.Int("cell", opts.CellSize))
	return w, nil
}

func (w *World) CreateBody(id physics.BodyID, spec physics.BodySpec) error {
	if spec.Size <= 0 {
		return fmt.Errorf("%w: %s has size %v", ErrInvalidBody, id, spec.Size)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.bodies[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, id)
	}

	b := &body{id: id, spec: spec, pos: spec.Position, radius: spec.Size / 2}
	gridMu.Lock()
	defer gridMu.Unlock()
	switch spec.Shape {
	case physics.ShapeCircle:
		b.shape = resolv.NewCircle(spec.Position.X, spec.Position.Y, b.radius)
		b.shape.Tags().Set(tagFruit)
	case physics.ShapeRectangle:
		b.shape = resolv.NewRectangleTopLeft(spec.Position.X-b.radius, spec.Position.Y-b.radius, spec.Size, spec.Size)
	default:
		return fmt.Errorf("%w: %s has shape %s", ErrInvalidBody, id, spec.Shape)
	}

	w.space.Add(b.shape)
	w.bodies[id] = b
	w.shapes[b.shape] = b
	return nil
}

func (w *World) DestroyBody(id physics.BodyID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	w.space.Remove(b.shape)
	delete(w.shapes, b.shape)
	delete(w.bodies, id)
	return nil
}

func (w *World) SetGravity(gravity physics.Vec2) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gravity = gravity
	return nil
}

func (w *World) SetDragEnabled(id physics.BodyID, enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	b.drag = enabled
	return nil
}

// DragTo moves a draggable body to position and stops it.
func (w *World) DragTo(id physics.BodyID, position physics.Vec2) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	if !b.drag {
		return fmt.Errorf("%w: %s", ErrNotDraggable, id)
	}
	b.vel = physics.Vec2{}
	w.moveLocked(b, position)
	return nil
}

func (w *World) Gravity() physics.Vec2 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gravity
}

// IDs returns the sorted ids of live bodies.
func (w *World) IDs() []physics.BodyID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedIDsLocked()
}

func (w *World) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bodies)
}

func (w *World) Steps() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

func (w *World) Size() (width, height float64) { return w.width, w.height }

// Step advances the simulation by dt seconds. Bodies and collisions in the
// report are sorted by id so that replays are deterministic.
func (w *World) Step(dt float64) physics.StepReport {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.steps++
	ids := w.sortedIDsLocked()

	for _, id := range ids {
		b := w.bodies[id]
		if b.spec.Static {
			continue
		}
		b.vel = b.vel.Add(w.gravity.Scale(dt))
		if speed := b.vel.Len(); speed > w.maxVel {
			b.vel = b.vel.Scale(w.maxVel / speed)
		}
		w.moveLocked(b, b.pos.Add(b.vel.Scale(dt)))
	}

	report := physics.StepReport{
		Bodies:     make([]physics.BodyState, 0, len(ids)),
		Collisions: w.collideLocked(ids),
	}
	for _, id := range ids {
		b := w.bodies[id]
		if b.spec.Static {
			continue
		}
		report.Bodies = append(report.Bodies, physics.BodyState{ID: id, Position: b.pos})
	}
	return report
}

// moveLocked sets the body position, clamped to the side walls and floor, and
// damps velocity on impact. The top is open.
func (w *World) moveLocked(b *body, to physics.Vec2) {
	r := b.radius
	if to.X < r {
		to.X = r
		b.vel.X = -b.vel.X * w.restit
	} else if to.X > w.width-r {
		to.X = w.width - r
		b.vel.X = -b.vel.X * w.restit
	}
	if to.Y > w.height-r {
		to.Y = w.height - r
		b.vel.Y = -b.vel.Y * w.restit
	}
	b.pos = to
	b.shape.SetPosition(to.X, to.Y)
}

type pair [2]physics.BodyID

// collideLocked finds overlapping circles, pushes each pair apart and returns
// one event per pair with A < B. The grid only narrows the candidates; overlap
// is decided on center distance so nested and concentric circles count too.
func (w *World) collideLocked(ids []physics.BodyID) []physics.CollisionEvent {
	seen := make(map[pair]struct{})
	var pairs []pair

	gridMu.Lock()
	for _, id := range ids {
		b := w.bodies[id]
		if b.spec.Shape != physics.ShapeCircle {
			continue
		}
		b.shape.SelectTouchingCells(1).FilterShapes().ByTags(tagFruit).ForEach(func(shape resolv.IShape) bool {
			other, ok := w.shapes[shape]
			if !ok || other == b || !overlapping(b, other) {
				return true
			}
			key := pair{b.id, other.id}
			if other.id < b.id {
				key = pair{other.id, b.id}
			}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				pairs = append(pairs, key)
			}
			return true
		})
	}
	gridMu.Unlock()

	// shapes move during separation, so pairs are collected before any of them is resolved
	slices.SortFunc(pairs, func(x, y pair) int {
		if c := strings.Compare(string(x[0]), string(y[0])); c != 0 {
			return c
		}
		return strings.Compare(string(x[1]), string(y[1]))
	})
	events := make([]physics.CollisionEvent, 0, len(pairs))
	for _, p := range pairs {
		events = append(events, w.resolveLocked(w.bodies[p[0]], w.bodies[p[1]]))
	}
	return events
}

// resolveLocked returns the contact point of a and b and separates them along
// the line between their centers. The contact lies on that line at a's edge,
// weighted by radius.
func (w *World) resolveLocked(a, b *body) physics.CollisionEvent {
	sum := a.radius + b.radius
	contact := a.pos.Lerp(b.pos, a.radius/sum)
	ev := physics.CollisionEvent{A: a.id, B: b.id, Contact: contact}

	delta := b.pos.Sub(a.pos)
	dist := delta.Len()
	overlap := sum - dist
	if overlap <= 0 {
		return ev
	}
	var normal physics.Vec2
	if dist == 0 {
		normal = physics.V(1, 0)
	} else {
		normal = delta.Scale(1 / dist)
	}

	switch {
	case a.spec.Static && b.spec.Static:
	case a.spec.Static:
		w.moveLocked(b, b.pos.Add(normal.Scale(overlap)))
	case b.spec.Static:
		w.moveLocked(a, a.pos.Sub(normal.Scale(overlap)))
	default:
		half := normal.Scale(overlap / 2)
		w.moveLocked(a, a.pos.Sub(half))
		w.moveLocked(b, b.pos.Add(half))
	}
	return ev
}

func overlapping(a, b *body) bool {
	return physics.Distance(a.pos, b.pos) < a.radius+b.radius
}

func (w *World) sortedIDsLocked() []physics.BodyID {
	ids := make([]physics.BodyID, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
