// Package physicstest provides an in-memory physics.Engine that records the
// bodies it believes are alive, for consistency checks in tests.
package physicstest

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/suika/internal/core/systems/physics"
)

var (
	ErrInjected    = errors.New("physicstest: injected failure")
	ErrUnknownBody = errors.New("physicstest: unknown body")
	ErrDuplicate   = errors.New("physicstest: body already exists")
)

// Op names an Engine method for failure injection.
type Op string

const (
	OpCreate  Op = "create"
	OpDestroy Op = "destroy"
	OpGravity Op = "gravity"
	OpDrag    Op = "drag"
)

// Body is the fake's view of a live body.
type Body struct {
	Spec physics.BodySpec
	Drag bool
}

// Engine is a fake physics.Engine. It is strict: creating an existing id or
// destroying an unknown id fails, so protocol mistakes surface in tests.
type Engine struct {
	mu      sync.Mutex
	bodies  map[physics.BodyID]Body
	gravity physics.Vec2
	calls   []string
	// failures: op -> remaining number of calls to skip before failing (-1 disarmed)
	failAfter map[Op]int
	failOnID  map[Op]physics.BodyID
}

var _ physics.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		bodies:    make(map[physics.BodyID]Body),
		failAfter: make(map[Op]int),
		failOnID:  make(map[Op]physics.BodyID),
	}
}

// FailNext makes the (skip+1)-th next call of op fail once.
func (e *Engine) FailNext(op Op, skip int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failAfter[op] = skip
}

// FailOn makes every call of op for id fail until cleared with FailOn(op, "").
func (e *Engine) FailOn(op Op, id physics.BodyID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == "" {
		delete(e.failOnID, op)
		return
	}
	e.failOnID[op] = id
}

func (e *Engine) shouldFailLocked(op Op, id physics.BodyID) bool {
	if target, ok := e.failOnID[op]; ok && target == id {
		return true
	}
	n, ok := e.failAfter[op]
	if !ok {
		return false
	}
	if n == 0 {
		delete(e.failAfter, op)
		return true
	}
	e.failAfter[op] = n - 1
	return false
}

func (e *Engine) CreateBody(id physics.BodyID, spec physics.BodySpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf("create %s", id))
	if e.shouldFailLocked(OpCreate, id) {
		return ErrInjected
	}
	if _, ok := e.bodies[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	e.bodies[id] = Body{Spec: spec}
	return nil
}

func (e *Engine) DestroyBody(id physics.BodyID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf("destroy %s", id))
	if e.shouldFailLocked(OpDestroy, id) {
		return ErrInjected
	}
	if _, ok := e.bodies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	delete(e.bodies, id)
	return nil
}

func (e *Engine) SetGravity(gravity physics.Vec2) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "gravity")
	if e.shouldFailLocked(OpGravity, "") {
		return ErrInjected
	}
	e.gravity = gravity
	return nil
}

func (e *Engine) SetDragEnabled(id physics.BodyID, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf("drag %s", id))
	if e.shouldFailLocked(OpDrag, id) {
		return ErrInjected
	}
	b, ok := e.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBody, id)
	}
	b.Drag = enabled
	e.bodies[id] = b
	return nil
}

// IDs returns the sorted ids of live bodies.
func (e *Engine) IDs() []physics.BodyID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]physics.BodyID, 0, len(e.bodies))
	for id := range e.bodies {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (e *Engine) Body(id physics.BodyID) (Body, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bodies[id]
	return b, ok
}

func (e *Engine) Gravity() physics.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gravity
}

// Calls returns the call log in order.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}
