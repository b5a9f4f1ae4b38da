// Package resolver turns collision reports from the physics engine into merges.
//
// Resolution rules, per event {A, B, contact}:
//   - either id not live: stale report, nothing happens
//   - A == B: ignored
//   - different kinds: an ordinary bounce, left to the engine
//   - same terminal kind: both survive
//   - same kind otherwise: both are replaced by one entity of the next kind
//
// Because a merge removes both ids, duplicate and reversed reports of the same
// contact resolve to no-ops, so batch order does not matter.
package resolver

import (
	"errors"
	"sync/atomic"

	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// Placement decides where a merge product appears.
type Placement uint8

const (
	// PlaceAtContact puts the product at the contact point.
	PlaceAtContact Placement = iota
	// PlaceCentered shifts the contact point left by half the product's size,
	// for layouts that position bodies by their left edge.
	PlaceCentered
)

func ParsePlacement(s string) (Placement, bool) {
	switch s {
	case "", "contact":
		return PlaceAtContact, true
	case "centered":
		return PlaceCentered, true
	default:
		return PlaceAtContact, false
	}
}

func (p Placement) String() string {
	if p == PlaceCentered {
		return "centered"
	}
	return "contact"
}

type Outcome uint8

const (
	OutcomeStale Outcome = iota
	OutcomeSelf
	OutcomeBounce
	OutcomeTerminal
	OutcomeMerged
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStale:
		return "stale"
	case OutcomeSelf:
		return "self"
	case OutcomeBounce:
		return "bounce"
	case OutcomeTerminal:
		return "terminal"
	case OutcomeMerged:
		return "merged"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what one collision event did.
type Result struct {
	Event    physics.CollisionEvent
	Outcome  Outcome
	Consumed [2]models.Entity
	Produced models.Entity
	Points   int
}

type Stats struct {
	Merges   uint64 `json:"merges"`
	Bounces  uint64 `json:"bounces"`
	Terminal uint64 `json:"terminal"`
	Stale    uint64 `json:"stale"`
	Self     uint64 `json:"self"`
	Failures uint64 `json:"failures"`
}

type counters struct {
	merges, bounces, terminal, stale, self, failures atomic.Uint64
}

// Resolver applies the merge rule. It keeps no state of its own beyond
// counters; the registry is the state machine.
type Resolver struct {
	table     *kinds.Table
	sync      *Sync
	placement Placement
	logger    log.Log
	counters  counters
}

func New(table *kinds.Table, sync *Sync, placement Placement, logger log.Log) *Resolver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Resolver{
		table:     table,
		sync:      sync,
		placement: placement,
		logger:    logger.With(log.String("component", "resolver")),
	}
}

// Resolve handles one collision event. Only an engine failure returns an
// error; stale, self, bounce and terminal reports are normal outcomes.
func (r *Resolver) Resolve(ev physics.CollisionEvent) (Result, error) {
	res := Result{Event: ev}
	reg := r.sync.Registry()

	a, errA := reg.Get(ev.A)
	b, errB := reg.Get(ev.B)
	if errA != nil || errB != nil {
		r.counters.stale.Add(1)
		res.Outcome = OutcomeStale
		return res, nil
	}
	res.Consumed = [2]models.Entity{a, b}

	if ev.A == ev.B {
		r.counters.self.Add(1)
		res.Outcome = OutcomeSelf
		return res, nil
	}

	if a.Kind != b.Kind {
		r.counters.bounces.Add(1)
		res.Outcome = OutcomeBounce
		return res, nil
	}

	next, ok := r.table.Next(a.Kind)
	if !ok {
		r.counters.terminal.Add(1)
		res.Outcome = OutcomeTerminal
		r.logger.Debug("terminal collision",
			log.String("a", string(a.ID)), log.String("b", string(b.ID)), log.String("kind", a.Kind.Name))
		return res, nil
	}

	produced, err := r.sync.Merge(a, b, next, r.place(ev.Contact, next))
	if err != nil {
		r.counters.failures.Add(1)
		res.Outcome = OutcomeFailed
		fields := []log.Field{log.String("a", string(a.ID)), log.String("b", string(b.ID)), log.Error(err)}
		if errors.Is(err, ErrInvariantViolation) {
			r.logger.Error("merge broke registry/engine consistency", fields...)
		} else {
			r.logger.Warn("merge rolled back", fields...)
		}
		return res, err
	}

	r.counters.merges.Add(1)
	res.Outcome = OutcomeMerged
	res.Produced = produced
	res.Points = kinds.Points(next)
	r.logger.Debug("merged",
		log.String("a", string(a.ID)),
		log.String("b", string(b.ID)),
		log.String("produced", string(produced.ID)),
		log.String("kind", next.Name))
	return res, nil
}

// ResolveBatch resolves events in order. A failure does not stop the batch;
// errors are joined.
func (r *Resolver) ResolveBatch(events []physics.CollisionEvent) ([]Result, error) {
	results := make([]Result, 0, len(events))
	var all error
	for _, ev := range events {
		res, err := r.Resolve(ev)
		if err != nil {
			all = errors.Join(all, err)
		}
		results = append(results, res)
	}
	return results, all
}

func (r *Resolver) Stats() Stats {
	return Stats{
		Merges:   r.counters.merges.Load(),
		Bounces:  r.counters.bounces.Load(),
		Terminal: r.counters.terminal.Load(),
		Stale:    r.counters.stale.Load(),
		Self:     r.counters.self.Load(),
		Failures: r.counters.failures.Load(),
	}
}

func (r *Resolver) Placement() Placement { return r.placement }

func (r *Resolver) place(contact physics.Vec2, produced kinds.Kind) physics.Vec2 {
	if r.placement == PlaceCentered {
		return physics.Vec2{X: contact.X - produced.Radius(), Y: contact.Y}
	}
	return contact
}
