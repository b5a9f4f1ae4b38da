// Package registry owns the set of live entities. It only tracks state; keeping
// the physics engine in step is the caller's job.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

var (
	ErrNotFound    = errors.New("entity not found")
	ErrIDNotIssued = errors.New("entity id was never issued by this registry")
	ErrIDLive      = errors.New("entity id is already live")
)

const DefaultPrefix = "fruit"

type record struct {
	entity models.Entity
	seq    uint64
}

// Registry maps ids to entities. Ids are "<prefix>-<n>" where n comes from a
// counter that only grows for the registry's lifetime, so an id is never
// handed out twice.
type Registry struct {
	mu       sync.RWMutex
	prefix   string
	next     uint64
	entities map[models.EntityID]record
}

func New() *Registry { return NewWithPrefix(DefaultPrefix) }

func NewWithPrefix(prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Registry{
		prefix:   prefix,
		entities: make(map[models.EntityID]record),
	}
}

// Create allocates a fresh id and inserts the entity.
func (r *Registry) Create(kind kinds.Kind, position physics.Vec2) models.EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.next
	r.next++
	id := models.EntityID(r.prefix + "-" + strconv.FormatUint(seq, 10))
	r.entities[id] = record{
		entity: models.Entity{ID: id, Kind: kind, Position: position},
		seq:    seq,
	}
	return id
}

func (r *Registry) Get(id models.EntityID) (models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.entities[id]
	if !ok {
		return models.Entity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.entity, nil
}

func (r *Registry) Contains(id models.EntityID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// Remove deletes the entity. A missing id yields ErrNotFound and no change.
func (r *Registry) Remove(id models.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.entities, id)
	return nil
}

// Move updates the tracked position of a live entity.
func (r *Registry) Move(id models.EntityID, position physics.Vec2) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.entity.Position = position
	r.entities[id] = rec
	return nil
}

// Restore puts back an entity removed earlier, keeping its id. It is meant for
// rolling back a failed composite operation and refuses ids that this registry
// never issued or that are live.
func (r *Registry) Restore(e models.Entity) error {
	seq, ok := r.parse(e.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ok || seq >= r.next {
		return fmt.Errorf("%w: %s", ErrIDNotIssued, e.ID)
	}
	if _, live := r.entities[e.ID]; live {
		return fmt.Errorf("%w: %s", ErrIDLive, e.ID)
	}
	r.entities[e.ID] = record{entity: e, seq: seq}
	return nil
}

// All returns a snapshot of live entities in creation order.
func (r *Registry) All() []models.Entity {
	r.mu.RLock()
	recs := make([]record, 0, len(r.entities))
	for _, rec := range r.entities {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	slices.SortFunc(recs, func(a, b record) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	out := make([]models.Entity, len(recs))
	for i, rec := range recs {
		out[i] = rec.entity
	}
	return out
}

// IDs returns the live ids, sorted lexically.
func (r *Registry) IDs() []models.EntityID {
	r.mu.RLock()
	out := make([]models.EntityID, 0, len(r.entities))
	for id := range r.entities {
		out = append(out, id)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Issued is the number of ids handed out so far.
func (r *Registry) Issued() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.next
}

func (r *Registry) parse(id models.EntityID) (uint64, bool) {
	rest, ok := strings.CutPrefix(string(id), r.prefix+"-")
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || strconv.FormatUint(seq, 10) != rest {
		return 0, false
	}
	return seq, true
}
