package resolver

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/registry"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// Sync performs registry mutations together with the matching engine calls.
// Every method either applies both sides or neither; callers serialise calls.
type Sync struct {
	registry *registry.Registry
	engine   physics.Engine
	logger   log.Log
}

func NewSync(reg *registry.Registry, engine physics.Engine, logger log.Log) *Sync {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Sync{registry: reg, engine: engine, logger: logger}
}

func (s *Sync) Registry() *registry.Registry { return s.registry }
func (s *Sync) Engine() physics.Engine       { return s.engine }

// Spawn creates an entity and its draggable body.
func (s *Sync) Spawn(kind kinds.Kind, position physics.Vec2) (models.Entity, error) {
	id := s.registry.Create(kind, position)
	e := models.Entity{ID: id, Kind: kind, Position: position}
	if err := s.createBody(e); err != nil {
		if rmErr := s.registry.Remove(id); rmErr != nil {
			return models.Entity{}, errors.Join(err, fmt.Errorf("%w: %w", ErrInvariantViolation, rmErr))
		}
		return models.Entity{}, err
	}
	return e, nil
}

// Remove destroys the body and then forgets the entity. A missing id returns
// registry.ErrNotFound and changes nothing.
func (s *Sync) Remove(id models.EntityID) (models.Entity, error) {
	e, err := s.registry.Get(id)
	if err != nil {
		return models.Entity{}, err
	}
	if err = s.engine.DestroyBody(id); err != nil {
		return models.Entity{}, fmt.Errorf("%w: destroy %s: %w", ErrEngineSync, id, err)
	}
	if err = s.registry.Remove(id); err != nil {
		return models.Entity{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return e, nil
}

// Merge replaces a and b with one entity of kind at position. The new body is
// created first so that any failure can be undone by destroying it. Each
// consumed entity leaves the registry right after its body is destroyed.
func (s *Sync) Merge(a, b models.Entity, kind kinds.Kind, position physics.Vec2) (models.Entity, error) {
	produced, err := s.Spawn(kind, position)
	if err != nil {
		return models.Entity{}, err
	}

	if err = s.engine.DestroyBody(a.ID); err != nil {
		err = fmt.Errorf("%w: destroy %s: %w", ErrEngineSync, a.ID, err)
		return models.Entity{}, errors.Join(err, s.discard(produced))
	}
	if err = s.registry.Remove(a.ID); err != nil {
		return produced, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}

	if err = s.engine.DestroyBody(b.ID); err != nil {
		err = fmt.Errorf("%w: destroy %s: %w", ErrEngineSync, b.ID, err)
		return models.Entity{}, errors.Join(err, s.revive(a), s.discard(produced))
	}
	if err = s.registry.Remove(b.ID); err != nil {
		return produced, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return produced, nil
}

func (s *Sync) createBody(e models.Entity) error {
	if err := s.engine.CreateBody(e.ID, e.Body()); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrEngineSync, e.ID, err)
	}
	if err := s.engine.SetDragEnabled(e.ID, true); err != nil {
		err = fmt.Errorf("%w: enable drag %s: %w", ErrEngineSync, e.ID, err)
		if dErr := s.engine.DestroyBody(e.ID); dErr != nil {
			// body is stuck in the engine; keep the registry entry so both sides agree
			s.logger.Error("rollback left undraggable body",
				log.String("id", string(e.ID)),
				log.Error(dErr),
				log.ErrorWithKey("cause", err))
			return nil
		}
		return err
	}
	return nil
}

// discard undoes a Spawn.
func (s *Sync) discard(e models.Entity) error {
	if err := s.engine.DestroyBody(e.ID); err != nil {
		s.logger.Error("rollback could not destroy body, keeping entity",
			log.String("id", string(e.ID)), log.Error(err))
		return nil
	}
	if err := s.registry.Remove(e.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return nil
}

// revive undoes the destruction of an entity consumed by a failed merge: its
// body is recreated and the entity restored under its old id. If the engine
// refuses, the entity stays gone on both sides.
func (s *Sync) revive(e models.Entity) error {
	if err := s.engine.CreateBody(e.ID, e.Body()); err != nil {
		s.logger.Error("rollback could not recreate body, dropping entity",
			log.String("id", string(e.ID)), log.Error(err))
		return nil
	}
	if err := s.engine.SetDragEnabled(e.ID, true); err != nil {
		s.logger.Warn("revived body is not draggable",
			log.String("id", string(e.ID)), log.Error(err))
	}
	if err := s.registry.Restore(e); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return nil
}

// CheckConsistent compares registry ids with the ids an engine reports as live.
func CheckConsistent(registryIDs []models.EntityID, engineIDs []physics.BodyID) error {
	reg := slices.Clone(registryIDs)
	eng := slices.Clone(engineIDs)
	slices.Sort(reg)
	slices.Sort(eng)
	if slices.Equal(reg, eng) {
		return nil
	}
	var onlyReg, onlyEng []models.EntityID
	for _, id := range reg {
		if _, found := slices.BinarySearch(eng, id); !found {
			onlyReg = append(onlyReg, id)
		}
	}
	for _, id := range eng {
		if _, found := slices.BinarySearch(reg, id); !found {
			onlyEng = append(onlyEng, id)
		}
	}
	return fmt.Errorf("%w: registry only %v, engine only %v", ErrInvariantViolation, onlyReg, onlyEng)
}
