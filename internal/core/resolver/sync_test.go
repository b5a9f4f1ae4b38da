package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/registry"
	"github.com/zeusync/suika/internal/core/systems/physics"
	"github.com/zeusync/suika/internal/core/systems/physics/physicstest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSync_SpawnAndRemove(t *testing.T) {
	f := newFixture(t, PlaceAtContact)
	c := f.spawn(t, kinds.Cherry, physics.V(3, 4))

	body, ok := f.engine.Body(c.ID)
	require.True(t, ok)
	require.True(t, body.Drag)
	require.Equal(t, physics.V(3, 4), body.Spec.Position)
	require.Equal(t, physics.ShapeCircle, body.Spec.Shape)

	removed, err := f.sync.Remove(c.ID)
	require.NoError(t, err)
	require.Equal(t, c, removed)
	require.Zero(t, f.registry.Len())
	require.Empty(t, f.engine.IDs())

	_, err = f.sync.Remove(c.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestSync_SpawnRollback(t *testing.T) {
	t.Run("Create failure leaves nothing behind", func(t *testing.T) {
		f := newFixture(t, PlaceAtContact)
		f.engine.FailNext(physicstest.OpCreate, 0)
		_, err := f.sync.Spawn(f.kind(t, kinds.Cherry), physics.V(0, 0))
		require.ErrorIs(t, err, ErrEngineSync)
		require.ErrorIs(t, err, physicstest.ErrInjected)
		require.Zero(t, f.registry.Len())
		f.requireConsistent(t)
	})

	t.Run("Drag failure destroys the new body", func(t *testing.T) {
		f := newFixture(t, PlaceAtContact)
		f.engine.FailNext(physicstest.OpDrag, 0)
		_, err := f.sync.Spawn(f.kind(t, kinds.Cherry), physics.V(0, 0))
		require.ErrorIs(t, err, ErrEngineSync)
		require.Zero(t, f.registry.Len())
		f.requireConsistent(t)
	})
}

func TestSync_RemoveDestroyFailure(t *testing.T) {
	f := newFixture(t, PlaceAtContact)
	c := f.spawn(t, kinds.Cherry, physics.V(0, 0))
	f.engine.FailOn(physicstest.OpDestroy, c.ID)

	_, err := f.sync.Remove(c.ID)
	require.ErrorIs(t, err, ErrEngineSync)
	require.True(t, f.registry.Contains(c.ID))
	f.requireConsistent(t)

	f.engine.FailOn(physicstest.OpDestroy, "")
	_, err = f.sync.Remove(c.ID)
	require.NoError(t, err)
	f.requireConsistent(t)
}

func TestSync_MergeRollback(t *testing.T) {
	tests := []struct {
		name      string
		arm       func(f *fixture, a, b models.Entity)
		survivors int
	}{
		{
			name:      "Product create fails",
			arm:       func(f *fixture, _, _ models.Entity) { f.engine.FailNext(physicstest.OpCreate, 0) },
			survivors: 2,
		},
		{
			name:      "Product drag fails",
			arm:       func(f *fixture, _, _ models.Entity) { f.engine.FailNext(physicstest.OpDrag, 0) },
			survivors: 2,
		},
		{
			name:      "First destroy fails",
			arm:       func(f *fixture, a, _ models.Entity) { f.engine.FailOn(physicstest.OpDestroy, a.ID) },
			survivors: 2,
		},
		{
			name:      "Second destroy fails",
			arm:       func(f *fixture, _, b models.Entity) { f.engine.FailOn(physicstest.OpDestroy, b.ID) },
			survivors: 2,
		},
		{
			name: "Second destroy fails and first body cannot be recreated",
			arm: func(f *fixture, a, b models.Entity) {
				f.engine.FailOn(physicstest.OpDestroy, b.ID)
				f.engine.FailOn(physicstest.OpCreate, a.ID)
			},
			survivors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, PlaceAtContact)
			a := f.spawn(t, kinds.Cherry, physics.V(0, 0))
			b := f.spawn(t, kinds.Cherry, physics.V(1, 0))
			tt.arm(f, a, b)

			res, err := f.resolver.Resolve(physics.CollisionEvent{A: a.ID, B: b.ID, Contact: physics.V(0.5, 0)})
			require.ErrorIs(t, err, ErrEngineSync)
			require.NotErrorIs(t, err, ErrInvariantViolation)
			require.Equal(t, OutcomeFailed, res.Outcome)
			require.Equal(t, tt.survivors, f.registry.Len())
			for _, e := range f.registry.All() {
				require.Equal(t, kinds.Cherry, e.Kind.Name)
			}
			f.requireConsistent(t)
			require.Equal(t, uint64(1), f.resolver.Stats().Failures)
		})
	}
}

func TestSync_MergeCallOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := physics.NewMockEngine(ctrl)
	reg := registry.New()
	s := NewSync(reg, engine, nil)
	table := kinds.Default()
	cherry, _ := table.Lookup(kinds.Cherry)
	strawberry, _ := table.Lookup(kinds.Strawberry)

	engine.EXPECT().CreateBody(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	engine.EXPECT().SetDragEnabled(gomock.Any(), true).Return(nil).Times(2)
	a, err := s.Spawn(cherry, physics.V(0, 0))
	require.NoError(t, err)
	b, err := s.Spawn(cherry, physics.V(1, 0))
	require.NoError(t, err)

	gomock.InOrder(
		engine.EXPECT().CreateBody(models.EntityID("fruit-2"), gomock.Any()).Return(nil),
		engine.EXPECT().SetDragEnabled(models.EntityID("fruit-2"), true).Return(nil),
		engine.EXPECT().DestroyBody(a.ID).Return(nil),
		engine.EXPECT().DestroyBody(b.ID).Return(nil),
	)
	produced, err := s.Merge(a, b, strawberry, physics.V(0.5, 0))
	require.NoError(t, err)
	require.Equal(t, strawberry, produced.Kind)
	require.Equal(t, []models.EntityID{"fruit-2"}, reg.IDs())
}

func TestSync_StuckBodyKeepsEntity(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := physics.NewMockEngine(ctrl)
	reg := registry.New()
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSync(reg, engine, log.NewFromZap(zap.New(core), log.LevelDebug))
	cherry, _ := kinds.Default().Lookup(kinds.Cherry)
	boom := errors.New("boom")

	gomock.InOrder(
		engine.EXPECT().CreateBody(gomock.Any(), gomock.Any()).Return(nil),
		engine.EXPECT().SetDragEnabled(gomock.Any(), true).Return(boom),
		engine.EXPECT().DestroyBody(gomock.Any()).Return(boom),
	)
	e, err := s.Spawn(cherry, physics.V(0, 0))
	require.NoError(t, err)
	require.True(t, reg.Contains(e.ID))

	stuck := logs.FilterMessage("rollback left undraggable body").All()
	require.Len(t, stuck, 1)
	require.Equal(t, "boom", stuck[0].ContextMap()["error"])
	require.Contains(t, stuck[0].ContextMap()["cause"], "enable drag")
}

func TestSync_MergeRollbackRestoresFirstEntity(t *testing.T) {
	f := newFixture(t, PlaceAtContact)
	a := f.spawn(t, kinds.Cherry, physics.V(0, 0))
	b := f.spawn(t, kinds.Cherry, physics.V(1, 0))
	require.NoError(t, f.registry.Move(a.ID, physics.V(2, 7)))
	a, err := f.registry.Get(a.ID)
	require.NoError(t, err)
	f.engine.FailOn(physicstest.OpDestroy, b.ID)

	_, err = f.sync.Merge(a, b, f.kind(t, kinds.Strawberry), physics.V(0.5, 0))
	require.ErrorIs(t, err, ErrEngineSync)

	restored, err := f.registry.Get(a.ID)
	require.NoError(t, err)
	require.Equal(t, a, restored)
	require.Equal(t, []models.EntityID{a.ID, b.ID}, f.registry.IDs())
	body, ok := f.engine.Body(a.ID)
	require.True(t, ok)
	require.True(t, body.Drag)
	require.Equal(t, physics.V(2, 7), body.Spec.Position)
	f.requireConsistent(t)
}

func TestSync_ReviveLogsDragFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, PlaceAtContact)
	f.sync = NewSync(f.registry, f.engine, log.NewFromZap(zap.New(core), log.LevelDebug))
	a := f.spawn(t, kinds.Cherry, physics.V(0, 0))
	b := f.spawn(t, kinds.Cherry, physics.V(1, 0))
	f.engine.FailOn(physicstest.OpDestroy, b.ID)
	f.engine.FailOn(physicstest.OpDrag, a.ID)

	_, err := f.sync.Merge(a, b, f.kind(t, kinds.Strawberry), physics.V(0.5, 0))
	require.ErrorIs(t, err, ErrEngineSync)
	require.NotErrorIs(t, err, ErrInvariantViolation)

	require.True(t, f.registry.Contains(a.ID))
	body, ok := f.engine.Body(a.ID)
	require.True(t, ok)
	require.False(t, body.Drag)
	f.requireConsistent(t)

	warned := logs.FilterMessage("revived body is not draggable").All()
	require.Len(t, warned, 1)
	require.Equal(t, zapcore.WarnLevel, warned[0].Level)
	require.Equal(t, string(a.ID), warned[0].ContextMap()["id"])
}
