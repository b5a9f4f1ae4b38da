package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/systems/physics"
	"github.com/zeusync/suika/internal/core/systems/physics/physicstest"
	"github.com/zeusync/suika/internal/core/systems/physics/resolvspace"
)

func startLoop(t *testing.T, s *Session, opts LoopOptions) (*Loop, context.CancelFunc, chan error) {
	t.Helper()
	l := NewLoop(s, opts)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.done
	})
	return l, cancel, errc
}

func TestLoop_Commands(t *testing.T) {
	s, _ := newSession(t, physicstest.New())
	l, _, _ := startLoop(t, s, LoopOptions{})
	ctx := context.Background()

	r, err := l.Submit(ctx, Tap(physics.V(5, 5)))
	require.NoError(t, err)
	require.Equal(t, kinds.Cherry, r.Entity.Kind.Name)

	_, err = l.Submit(ctx, Remove("fruit-404"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.Submit(ctx, Command{Kind: "jump"})
	require.ErrorIs(t, err, ErrUnknownCommand)

	_, err = l.Submit(ctx, Step(0.016))
	require.ErrorIs(t, err, ErrUnknownCommand)

	_, err = l.Submit(ctx, Tilt(0, 1))
	require.NoError(t, err)

	r, err = l.Submit(ctx, Tap(physics.V(6, 6)))
	require.NoError(t, err)
	r, err = l.Submit(ctx, Collisions(physics.CollisionEvent{A: "fruit-0", B: r.Entity.ID, Contact: physics.V(5.5, 5.5)}))
	require.NoError(t, err)
	require.Len(t, r.Results, 1)
	require.Equal(t, 3, s.Score())
}

func TestLoop_RunOnceAndClose(t *testing.T) {
	s, _ := newSession(t, physicstest.New())
	l, cancel, errc := startLoop(t, s, LoopOptions{})

	_, err := l.Submit(context.Background(), Tap(physics.V(0, 0)))
	require.NoError(t, err)
	require.ErrorIs(t, l.Run(context.Background()), ErrLoopRunning)

	cancel()
	require.NoError(t, <-errc)
	_, err = l.Submit(context.Background(), Tap(physics.V(0, 0)))
	require.ErrorIs(t, err, ErrLoopClosed)
	require.ErrorIs(t, l.Enqueue(context.Background(), Release()), ErrLoopClosed)
}

func TestLoop_PressAndHold(t *testing.T) {
	s, _ := newSession(t, physicstest.New())
	l, _, _ := startLoop(t, s, LoopOptions{LaunchInterval: 5 * time.Millisecond})
	ctx := context.Background()

	_, err := l.Submit(ctx, Press(physics.V(50, 10)))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.Registry().Len() >= 3
	}, time.Second, time.Millisecond)

	_, err = l.Submit(ctx, Release())
	require.NoError(t, err)
	// flush anything queued before the release took effect
	_, err = l.Submit(ctx, Tilt(0, 0))
	require.NoError(t, err)

	n := s.Registry().Len()
	time.Sleep(30 * time.Millisecond)
	_, err = l.Submit(ctx, Tilt(0, 0))
	require.NoError(t, err)
	require.Equal(t, n, s.Registry().Len())

	for _, e := range s.Snapshot().Entities {
		require.Equal(t, physics.V(50, 10), e.Position)
	}
}

func TestLoop_DropsStaleLaunchTicks(t *testing.T) {
	s, _ := newSession(t, physicstest.New())
	l := NewLoop(s, LoopOptions{})

	l.activeGen = 2
	r := l.apply(Command{Kind: cmdLaunch, generation: 1})
	require.NoError(t, r.Err)
	require.Zero(t, s.Registry().Len())

	r = l.apply(Command{Kind: cmdLaunch, generation: 2})
	require.NoError(t, r.Err)
	require.Equal(t, 1, s.Registry().Len())
}

func TestLoop_StepsResolvSpaceEndToEnd(t *testing.T) {
	world, err := resolvspace.New(resolvspace.Options{Width: 400, Height: 600})
	require.NoError(t, err)
	s, rec := newSession(t, world)
	l, _, _ := startLoop(t, s, LoopOptions{Stepper: world, Verify: true})
	ctx := context.Background()

	_, err = l.Submit(ctx, Tap(physics.V(100, 100)))
	require.NoError(t, err)
	_, err = l.Submit(ctx, Tap(physics.V(110, 100)))
	require.NoError(t, err)

	_, err = l.Submit(ctx, Step(0))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Entities, 1)
	require.Equal(t, kinds.Strawberry, snap.Entities[0].Kind.Name)
	require.Equal(t, physics.V(105, 100), snap.Entities[0].Position)
	require.Equal(t, 3, snap.Score)
	require.Equal(t, []physics.BodyID{snap.Entities[0].ID}, world.IDs())

	ev, ok := rec.last(bus.TypeStepped)
	require.True(t, ok)
	require.Equal(t, 3, ev.Data.(Snapshot).Score)
}

func TestLoop_StepTicker(t *testing.T) {
	world, err := resolvspace.New(resolvspace.Options{Width: 400, Height: 600})
	require.NoError(t, err)
	s, _ := newSession(t, world)
	require.NoError(t, s.Tilt(0, 300))
	_, err = s.Tap(physics.V(200, 20))
	require.NoError(t, err)

	startLoop(t, s, LoopOptions{Stepper: world, StepInterval: 2 * time.Millisecond, Verify: true})

	require.Eventually(t, func() bool {
		return world.Steps() > 5 && s.Snapshot().Entities[0].Position.Y > 20
	}, 2*time.Second, 2*time.Millisecond)
}

func TestLoop_DragOffArenaRemoves(t *testing.T) {
	world, err := resolvspace.New(resolvspace.Options{Width: 400, Height: 600})
	require.NoError(t, err)
	s, rec := newSession(t, world)
	l, _, _ := startLoop(t, s, LoopOptions{Stepper: world, Verify: true})
	ctx := context.Background()

	r, err := l.Submit(ctx, Tap(physics.V(200, 100)))
	require.NoError(t, err)
	id := r.Entity.ID

	_, err = l.Submit(ctx, Drag(id, physics.V(200, 50)))
	require.NoError(t, err)
	_, err = l.Submit(ctx, Step(0))
	require.NoError(t, err)
	require.Equal(t, physics.V(200, 50), s.Snapshot().Entities[0].Position)

	_, err = l.Submit(ctx, Drag(id, physics.V(200, -700)))
	require.NoError(t, err)
	_, err = l.Submit(ctx, Step(0))
	require.NoError(t, err)

	require.Zero(t, s.Registry().Len())
	require.Empty(t, world.IDs())
	ev, ok := rec.last(bus.TypeRemoved)
	require.True(t, ok)
	require.Equal(t, bus.RemovedOffArena, ev.Data.(bus.Removed).Reason)
	require.Equal(t, id, ev.Data.(bus.Removed).Entity.ID)

	_, err = l.Submit(ctx, Drag(id, physics.V(10, 10)))
	require.ErrorIs(t, err, ErrNotFound)
}
