package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/resolver"
	"github.com/zeusync/suika/internal/core/spawn"
	"github.com/zeusync/suika/internal/core/systems/physics"
)

// CommandKind selects what a Command does.
type CommandKind string

const (
	CmdTap        CommandKind = "tap"
	CmdRemove     CommandKind = "remove"
	CmdDrag       CommandKind = "drag"
	CmdCollisions CommandKind = "collisions"
	CmdTilt       CommandKind = "tilt"
	CmdPress      CommandKind = "press"
	CmdRelease    CommandKind = "release"
	CmdStep       CommandKind = "step"
	cmdLaunch     CommandKind = "launch"
)

// Command is one unit of input for the loop. Only the fields relevant to Kind
// are read.
type Command struct {
	Kind       CommandKind
	Position   physics.Vec2
	ID         models.EntityID
	Events     []physics.CollisionEvent
	Tilt       physics.Vec2
	DT         float64
	generation uint64
	reply      chan Reply
}

func Tap(position physics.Vec2) Command { return Command{Kind: CmdTap, Position: position} }
func Remove(id models.EntityID) Command { return Command{Kind: CmdRemove, ID: id} }
func Drag(id models.EntityID, position physics.Vec2) Command {
	return Command{Kind: CmdDrag, ID: id, Position: position}
}

func Press(position physics.Vec2) Command { return Command{Kind: CmdPress, Position: position} }
func Release() Command                    { return Command{Kind: CmdRelease} }
func Step(dt float64) Command             { return Command{Kind: CmdStep, DT: dt} }
func Tilt(x, y float64) Command           { return Command{Kind: CmdTilt, Tilt: physics.V(x, y)} }

func Collisions(events ...physics.CollisionEvent) Command {
	return Command{Kind: CmdCollisions, Events: events}
}

// Reply is what a submitted command produced.
type Reply struct {
	Entity  models.Entity
	Results []resolver.Result
	Err     error
}

// LoopOptions configure a Loop.
type LoopOptions struct {
	// Stepper drives the engine on StepInterval. Step commands are rejected
	// without it.
	Stepper      physics.Stepper
	StepInterval time.Duration
	// LaunchInterval is the press-and-hold repeat rate.
	LaunchInterval time.Duration
	// Verify compares registry and engine ids after every step when the
	// stepper can list its bodies.
	Verify bool
	Buffer int
	Logger log.Log
}

type bodyLister interface {
	IDs() []physics.BodyID
}

// Loop is the single timeline of a game. Commands from every source (players,
// launcher ticks, the step ticker) go through one channel and are applied to
// the session in arrival order.
type Loop struct {
	session  *Session
	launcher *spawn.Launcher
	opts     LoopOptions
	commands chan Command
	done     chan struct{}
	running  atomic.Bool
	logger   log.Log

	// owned by the run goroutine
	runCtx    context.Context
	activeGen uint64
	pressAt   physics.Vec2
	steps     uint64
}

func NewLoop(session *Session, opts LoopOptions) *Loop {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	l := &Loop{
		session:  session,
		opts:     opts,
		commands: make(chan Command, opts.Buffer),
		done:     make(chan struct{}),
		logger:   opts.Logger.With(log.String("component", "loop"), log.String("session", session.ID())),
	}
	l.launcher = spawn.NewLauncher(opts.LaunchInterval, l.launch)
	return l
}

func (l *Loop) Session() *Session { return l.session }

// Enqueue queues cmd without waiting for it to be applied.
func (l *Loop) Enqueue(ctx context.Context, cmd Command) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.commands <- cmd:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues cmd and waits until the loop has applied it.
func (l *Loop) Submit(ctx context.Context, cmd Command) (Reply, error) {
	cmd.reply = make(chan Reply, 1)
	if err := l.Enqueue(ctx, cmd); err != nil {
		return Reply{}, err
	}
	select {
	case r := <-cmd.reply:
		return r, r.Err
	case <-l.done:
		return Reply{}, ErrLoopClosed
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Run drains commands until ctx is done. With a stepper and a step interval
// it also steps the engine on a ticker. A loop runs once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.drain(gctx) })
	if l.opts.Stepper != nil && l.opts.StepInterval > 0 {
		g.Go(func() error { return l.tick(gctx) })
	}

	l.logger.Info("game loop started")
	err := g.Wait()
	l.launcher.Release()
	l.logger.Info("game loop stopped", log.Uint64("steps", l.steps))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (l *Loop) drain(ctx context.Context) error {
	l.runCtx = ctx
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-l.commands:
			r := l.apply(cmd)
			if cmd.reply != nil {
				cmd.reply <- r
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.StepInterval)
	defer ticker.Stop()
	dt := l.opts.StepInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.Enqueue(ctx, Step(dt)); err != nil {
				return err
			}
		}
	}
}

// launch runs on the launcher goroutine.
func (l *Loop) launch(ctx context.Context, generation uint64) {
	_ = l.Enqueue(ctx, Command{Kind: cmdLaunch, generation: generation})
}

func (l *Loop) apply(cmd Command) Reply {
	var r Reply
	switch cmd.Kind {
	case CmdTap:
		r.Entity, r.Err = l.session.Tap(cmd.Position)
	case CmdRemove:
		r.Entity, r.Err = l.session.Remove(cmd.ID)
	case CmdDrag:
		r.Err = l.session.Drag(cmd.ID, cmd.Position)
	case CmdCollisions:
		r.Results, r.Err = l.session.HandleCollisions(cmd.Events)
	case CmdTilt:
		r.Err = l.session.Tilt(cmd.Tilt.X, cmd.Tilt.Y)
	case CmdPress:
		l.pressAt = cmd.Position
		if gen, started := l.launcher.Press(l.runCtx); started {
			l.activeGen = gen
		}
	case CmdRelease:
		l.launcher.Release()
		l.activeGen = 0
	case cmdLaunch:
		if cmd.generation != l.activeGen {
			return r
		}
		r.Entity, r.Err = l.session.Tap(l.pressAt)
	case CmdStep:
		r.Err = l.step(cmd.DT)
	default:
		r.Err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return r
}

func (l *Loop) step(dt float64) error {
	if l.opts.Stepper == nil {
		return fmt.Errorf("%w: no stepper configured", ErrUnknownCommand)
	}
	l.steps++
	report := l.opts.Stepper.Step(dt)
	err := l.session.ApplyStep(report)
	if lister, ok := l.opts.Stepper.(bodyLister); ok && l.opts.Verify {
		err = errors.Join(err, l.session.Verify(lister.IDs()))
	}
	l.session.publish(bus.TypeStepped, l.session.Snapshot())
	return err
}
