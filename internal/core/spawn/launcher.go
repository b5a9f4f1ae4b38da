package spawn

import (
	"context"
	"sync"
	"time"
)

// DefaultLaunchInterval is the repeat rate while the launcher is held.
const DefaultLaunchInterval = 100 * time.Millisecond

// FireFunc is called on every launcher tick. ctx is cancelled on release, so
// implementations that block must select on it.
type FireFunc func(ctx context.Context, generation uint64)

// Launcher fires repeatedly while held: once on press, then every interval
// until release. Each press gets a new generation number so consumers can
// drop ticks that belong to an earlier hold.
type Launcher struct {
	mu         sync.Mutex
	interval   time.Duration
	fire       FireFunc
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewLauncher(interval time.Duration, fire FireFunc) *Launcher {
	if interval <= 0 {
		interval = DefaultLaunchInterval
	}
	return &Launcher{interval: interval, fire: fire}
}

// Press starts firing. It reports the generation of the active hold and
// whether this call started it; pressing while held changes nothing.
func (l *Launcher) Press(ctx context.Context) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return l.generation, false
	}
	l.generation++
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	go l.run(runCtx, l.generation, done)
	return l.generation, true
}

// Release stops firing. When it returns no further fire call will start.
func (l *Launcher) Release() bool {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

func (l *Launcher) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Launcher) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

func (l *Launcher) Interval() time.Duration { return l.interval }

func (l *Launcher) run(ctx context.Context, generation uint64, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		l.fire(ctx, generation)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
