package bus

import (
	"time"

	"github.com/zeusync/suika/internal/core/observability/log"
)

// DefaultSlowDelivery is the handler time above which LogObserver warns.
const DefaultSlowDelivery = 5 * time.Millisecond

// LogObserver reports failed and slow deliveries. Registering it also turns
// on the bus metrics.
type LogObserver struct {
	logger log.Log
	slow   time.Duration
}

func NewLogObserver(logger log.Log, slow time.Duration) *LogObserver {
	if logger == nil {
		logger = log.NewNop()
	}
	if slow <= 0 {
		slow = DefaultSlowDelivery
	}
	return &LogObserver{logger: logger.With(log.String("component", "bus")), slow: slow}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	switch {
	case err != nil:
		o.logger.Warn("event handler failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
	case duration > o.slow:
		o.logger.Warn("slow event delivery",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Duration("duration", duration))
	}
}
