package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []Event
	_, err := b.Subscribe(TypeSpawned, func(e Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent(TypeSpawned, "tester", Spawned{})))
	require.NoError(t, b.Publish(NewEvent(TypeMerged, "tester", Merged{})))
	require.Len(t, got, 1)
	require.Equal(t, TypeSpawned, got[0].Type)
	require.IsType(t, Spawned{}, got[0].Data)
}

func TestWildcardAndOrder(t *testing.T) {
	b := New()
	var order []string
	_, _ = b.Subscribe(WildcardType, func(e Event) error { order = append(order, "all:"+e.Type); return nil })
	_, _ = b.Subscribe(TypeMerged, func(e Event) error { order = append(order, "merged"); return nil })

	require.NoError(t, b.Publish(NewEvent(TypeMerged, "t", nil)))
	require.NoError(t, b.Publish(NewEvent(TypeRemoved, "t", nil)))
	require.Equal(t, []string{"all:" + TypeMerged, "merged", "all:" + TypeRemoved}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe(TypeRemoved, func(Event) error { count++; return nil })
	require.NoError(t, err)
	require.Equal(t, 1, b.Subscribers())

	_ = b.Publish(NewEvent(TypeRemoved, "t", nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.False(t, sub.IsActive())
	_ = b.Publish(NewEvent(TypeRemoved, "t", nil))

	require.Equal(t, 1, count)
	require.Zero(t, b.Subscribers())
	require.NoError(t, b.Unsubscribe(nil))
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1, e2 := errors.New("one"), errors.New("two")
	_, _ = b.Subscribe(TypeSyncFailed, func(Event) error { return e1 })
	_, _ = b.Subscribe(TypeSyncFailed, func(Event) error { return e2 })

	err := b.PublishBatch(NewEvent(TypeSyncFailed, "t", nil))
	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)
}

func TestSubscribeValidation(t *testing.T) {
	b := New()
	_, err := b.Subscribe("", func(Event) error { return nil })
	require.ErrorIs(t, err, ErrEmptyEventType)
	_, err = b.Subscribe(TypeMerged, nil)
	require.ErrorIs(t, err, ErrNilHandler)
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	require.Zero(t, b.GetMetrics().Published, "metrics should be zero without observers")

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	require.Equal(t, uint64(1), m.Published)
	require.Equal(t, uint64(1), m.DeliveredHandlers)
	require.Equal(t, 1, obs.publishCount)
	require.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	require.Equal(t, 1, obs.publishCount)
}
