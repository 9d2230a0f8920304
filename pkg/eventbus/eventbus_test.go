package eventbus

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdEvent struct{ ID string }
type updatedEvent struct{ ID string }

func newTestBus() EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewEventPublisher(log)
}

func TestPublishDeliversToMatchingHandler(t *testing.T) {
	bus := newTestBus()

	var got *createdEvent
	bus.Subscribe(func(ev *createdEvent) { got = ev })

	bus.Publish(&createdEvent{ID: "abc"})
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.ID)
}

func TestPublishSkipsNonMatchingHandlers(t *testing.T) {
	bus := newTestBus()

	createdCalls := 0
	updatedCalls := 0
	bus.Subscribe(func(ev *createdEvent) { createdCalls++ })
	bus.Subscribe(func(ev *updatedEvent) { updatedCalls++ })

	bus.Publish(&updatedEvent{ID: "x"})
	assert.Equal(t, 0, createdCalls)
	assert.Equal(t, 1, updatedCalls)
}

func TestPublishWithContextArgument(t *testing.T) {
	bus := newTestBus()

	var gotCtx context.Context
	bus.Subscribe(func(ctx context.Context, ev *createdEvent) { gotCtx = ctx })

	type ctxKey string
	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	bus.Publish(ctx, &createdEvent{ID: "abc"})
	require.NotNil(t, gotCtx)
	assert.Equal(t, "v", gotCtx.Value(ctxKey("k")))
}

func TestPublishRecoversFromHandlerPanic(t *testing.T) {
	bus := newTestBus()

	secondCalled := false
	bus.Subscribe(func(ev *createdEvent) { panic("boom") })
	bus.Subscribe(func(ev *createdEvent) { secondCalled = true })

	require.NotPanics(t, func() { bus.Publish(&createdEvent{ID: "abc"}) })
	assert.True(t, secondCalled)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	calls := 0
	handler := func(ev *createdEvent) { calls++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())

	bus.Publish(&createdEvent{ID: "abc"})
	assert.Equal(t, 0, calls)
}

func TestSubscribeRejectsNonFunction(t *testing.T) {
	bus := newTestBus()
	require.Panics(t, func() { bus.Subscribe("not a function") })
}

func TestMatchSignature(t *testing.T) {
	handler := func(ctx context.Context, ev *createdEvent) {}

	assert.True(t, MatchSignature(handler, []interface{}{context.Background(), &createdEvent{}}))
	assert.False(t, MatchSignature(handler, []interface{}{&createdEvent{}}))
	assert.False(t, MatchSignature(handler, []interface{}{context.Background(), &updatedEvent{}}))
	assert.False(t, MatchSignature("nope", []interface{}{}))
}
