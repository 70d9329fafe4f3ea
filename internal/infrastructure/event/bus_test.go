package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
	panics   bool
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	if h.fail {
		return assert.AnError
	}
	h.received = append(h.received, evt)
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func testEvent(eventType string) shared.DomainEvent {
	evt := shared.NewBaseDomainEvent(eventType, "Order", uuid.New())
	return &evt
}

func TestInMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	paid := &recordingHandler{types: []string{"OrderPaid"}}
	cancelled := &recordingHandler{types: []string{"OrderCancelled"}}
	bus.Subscribe(paid)
	bus.Subscribe(cancelled)

	err := bus.Publish(context.Background(), testEvent("OrderPaid"))
	require.NoError(t, err)

	assert.Len(t, paid.received, 1)
	assert.Empty(t, cancelled.received)
}

func TestInMemoryEventBus_CatchAllHandlerSeesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	audit := &recordingHandler{}
	bus.Subscribe(audit)

	err := bus.Publish(context.Background(),
		testEvent("OrderPaid"),
		testEvent("WalletCredited"),
	)
	require.NoError(t, err)
	assert.Len(t, audit.received, 2)
}

func TestInMemoryEventBus_HandlerFailureDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"OrderPaid"}, fail: true}
	healthy := &recordingHandler{types: []string{"OrderPaid"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), testEvent("OrderPaid"))
	require.NoError(t, err)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"OrderPaid"}, panics: true}
	healthy := &recordingHandler{types: []string{"OrderPaid"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), testEvent("OrderPaid"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestAuditHandler_AcceptsAnyEvent(t *testing.T) {
	h := NewAuditHandler(zap.NewNop())
	assert.Empty(t, h.EventTypes())
	assert.NoError(t, h.Handle(context.Background(), testEvent("WalletDebited")))
}
