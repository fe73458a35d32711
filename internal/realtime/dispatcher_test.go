package realtime

import (
	"encoding/json"
	"testing"

	"github.com/studyhub/client/internal/models"
)

func TestDispatchFanOutInOrder(t *testing.T) {
	d := NewDispatcher()

	var order []int
	d.On(models.EventNewMessage, func(json.RawMessage) { order = append(order, 1) })
	d.On(models.EventNewMessage, func(json.RawMessage) { order = append(order, 2) })
	d.On(models.EventNewMessage, func(json.RawMessage) { order = append(order, 3) })

	d.Dispatch(models.EventNewMessage, json.RawMessage(`{}`))

	if len(order) != 3 {
		t.Fatalf("Expected 3 handlers invoked, got %d", len(order))
	}
	for i, got := range order {
		if got != i+1 {
			t.Errorf("Expected handler %d at position %d, got %d", i+1, i, got)
		}
	}
}

func TestDispatchDeliversPayload(t *testing.T) {
	d := NewDispatcher()

	var got string
	d.On(models.EventTypingIndicator, func(data json.RawMessage) {
		got = string(data)
	})

	payload := `{"senderId":7,"isTyping":true}`
	d.Dispatch(models.EventTypingIndicator, json.RawMessage(payload))

	if got != payload {
		t.Errorf("Expected payload %s, got %s", payload, got)
	}
}

func TestDispatchIgnoresOtherEvents(t *testing.T) {
	d := NewDispatcher()

	called := false
	d.On(models.EventNewMessage, func(json.RawMessage) { called = true })

	d.Dispatch(models.EventUserStatus, json.RawMessage(`{}`))

	if called {
		t.Error("Handler for NEW_MESSAGE should not fire for USER_STATUS")
	}
}

func TestRegistrationOff(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	reg := d.On(models.EventNewMessage, func(json.RawMessage) { calls++ })
	keep := 0
	d.On(models.EventNewMessage, func(json.RawMessage) { keep++ })

	d.Dispatch(models.EventNewMessage, json.RawMessage(`{}`))
	reg.Off()
	d.Dispatch(models.EventNewMessage, json.RawMessage(`{}`))

	if calls != 1 {
		t.Errorf("Expected removed handler to fire once, got %d", calls)
	}
	if keep != 2 {
		t.Errorf("Expected remaining handler to fire twice, got %d", keep)
	}
	if d.HandlerCount(models.EventNewMessage) != 1 {
		t.Errorf("Expected 1 handler left, got %d", d.HandlerCount(models.EventNewMessage))
	}
}

func TestRegistrationOffTwice(t *testing.T) {
	d := NewDispatcher()

	reg := d.On(models.EventNewMessage, func(json.RawMessage) {})
	d.On(models.EventNewMessage, func(json.RawMessage) {})

	reg.Off()
	reg.Off()

	if d.HandlerCount(models.EventNewMessage) != 1 {
		t.Errorf("Expected 1 handler after double Off, got %d", d.HandlerCount(models.EventNewMessage))
	}
}

func TestDuplicateHandlersAreIndependent(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	fn := func(json.RawMessage) { calls++ }
	first := d.On(models.EventNewMessage, fn)
	d.On(models.EventNewMessage, fn)

	first.Off()
	d.Dispatch(models.EventNewMessage, json.RawMessage(`{}`))

	if calls != 1 {
		t.Errorf("Expected the second registration of the same func to survive, got %d calls", calls)
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	d := NewDispatcher()

	after := false
	d.On(models.EventNewMessage, func(json.RawMessage) { panic("boom") })
	d.On(models.EventNewMessage, func(json.RawMessage) { after = true })

	d.Dispatch(models.EventNewMessage, json.RawMessage(`{}`))

	if !after {
		t.Error("Handler after a panicking one should still run")
	}
}

func TestClear(t *testing.T) {
	d := NewDispatcher()

	d.On(models.EventNewMessage, func(json.RawMessage) {})
	d.On(models.EventUserStatus, func(json.RawMessage) {})
	d.Clear()

	if d.HandlerCount(models.EventNewMessage) != 0 {
		t.Error("Expected no NEW_MESSAGE handlers after Clear")
	}
	if d.HandlerCount(models.EventUserStatus) != 0 {
		t.Error("Expected no USER_STATUS handlers after Clear")
	}
}
