package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type memStore struct {
	events []Event
}

func (m *memStore) InsertEvent(ctx context.Context, ev Event) error {
	m.events = append(m.events, ev)
	return nil
}

type recordingNotifier struct {
	topics []string
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, ev Event) error {
	n.topics = append(n.topics, ev.Topic)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	saleID := uuid.New()
	ev, err := bus.Emit(context.Background(), TopicSaleCompleted, "t1", saleID, map[string]any{"total": "38.00"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if ev.Topic != TopicSaleCompleted || ev.AggregateID != saleID || ev.TenantID != "t1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(store.events))
	}
	if len(notifier.topics) != 1 || notifier.topics[0] != TopicSaleCompleted {
		t.Fatalf("unexpected notifications: %v", notifier.topics)
	}
	var payload map[string]string
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload["total"] != "38.00" {
		t.Fatalf("unexpected payload: %s (%v)", ev.Payload, err)
	}
}

func TestEmitValidation(t *testing.T) {
	bus := &Bus{}
	if _, err := bus.Emit(context.Background(), "", "t1", uuid.New(), nil); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if _, err := bus.Emit(context.Background(), TopicStockLow, "t1", uuid.Nil, nil); err == nil {
		t.Fatal("expected error for nil aggregate id")
	}
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}
	bus := &Bus{Notifiers: []Notifier{failing, ok}}

	_, err := bus.Emit(context.Background(), TopicStockOut, "t1", uuid.New(), nil)
	if err == nil {
		t.Fatal("expected joined notifier error")
	}
	if len(ok.topics) != 1 {
		t.Fatal("remaining notifiers must still run")
	}
}
