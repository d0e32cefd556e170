package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Christian-Akor/enterprise-pos-system/internal/events"
)

// EventNotifier converts emitted domain events into background tasks.
// It implements events.Notifier so the bus fans out to the queue.
type EventNotifier struct {
	Enqueuer Enqueuer
}

// Notify maps stock threshold events onto low-stock alert tasks. Other topics
// are ignored; receipt delivery is enqueued explicitly by the sale service.
func (n EventNotifier) Notify(ctx context.Context, ev events.Event) error {
	switch ev.Topic {
	case events.TopicStockLow, events.TopicStockOut:
	default:
		return nil
	}
	var p LowStockAlertPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return fmt.Errorf("tasks: decode stock event: %w", err)
	}
	if p.TenantID == "" {
		p.TenantID = ev.TenantID
	}
	task, err := NewLowStockAlertTask(p)
	if err != nil {
		return err
	}
	return n.Enqueuer.Enqueue(ctx, task)
}
