package events

import (
	"context"
	"fmt"

	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
)

// PGStore appends emitted events to the domain_events table.
type PGStore struct {
	DB repo.DBTX
}

func (s PGStore) InsertEvent(ctx context.Context, ev Event) error {
	const q = `INSERT INTO domain_events (id, topic, tenant_id, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.Exec(ctx, q, ev.ID, ev.Topic, ev.TenantID, ev.AggregateID, ev.Payload, ev.OccurredAt); err != nil {
		return fmt.Errorf("events: insert event: %w", err)
	}
	return nil
}
