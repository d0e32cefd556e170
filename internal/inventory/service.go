package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Christian-Akor/enterprise-pos-system/internal/events"
	"github.com/Christian-Akor/enterprise-pos-system/internal/obs"
	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
)

// Change describes one stock mutation and the status transition it caused.
type Change struct {
	Product    repo.Product
	PrevStatus StockStatus
	NewStatus  StockStatus
}

// Crossed reports whether the mutation moved the product into a new status.
func (c Change) Crossed() bool { return c.PrevStatus != c.NewStatus }

// ApplyDelta mutates a product's stock quantity inside the caller's transaction.
// The row is locked first so concurrent sales on the same product serialize; the
// new status is derived from the resulting quantity. Products not tracking
// inventory are returned unchanged.
func ApplyDelta(ctx context.Context, db repo.DBTX, tenantID string, productID uuid.UUID, delta int) (Change, error) {
	products := repo.ProductsRepo{DB: db}
	p, err := products.GetForUpdate(ctx, tenantID, productID)
	if err != nil {
		return Change{}, err
	}
	prev := StockStatus(p.StockStatus)
	if !p.TrackInventory {
		return Change{Product: p, PrevStatus: prev, NewStatus: prev}, nil
	}
	p.StockQuantity += delta
	next := DeriveStockStatus(p.StockQuantity, p.LowStockThreshold)
	if err := products.UpdateStock(ctx, tenantID, productID, p.StockQuantity, string(next)); err != nil {
		return Change{}, err
	}
	p.StockStatus = string(next)
	return Change{Product: p, PrevStatus: prev, NewStatus: next}, nil
}

// Service exposes stock operations backed by the database.
type Service struct {
	Pool   *pgxpool.Pool
	Events *events.Bus
}

// Adjust applies a manual stock delta (stocktake correction, breakage, intake)
// and publishes a stock event when the product crosses its threshold.
func (s *Service) Adjust(ctx context.Context, tenantID string, productID uuid.UUID, delta int) (Change, error) {
	if s == nil || s.Pool == nil {
		return Change{}, errors.New("inventory: service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Change{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	change, err := ApplyDelta(ctx, tx, tenantID, productID, delta)
	if err != nil {
		return Change{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Change{}, fmt.Errorf("inventory: commit adjustment: %w", err)
	}

	PublishChange(ctx, s.Events, tenantID, change)
	return change, nil
}

// LowStock lists tenant products at or under their threshold.
func (s *Service) LowStock(ctx context.Context, tenantID string, limit int32) ([]repo.Product, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("inventory: service not configured")
	}
	return repo.ProductsRepo{DB: s.Pool}.ListLowStock(ctx, tenantID, limit)
}

// Get returns one product's stock snapshot.
func (s *Service) Get(ctx context.Context, tenantID string, productID uuid.UUID) (repo.Product, error) {
	if s == nil || s.Pool == nil {
		return repo.Product{}, errors.New("inventory: service not configured")
	}
	return repo.ProductsRepo{DB: s.Pool}.Get(ctx, tenantID, productID)
}

// PublishChange records the status transition metric and emits a stock event
// when a mutation crossed into LOW_STOCK or OUT_OF_STOCK.
func PublishChange(ctx context.Context, bus *events.Bus, tenantID string, change Change) {
	if !change.Crossed() {
		return
	}
	if obs.StockStatusTransitionsTotal != nil {
		obs.StockStatusTransitionsTotal.WithLabelValues(string(change.PrevStatus), string(change.NewStatus)).Inc()
	}
	var topic string
	switch change.NewStatus {
	case StockStatusLowStock:
		topic = events.TopicStockLow
	case StockStatusOutOfStock:
		topic = events.TopicStockOut
	default:
		return
	}
	if bus == nil {
		return
	}
	p := change.Product
	_, _ = bus.Emit(ctx, topic, tenantID, p.ID, map[string]any{
		"tenantId":  tenantID,
		"productId": p.ID,
		"sku":       p.SKU,
		"name":      p.Name,
		"quantity":  p.StockQuantity,
		"threshold": p.LowStockThreshold,
		"status":    p.StockStatus,
	})
}
