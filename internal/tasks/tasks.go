package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names routed through the asynq worker.
const (
	TypeReceiptEmail  = "receipt:email"
	TypeLowStockAlert = "stock:low_alert"
)

// ReceiptEmailPayload carries what the worker needs to render and send a receipt.
type ReceiptEmailPayload struct {
	TenantID string    `json:"tenantId"`
	SaleID   uuid.UUID `json:"saleId"`
	Email    string    `json:"email"`
}

// LowStockAlertPayload describes a product that crossed its stock threshold.
type LowStockAlertPayload struct {
	TenantID  string    `json:"tenantId"`
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	Status    string    `json:"status"`
}

// NewReceiptEmailTask builds the asynq task for receipt delivery.
func NewReceiptEmailTask(p ReceiptEmailPayload) (*asynq.Task, error) {
	if p.SaleID == uuid.Nil {
		return nil, errors.New("tasks: sale id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode receipt payload: %w", err)
	}
	return asynq.NewTask(TypeReceiptEmail, data, asynq.MaxRetry(5)), nil
}

// NewLowStockAlertTask builds the asynq task for a low/out-of-stock alert.
func NewLowStockAlertTask(p LowStockAlertPayload) (*asynq.Task, error) {
	if p.ProductID == uuid.Nil {
		return nil, errors.New("tasks: product id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, data, asynq.MaxRetry(3), asynq.Queue("alerts")), nil
}

// Enqueuer publishes tasks to the asynq queue.
type Enqueuer struct {
	Client *asynq.Client
}

// Enqueue submits the task, keeping enqueue failures local to the caller.
func (e Enqueuer) Enqueue(ctx context.Context, t *asynq.Task) error {
	if e.Client == nil {
		return errors.New("tasks: asynq client not configured")
	}
	_, err := e.Client.EnqueueContext(ctx, t)
	return err
}
