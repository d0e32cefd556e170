package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLowStockAlertPostsWebhook(t *testing.T) {
	var received LowStockAlertPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := &Handler{Logger: zerolog.Nop(), WebhookURL: srv.URL, HTTPClient: srv.Client()}
	task, err := NewLowStockAlertTask(LowStockAlertPayload{
		TenantID:  "acme",
		ProductID: uuid.New(),
		SKU:       "ESP-001",
		Name:      "Espresso Beans",
		Quantity:  3,
		Threshold: 5,
		Status:    "LOW_STOCK",
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleLowStockAlert(context.Background(), task))
	assert.Equal(t, "ESP-001", received.SKU)
	assert.Equal(t, 3, received.Quantity)
}

func TestHandleLowStockAlertWebhookFailureRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := &Handler{Logger: zerolog.Nop(), WebhookURL: srv.URL, HTTPClient: srv.Client()}
	task, err := NewLowStockAlertTask(LowStockAlertPayload{ProductID: uuid.New()})
	require.NoError(t, err)
	assert.Error(t, h.HandleLowStockAlert(context.Background(), task))
}

func TestHandleLowStockAlertNoWebhookLogsOnly(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	task, err := NewLowStockAlertTask(LowStockAlertPayload{ProductID: uuid.New()})
	require.NoError(t, err)
	assert.NoError(t, h.HandleLowStockAlert(context.Background(), task))
}

func TestHandleReceiptEmail(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop(), FromEmail: "no-reply@pos.example.com"}
	task, err := NewReceiptEmailTask(ReceiptEmailPayload{
		TenantID: "acme",
		SaleID:   uuid.New(),
		Email:    "customer@example.com",
	})
	require.NoError(t, err)
	assert.NoError(t, h.HandleReceiptEmail(context.Background(), task))
}

func TestReceiptTaskRequiresSaleID(t *testing.T) {
	_, err := NewReceiptEmailTask(ReceiptEmailPayload{Email: "x@example.com"})
	assert.Error(t, err)
}

func TestHandlerRejectsGarbagePayload(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	bad := asynq.NewTask(TypeLowStockAlert, []byte("{"))
	assert.Error(t, h.HandleLowStockAlert(context.Background(), bad))
}
