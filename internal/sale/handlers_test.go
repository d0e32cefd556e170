package sale

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
	"github.com/Christian-Akor/enterprise-pos-system/internal/settlement"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

type stubOps struct {
	createIn  *CreateInput
	refundIDs []uuid.UUID
	result    Result
	err       error
}

func (s *stubOps) Create(_ context.Context, _ string, in CreateInput) (Result, error) {
	s.createIn = &in
	return s.result, s.err
}

func (s *stubOps) Complete(context.Context, string, uuid.UUID, decimal.Decimal) (Result, error) {
	return s.result, s.err
}

func (s *stubOps) Refund(_ context.Context, _ string, _ uuid.UUID, lineIDs []uuid.UUID) (Result, error) {
	s.refundIDs = lineIDs
	return s.result, s.err
}

func (s *stubOps) Cancel(context.Context, string, uuid.UUID) (Result, error) {
	return s.result, s.err
}

func (s *stubOps) Get(context.Context, string, uuid.UUID) (Result, error) {
	return s.result, s.err
}

func (s *stubOps) List(context.Context, string, int32, int32) ([]repo.Sale, error) {
	return []repo.Sale{s.result.Sale}, s.err
}

func saleResult() Result {
	price := decimal.RequireFromString("10.00")
	return Result{
		Sale: repo.Sale{
			ID:            uuid.New(),
			SaleNumber:    "S-20260301-DEADBEEF",
			Status:        string(settlement.StatusCompleted),
			Subtotal:      decimal.RequireFromString("30.00"),
			TaxAmount:     decimal.RequireFromString("3.00"),
			TotalAmount:   decimal.RequireFromString("33.00"),
			PaidAmount:    decimal.RequireFromString("40.00"),
			ChangeAmount:  decimal.RequireFromString("7.00"),
			PaymentMethod: "CASH",
			SaleDate:      time.Now().UTC(),
		},
		Lines: []repo.SaleLine{{
			ID:        uuid.New(),
			ProductID: uuid.New(),
			Quantity:  3,
			UnitPrice: price,
			TaxRate:   decimal.RequireFromString("10"),
			TaxAmount: decimal.RequireFromString("3.00"),
			LineTotal: decimal.RequireFromString("33.00"),
		}},
	}
}

func saleRouter(h *Handler, tenantID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenant.WithTenant(req.Context(), tenantID)))
		})
	})
	r.Post("/sales", h.Create)
	r.Post("/sales/{saleID}/complete", h.Complete)
	r.Post("/sales/{saleID}/refund", h.Refund)
	r.Post("/sales/{saleID}/cancel", h.Cancel)
	r.Get("/sales/{saleID}", h.Get)
	r.Get("/sales", h.List)
	return r
}

func TestCreateHandlerParsesPayload(t *testing.T) {
	stub := &stubOps{result: saleResult()}
	h := &Handler{Svc: stub, Validate: validator.New()}
	router := saleRouter(h, "acme")

	productID := uuid.New()
	body := `{
		"cashierId": "` + uuid.New().String() + `",
		"paymentMethod": "cash",
		"paidAmount": "40.00",
		"lines": [{"productId": "` + productID.String() + `", "quantity": 3, "discount": "0"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, stub.createIn)
	assert.Equal(t, productID, stub.createIn.Lines[0].ProductID)
	assert.Equal(t, 3, stub.createIn.Lines[0].Quantity)
	assert.True(t, stub.createIn.PaidAmount.Equal(decimal.RequireFromString("40.00")))

	var resp struct {
		Data saleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "33.00", resp.Data.TotalAmount)
	assert.Equal(t, "7.00", resp.Data.ChangeAmount)
	assert.Len(t, resp.Data.Lines, 1)
}

func TestCreateHandlerRejectsEmptyLines(t *testing.T) {
	stub := &stubOps{result: saleResult()}
	h := &Handler{Svc: stub, Validate: validator.New()}
	router := saleRouter(h, "acme")

	body := `{"cashierId": "` + uuid.New().String() + `", "paymentMethod": "cash", "lines": []}`
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, stub.createIn)
}

func TestCompleteHandlerMapsInvalidTransition(t *testing.T) {
	stub := &stubOps{err: settlement.ErrInvalidTransition}
	h := &Handler{Svc: stub}
	router := saleRouter(h, "acme")

	req := httptest.NewRequest(http.MethodPost, "/sales/"+uuid.New().String()+"/complete", strings.NewReader(`{"paidAmount":"10.00"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
}

func TestRefundHandlerForwardsLineIDs(t *testing.T) {
	stub := &stubOps{result: saleResult()}
	h := &Handler{Svc: stub}
	router := saleRouter(h, "acme")

	lineID := uuid.New()
	body := `{"lineIds": ["` + lineID.String() + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/sales/"+uuid.New().String()+"/refund", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, stub.refundIDs, 1)
	assert.Equal(t, lineID, stub.refundIDs[0])
}

func TestRefundHandlerEmptyBodyMeansFullRefund(t *testing.T) {
	stub := &stubOps{result: saleResult()}
	h := &Handler{Svc: stub}
	router := saleRouter(h, "acme")

	req := httptest.NewRequest(http.MethodPost, "/sales/"+uuid.New().String()+"/refund", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, stub.refundIDs)
}

func TestGetHandlerNotFound(t *testing.T) {
	stub := &stubOps{err: repo.ErrNotFound}
	h := &Handler{Svc: stub}
	router := saleRouter(h, "acme")

	req := httptest.NewRequest(http.MethodGet, "/sales/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlersRequireTenant(t *testing.T) {
	h := &Handler{Svc: &stubOps{result: saleResult()}}
	r := chi.NewRouter()
	r.Get("/sales", h.List)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
