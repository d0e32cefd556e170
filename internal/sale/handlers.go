package sale

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
	"github.com/Christian-Akor/enterprise-pos-system/internal/settlement"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

// Ops is the sale service surface the HTTP layer depends on.
type Ops interface {
	Create(ctx context.Context, tenantID string, in CreateInput) (Result, error)
	Complete(ctx context.Context, tenantID string, saleID uuid.UUID, paidAmount decimal.Decimal) (Result, error)
	Refund(ctx context.Context, tenantID string, saleID uuid.UUID, lineIDs []uuid.UUID) (Result, error)
	Cancel(ctx context.Context, tenantID string, saleID uuid.UUID) (Result, error)
	Get(ctx context.Context, tenantID string, saleID uuid.UUID) (Result, error)
	List(ctx context.Context, tenantID string, limit, offset int32) ([]repo.Sale, error)
}

// Handler exposes sale endpoints.
type Handler struct {
	Svc      Ops
	Validate *validator.Validate
}

type lineRequest struct {
	ProductID string          `json:"productId" validate:"required,uuid4"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Discount  decimal.Decimal `json:"discount"`
}

type createRequest struct {
	CashierID      string          `json:"cashierId" validate:"required,uuid4"`
	CustomerID     *string         `json:"customerId" validate:"omitempty,uuid4"`
	StoreID        *string         `json:"storeId" validate:"omitempty,uuid4"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required"`
	Lines          []lineRequest   `json:"lines" validate:"required,min=1,dive"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Deferred       bool            `json:"deferred"`
	ReceiptEmail   string          `json:"receiptEmail" validate:"omitempty,email"`
	Notes          *string         `json:"notes"`
}

type completeRequest struct {
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

type refundRequest struct {
	LineIDs []string `json:"lineIds" validate:"omitempty,dive,uuid4"`
}

type lineResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unitPrice"`
	TaxRate   string    `json:"taxRate"`
	TaxAmount string    `json:"taxAmount"`
	Discount  string    `json:"discount"`
	LineTotal string    `json:"lineTotal"`
	Refunded  bool      `json:"refunded"`
}

type saleResponse struct {
	ID             uuid.UUID      `json:"id"`
	SaleNumber     string         `json:"saleNumber"`
	Status         string         `json:"status"`
	Subtotal       string         `json:"subtotal"`
	TaxAmount      string         `json:"taxAmount"`
	DiscountAmount string         `json:"discountAmount"`
	TotalAmount    string         `json:"totalAmount"`
	PaidAmount     string         `json:"paidAmount"`
	ChangeAmount   string         `json:"changeAmount"`
	PaymentMethod  string         `json:"paymentMethod"`
	SaleDate       time.Time      `json:"saleDate"`
	Lines          []lineResponse `json:"lines,omitempty"`
}

func toSaleResponse(res Result) saleResponse {
	out := saleResponse{
		ID:             res.Sale.ID,
		SaleNumber:     res.Sale.SaleNumber,
		Status:         res.Sale.Status,
		Subtotal:       res.Sale.Subtotal.StringFixed(2),
		TaxAmount:      res.Sale.TaxAmount.StringFixed(2),
		DiscountAmount: res.Sale.DiscountAmount.StringFixed(2),
		TotalAmount:    res.Sale.TotalAmount.StringFixed(2),
		PaidAmount:     res.Sale.PaidAmount.StringFixed(2),
		ChangeAmount:   res.Sale.ChangeAmount.StringFixed(2),
		PaymentMethod:  res.Sale.PaymentMethod,
		SaleDate:       res.Sale.SaleDate,
	}
	for _, l := range res.Lines {
		out.Lines = append(out.Lines, lineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			TaxRate:   l.TaxRate.String(),
			TaxAmount: l.TaxAmount.StringFixed(2),
			Discount:  l.Discount.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
			Refunded:  l.Refunded,
		})
	}
	return out
}

// Create captures a new sale.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	in, err := payload.toInput()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	res, err := h.Svc.Create(r.Context(), tenantID, in)
	if err != nil {
		h.renderSaleError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toSaleResponse(res)})
}

// Complete settles a pending sale.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	tenantID, saleID, ok := h.saleScope(w, r)
	if !ok {
		return
	}
	var payload completeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	res, err := h.Svc.Complete(r.Context(), tenantID, saleID, payload.PaidAmount)
	if err != nil {
		h.renderSaleError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSaleResponse(res)})
}

// Refund reverses a sale, fully or for a subset of lines.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	tenantID, saleID, ok := h.saleScope(w, r)
	if !ok {
		return
	}
	var payload refundRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
			return
		}
	}
	lineIDs := make([]uuid.UUID, 0, len(payload.LineIDs))
	for _, raw := range payload.LineIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid line id", nil)
			return
		}
		lineIDs = append(lineIDs, id)
	}
	res, err := h.Svc.Refund(r.Context(), tenantID, saleID, lineIDs)
	if err != nil {
		h.renderSaleError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSaleResponse(res)})
}

// Cancel voids a pending sale.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, saleID, ok := h.saleScope(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Cancel(r.Context(), tenantID, saleID)
	if err != nil {
		h.renderSaleError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSaleResponse(res)})
}

// Get returns one sale with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, saleID, ok := h.saleScope(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Get(r.Context(), tenantID, saleID)
	if err != nil {
		h.renderSaleError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSaleResponse(res)})
}

// List returns a page of the tenant's sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)
	sales, err := h.Svc.List(r.Context(), tenantID, limit, offset)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(Result{Sale: s}))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "limit": limit, "offset": offset})
}

func (h *Handler) saleScope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return "", uuid.Nil, false
	}
	saleID, err := uuid.Parse(chi.URLParam(r, "saleID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return "", uuid.Nil, false
	}
	return tenantID, saleID, true
}

func (h *Handler) renderSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
	case errors.Is(err, settlement.ErrInvalidDiscount),
		errors.Is(err, settlement.ErrNegativeTotal),
		errors.Is(err, settlement.ErrInsufficientPayment),
		errors.Is(err, settlement.ErrEmptySale),
		errors.Is(err, settlement.ErrInvalidLine),
		errors.Is(err, settlement.ErrInvalidTransition),
		errors.Is(err, settlement.ErrInvalidRefundScope):
		common.RenderError(w, common.FromSettlementError(err))
	default:
		common.RenderError(w, err)
	}
}

func (p createRequest) toInput() (CreateInput, error) {
	cashierID, err := uuid.Parse(p.CashierID)
	if err != nil {
		return CreateInput{}, errors.New("invalid cashier id")
	}
	in := CreateInput{
		CashierID:      cashierID,
		PaymentMethod:  p.PaymentMethod,
		DiscountAmount: p.DiscountAmount,
		PaidAmount:     p.PaidAmount,
		Deferred:       p.Deferred,
		ReceiptEmail:   p.ReceiptEmail,
		Notes:          p.Notes,
	}
	if p.CustomerID != nil {
		id, err := uuid.Parse(*p.CustomerID)
		if err != nil {
			return CreateInput{}, errors.New("invalid customer id")
		}
		in.CustomerID = &id
	}
	if p.StoreID != nil {
		id, err := uuid.Parse(*p.StoreID)
		if err != nil {
			return CreateInput{}, errors.New("invalid store id")
		}
		in.StoreID = &id
	}
	for _, lr := range p.Lines {
		productID, err := uuid.Parse(lr.ProductID)
		if err != nil {
			return CreateInput{}, errors.New("invalid product id")
		}
		in.Lines = append(in.Lines, LineInput{
			ProductID: productID,
			Quantity:  lr.Quantity,
			Discount:  lr.Discount,
		})
	}
	return in, nil
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return fallback
	}
	return int32(v)
}
