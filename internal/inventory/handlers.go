package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

// Handler exposes stock endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type adjustRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type stockResponse struct {
	ProductID   uuid.UUID `json:"productId"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
	StockStatus string    `json:"stockStatus"`
}

func toStockResponse(p repo.Product) stockResponse {
	return stockResponse{
		ProductID:   p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Quantity:    p.StockQuantity,
		Threshold:   p.LowStockThreshold,
		StockStatus: p.StockStatus,
	}
}

// Adjust applies a manual stock delta to a product.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var payload adjustRequest
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
	change, err := h.Svc.Adjust(r.Context(), tenantID, productID, payload.Delta)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toStockResponse(change.Product)})
}

// Get returns one product's stock snapshot with its derived status.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	p, err := h.Svc.Get(r.Context(), tenantID, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toStockResponse(p)})
}

// LowStock lists products at or below their thresholds.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	products, err := h.Svc.LowStock(r.Context(), tenantID, 100)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]stockResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toStockResponse(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
