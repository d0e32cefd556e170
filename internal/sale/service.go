package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Christian-Akor/enterprise-pos-system/internal/events"
	"github.com/Christian-Akor/enterprise-pos-system/internal/inventory"
	"github.com/Christian-Akor/enterprise-pos-system/internal/obs"
	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
	"github.com/Christian-Akor/enterprise-pos-system/internal/settlement"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tasks"
)

// LineInput is one requested line of a new sale.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Discount  decimal.Decimal
}

// CreateInput is the request to capture a new sale.
type CreateInput struct {
	CashierID      uuid.UUID
	CustomerID     *uuid.UUID
	StoreID        *uuid.UUID
	PaymentMethod  string
	Lines          []LineInput
	DiscountAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	Deferred       bool
	ReceiptEmail   string
	Notes          *string
}

// Result is a captured or loaded sale with its lines.
type Result struct {
	Sale  repo.Sale
	Lines []repo.SaleLine
}

// Service captures, settles, and reverses sales. All money math is delegated to
// the settlement engine; the service owns transactions, stock movement, events,
// and background delivery.
type Service struct {
	Pool   *pgxpool.Pool
	Events *events.Bus
	Tasks  *tasks.Enqueuer
}

// Create settles and persists a new sale. Product price and tax rate are read
// from the locked product rows, never from the request, so a stale client
// cannot undercharge. Stock is decremented in the same transaction.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale: service not configured")
	}
	if len(in.Lines) == 0 {
		return Result{}, settlement.ErrEmptySale
	}
	if in.CashierID == uuid.Nil {
		return Result{}, errors.New("sale: cashier is required")
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	engineLines := make([]settlement.Line, 0, len(in.Lines))
	stockChanges := make([]inventory.Change, 0, len(in.Lines))
	for _, li := range in.Lines {
		change, err := inventory.ApplyDelta(ctx, tx, tenantID, li.ProductID, -li.Quantity)
		if err != nil {
			return Result{}, err
		}
		stockChanges = append(stockChanges, change)
		engineLines = append(engineLines, settlement.Line{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: change.Product.Price,
			TaxRate:   change.Product.TaxRate,
			Discount:  li.Discount,
		})
	}

	totals, err := settlement.ComputeTotals(engineLines, in.DiscountAmount, in.PaidAmount, settlement.Options{AllowDeferred: in.Deferred})
	if err != nil {
		countSettlementFailure(err)
		return Result{}, err
	}

	now := time.Now().UTC()
	sale := repo.Sale{
		ID:             uuid.New(),
		TenantID:       tenantID,
		SaleNumber:     newSaleNumber(now),
		CashierID:      in.CashierID,
		CustomerID:     in.CustomerID,
		StoreID:        in.StoreID,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: in.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		PaidAmount:     in.PaidAmount,
		ChangeAmount:   totals.ChangeAmount,
		PaymentMethod:  normalizePaymentMethod(in.PaymentMethod),
		Status:         string(initialStatus(totals, in.Deferred)),
		SaleDate:       now,
		Notes:          in.Notes,
	}

	salesRepo := repo.SalesRepo{DB: tx}
	if err := salesRepo.Insert(ctx, sale); err != nil {
		return Result{}, err
	}
	lines := make([]repo.SaleLine, 0, len(engineLines))
	for _, el := range engineLines {
		lt, err := settlement.ComputeLine(el)
		if err != nil {
			return Result{}, err
		}
		line := repo.SaleLine{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: el.ProductID,
			Quantity:  el.Quantity,
			UnitPrice: el.UnitPrice,
			TaxRate:   el.TaxRate,
			TaxAmount: lt.TaxAmount,
			Discount:  el.Discount,
			LineTotal: lt.LineTotal,
		}
		if err := salesRepo.InsertLine(ctx, line); err != nil {
			return Result{}, err
		}
		lines = append(lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("sale: commit: %w", err)
	}

	if obs.SalesSettledTotal != nil {
		obs.SalesSettledTotal.WithLabelValues(strings.ToLower(sale.Status)).Inc()
	}
	if s.Events != nil && sale.Status == string(settlement.StatusCompleted) {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCompleted, tenantID, sale.ID, map[string]any{
			"saleNumber": sale.SaleNumber,
			"total":      sale.TotalAmount.StringFixed(2),
			"paid":       sale.PaidAmount.StringFixed(2),
			"change":     sale.ChangeAmount.StringFixed(2),
		})
	}
	for _, change := range stockChanges {
		inventory.PublishChange(ctx, s.Events, tenantID, change)
	}
	if s.Tasks != nil && in.ReceiptEmail != "" {
		if task, err := tasks.NewReceiptEmailTask(tasks.ReceiptEmailPayload{
			TenantID: tenantID,
			SaleID:   sale.ID,
			Email:    in.ReceiptEmail,
		}); err == nil {
			_ = s.Tasks.Enqueue(ctx, task)
		}
	}

	return Result{Sale: sale, Lines: lines}, nil
}

// Complete settles a pending (deferred) sale once the balance is paid. Totals
// are recomputed from the stored lines in full; only payment figures and the
// status are written back.
func (s *Service) Complete(ctx context.Context, tenantID string, saleID uuid.UUID, paidAmount decimal.Decimal) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale: service not configured")
	}
	salesRepo := repo.SalesRepo{DB: s.Pool}
	sale, lines, err := salesRepo.Get(ctx, tenantID, saleID)
	if err != nil {
		return Result{}, err
	}

	totals, err := settlement.ComputeTotals(toEngineLines(lines), sale.DiscountAmount, paidAmount, settlement.Options{})
	if err != nil && !errors.Is(err, settlement.ErrInsufficientPayment) {
		countSettlementFailure(err)
		return Result{}, err
	}
	if err := settlement.ValidateTransition(settlement.TransitionInput{
		From:        settlement.Status(sale.Status),
		To:          settlement.StatusCompleted,
		PaidAmount:  paidAmount,
		TotalAmount: totals.TotalAmount,
	}); err != nil {
		countSettlementFailure(err)
		return Result{}, err
	}

	if err := salesRepo.UpdateSettlement(ctx, tenantID, saleID, paidAmount, totals.ChangeAmount, string(settlement.StatusCompleted)); err != nil {
		return Result{}, err
	}
	sale.PaidAmount = paidAmount
	sale.ChangeAmount = totals.ChangeAmount
	sale.Status = string(settlement.StatusCompleted)

	if obs.SalesSettledTotal != nil {
		obs.SalesSettledTotal.WithLabelValues("completed").Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCompleted, tenantID, sale.ID, map[string]any{
			"saleNumber": sale.SaleNumber,
			"total":      sale.TotalAmount.StringFixed(2),
			"paid":       sale.PaidAmount.StringFixed(2),
			"change":     sale.ChangeAmount.StringFixed(2),
		})
	}
	return Result{Sale: sale, Lines: lines}, nil
}

// Refund reverses a completed sale. An empty lineIDs slice means a full refund.
// The original sale's totals stay untouched; the adjustment is carried by a
// linked reversal record, and refunded quantities return to stock.
func (s *Service) Refund(ctx context.Context, tenantID string, saleID uuid.UUID, lineIDs []uuid.UUID) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale: service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	salesRepo := repo.SalesRepo{DB: tx}
	sale, lines, err := salesRepo.Get(ctx, tenantID, saleID)
	if err != nil {
		return Result{}, err
	}

	scope, err := refundScope(lines, lineIDs)
	if err != nil {
		return Result{}, err
	}
	if err := settlement.ValidateTransition(settlement.TransitionInput{
		From:          settlement.Status(sale.Status),
		To:            scope.Target,
		RefundedLines: len(scope.Lines),
		TotalLines:    len(lines),
	}); err != nil {
		countSettlementFailure(err)
		return Result{}, err
	}

	stockChanges := make([]inventory.Change, 0, len(scope.Lines))
	refundedIDs := make([]uuid.UUID, 0, len(scope.Lines))
	for _, l := range scope.Lines {
		change, err := inventory.ApplyDelta(ctx, tx, tenantID, l.ProductID, l.Quantity)
		if err != nil {
			return Result{}, err
		}
		stockChanges = append(stockChanges, change)
		refundedIDs = append(refundedIDs, l.ID)
	}
	if err := salesRepo.MarkLinesRefunded(ctx, saleID, refundedIDs); err != nil {
		return Result{}, err
	}
	if err := salesRepo.InsertReversal(ctx, repo.SaleReversal{
		ID:             uuid.New(),
		SaleID:         saleID,
		TenantID:       tenantID,
		Scope:          scope.Name,
		RefundedAmount: scope.Amount,
		LineIDs:        refundedIDs,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return Result{}, err
	}
	if err := salesRepo.UpdateStatus(ctx, tenantID, saleID, string(scope.Target)); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("sale: commit refund: %w", err)
	}

	sale.Status = string(scope.Target)
	if obs.RefundsTotal != nil {
		obs.RefundsTotal.WithLabelValues(strings.ToLower(scope.Name)).Inc()
	}
	if s.Events != nil {
		topic := events.TopicSaleRefunded
		if scope.Target == settlement.StatusPartiallyRefunded {
			topic = events.TopicSalePartialRefunded
		}
		_, _ = s.Events.Emit(ctx, topic, tenantID, sale.ID, map[string]any{
			"saleNumber":     sale.SaleNumber,
			"refundedAmount": scope.Amount.StringFixed(2),
			"refundedLines":  len(refundedIDs),
		})
	}
	for _, change := range stockChanges {
		inventory.PublishChange(ctx, s.Events, tenantID, change)
	}
	return Result{Sale: sale, Lines: lines}, nil
}

// Cancel voids a pending sale. Completed sales are refunded, never cancelled.
func (s *Service) Cancel(ctx context.Context, tenantID string, saleID uuid.UUID) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale: service not configured")
	}
	salesRepo := repo.SalesRepo{DB: s.Pool}
	sale, lines, err := salesRepo.Get(ctx, tenantID, saleID)
	if err != nil {
		return Result{}, err
	}
	if err := settlement.ValidateTransition(settlement.TransitionInput{
		From: settlement.Status(sale.Status),
		To:   settlement.StatusCancelled,
	}); err != nil {
		countSettlementFailure(err)
		return Result{}, err
	}
	if err := salesRepo.UpdateStatus(ctx, tenantID, saleID, string(settlement.StatusCancelled)); err != nil {
		return Result{}, err
	}
	sale.Status = string(settlement.StatusCancelled)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCancelled, tenantID, sale.ID, map[string]any{
			"saleNumber": sale.SaleNumber,
		})
	}
	return Result{Sale: sale, Lines: lines}, nil
}

// Get loads one sale with its lines.
func (s *Service) Get(ctx context.Context, tenantID string, saleID uuid.UUID) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale: service not configured")
	}
	sale, lines, err := repo.SalesRepo{DB: s.Pool}.Get(ctx, tenantID, saleID)
	if err != nil {
		return Result{}, err
	}
	return Result{Sale: sale, Lines: lines}, nil
}

// List returns a tenant's sales, newest first.
func (s *Service) List(ctx context.Context, tenantID string, limit, offset int32) ([]repo.Sale, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("sale: service not configured")
	}
	return repo.SalesRepo{DB: s.Pool}.List(ctx, tenantID, limit, offset)
}

func countSettlementFailure(err error) {
	if obs.SettlementFailuresTotal == nil {
		return
	}
	reason := "internal"
	switch {
	case errors.Is(err, settlement.ErrInvalidDiscount):
		reason = "invalid_discount"
	case errors.Is(err, settlement.ErrNegativeTotal):
		reason = "negative_total"
	case errors.Is(err, settlement.ErrInsufficientPayment):
		reason = "insufficient_payment"
	case errors.Is(err, settlement.ErrEmptySale):
		reason = "empty_sale"
	case errors.Is(err, settlement.ErrInvalidLine):
		reason = "invalid_line"
	case errors.Is(err, settlement.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, settlement.ErrInvalidRefundScope):
		reason = "invalid_refund_scope"
	}
	obs.SettlementFailuresTotal.WithLabelValues(reason).Inc()
}
