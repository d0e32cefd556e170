package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Sale is the persisted header of one sale.
type Sale struct {
	ID             uuid.UUID
	TenantID       string
	SaleNumber     string
	CashierID      uuid.UUID
	CustomerID     *uuid.UUID
	StoreID        *uuid.UUID
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	ChangeAmount   decimal.Decimal
	PaymentMethod  string
	Status         string
	SaleDate       time.Time
	Notes          *string
}

// SaleLine is one persisted line item of a sale.
type SaleLine struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
	Discount  decimal.Decimal
	LineTotal decimal.Decimal
	Refunded  bool
}

// SaleReversal records the adjustment carried by a full or partial refund.
// Totals on a COMPLETED sale are immutable; reversals are linked rows.
type SaleReversal struct {
	ID             uuid.UUID
	SaleID         uuid.UUID
	TenantID       string
	Scope          string // "FULL" or "PARTIAL"
	RefundedAmount decimal.Decimal
	LineIDs        []uuid.UUID
	CreatedAt      time.Time
}

// SalesRepo persists sale aggregates. Every query is tenant scoped.
type SalesRepo struct {
	DB DBTX
}

// Insert writes the sale header.
func (r SalesRepo) Insert(ctx context.Context, s Sale) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO sales (
			id, tenant_id, sale_number, cashier_id, customer_id, store_id,
			subtotal, tax_amount, discount_amount, total_amount, paid_amount, change_amount,
			payment_method, status, sale_date, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		s.ID, s.TenantID, s.SaleNumber, s.CashierID, s.CustomerID, s.StoreID,
		s.Subtotal, s.TaxAmount, s.DiscountAmount, s.TotalAmount, s.PaidAmount, s.ChangeAmount,
		s.PaymentMethod, s.Status, s.SaleDate, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// InsertLine writes one line item.
func (r SalesRepo) InsertLine(ctx context.Context, l SaleLine) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, tax_rate, tax_amount, discount, line_total, refunded)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.TaxRate, l.TaxAmount, l.Discount, l.LineTotal, l.Refunded,
	)
	if err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}
	return nil
}

const saleColumns = `id, tenant_id, sale_number, cashier_id, customer_id, store_id,
	subtotal, tax_amount, discount_amount, total_amount, paid_amount, change_amount,
	payment_method, status, sale_date, notes`

// Get loads one sale header and its lines.
func (r SalesRepo) Get(ctx context.Context, tenantID string, id uuid.UUID) (Sale, []SaleLine, error) {
	var s Sale
	err := r.DB.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&s.ID, &s.TenantID, &s.SaleNumber, &s.CashierID, &s.CustomerID, &s.StoreID,
		&s.Subtotal, &s.TaxAmount, &s.DiscountAmount, &s.TotalAmount, &s.PaidAmount, &s.ChangeAmount,
		&s.PaymentMethod, &s.Status, &s.SaleDate, &s.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, nil, ErrNotFound
	}
	if err != nil {
		return Sale{}, nil, fmt.Errorf("load sale: %w", err)
	}

	lines, err := r.Lines(ctx, id)
	if err != nil {
		return Sale{}, nil, err
	}
	return s, lines, nil
}

// Lines loads the line items of a sale in insertion order.
func (r SalesRepo) Lines(ctx context.Context, saleID uuid.UUID) ([]SaleLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price, tax_rate, tax_amount, discount, line_total, refunded
		 FROM sale_items WHERE sale_id = $1 ORDER BY created_at, id`,
		saleID,
	)
	if err != nil {
		return nil, fmt.Errorf("load sale lines: %w", err)
	}
	defer rows.Close()

	var lines []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.TaxRate, &l.TaxAmount, &l.Discount, &l.LineTotal, &l.Refunded); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns a tenant's sales, newest first.
func (r SalesRepo) List(ctx context.Context, tenantID string, limit, offset int32) ([]Sale, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE tenant_id = $1 ORDER BY sale_date DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.SaleNumber, &s.CashierID, &s.CustomerID, &s.StoreID,
			&s.Subtotal, &s.TaxAmount, &s.DiscountAmount, &s.TotalAmount, &s.PaidAmount, &s.ChangeAmount,
			&s.PaymentMethod, &s.Status, &s.SaleDate, &s.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateStatus moves a sale to a new lifecycle status.
func (r SalesRepo) UpdateStatus(ctx context.Context, tenantID string, id uuid.UUID, status string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE sales SET status = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status,
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSettlement replaces a pending sale's payment figures and status in one
// write, keeping the four computed outputs consistent with each other.
func (r SalesRepo) UpdateSettlement(ctx context.Context, tenantID string, id uuid.UUID, paid, change decimal.Decimal, status string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE sales SET paid_amount = $3, change_amount = $4, status = $5, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, paid, change, status,
	)
	if err != nil {
		return fmt.Errorf("update sale settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkLinesRefunded flags the given line items as refunded.
func (r SalesRepo) MarkLinesRefunded(ctx context.Context, saleID uuid.UUID, lineIDs []uuid.UUID) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE sale_items SET refunded = true WHERE sale_id = $1 AND id = ANY($2)`,
		saleID, lineIDs,
	)
	if err != nil {
		return fmt.Errorf("mark lines refunded: %w", err)
	}
	return nil
}

// InsertReversal records a refund adjustment linked to the original sale.
func (r SalesRepo) InsertReversal(ctx context.Context, rv SaleReversal) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO sale_reversals (id, sale_id, tenant_id, scope, refunded_amount, line_ids, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rv.ID, rv.SaleID, rv.TenantID, rv.Scope, rv.RefundedAmount, rv.LineIDs, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale reversal: %w", err)
	}
	return nil
}
