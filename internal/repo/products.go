package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a tenant-scoped row does not exist.
var ErrNotFound = errors.New("repo: not found")

// Product is the stock-and-price snapshot of a catalog product.
type Product struct {
	ID                uuid.UUID
	TenantID          string
	SKU               string
	Name              string
	Price             decimal.Decimal
	TaxRate           decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
	StockStatus       string
	TrackInventory    bool
}

// ProductsRepo persists product rows. Every query is tenant scoped.
type ProductsRepo struct {
	DB DBTX
}

const productColumns = `id, tenant_id, sku, name, price, tax_rate, stock_quantity, low_stock_threshold, stock_status, track_inventory`

// Get loads one product within the tenant.
func (r ProductsRepo) Get(ctx context.Context, tenantID string, id uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(ctx, query, tenantID, id)
}

// GetForUpdate loads one product and takes a row lock, serializing concurrent
// stock mutations on the same product.
func (r ProductsRepo) GetForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	return r.scanOne(ctx, query, tenantID, id)
}

func (r ProductsRepo) scanOne(ctx context.Context, query string, args ...any) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Price, &p.TaxRate,
		&p.StockQuantity, &p.LowStockThreshold, &p.StockStatus, &p.TrackInventory,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("load product: %w", err)
	}
	return p, nil
}

// UpdateStock writes a new stock quantity and derived status for a product.
func (r ProductsRepo) UpdateStock(ctx context.Context, tenantID string, id uuid.UUID, quantity int, status string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE products SET stock_quantity = $3, stock_status = $4, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, quantity, status,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLowStock returns tenant products whose status is LOW_STOCK or OUT_OF_STOCK.
func (r ProductsRepo) ListLowStock(ctx context.Context, tenantID string, limit int32) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND stock_status IN ('LOW_STOCK', 'OUT_OF_STOCK') AND track_inventory
		 ORDER BY stock_quantity ASC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Price, &p.TaxRate,
			&p.StockQuantity, &p.LowStockThreshold, &p.StockStatus, &p.TrackInventory,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
