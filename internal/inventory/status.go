package inventory

// StockStatus classifies an inventory level against its low-stock threshold.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "IN_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// DeriveStockStatus classifies a stock quantity. It is total over all integer
// inputs: a transiently negative quantity is OUT_OF_STOCK, and a negative
// threshold behaves like zero.
func DeriveStockStatus(quantity, lowStockThreshold int) StockStatus {
	if quantity <= 0 {
		return StockStatusOutOfStock
	}
	if quantity <= lowStockThreshold {
		return StockStatusLowStock
	}
	return StockStatusInStock
}
