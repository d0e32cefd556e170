package inventory

import "testing"

func TestDeriveStockStatus(t *testing.T) {
	cases := []struct {
		qty, threshold int
		want           StockStatus
	}{
		{0, 10, StockStatusOutOfStock},
		{-3, 10, StockStatusOutOfStock},
		{5, 10, StockStatusLowStock},
		{10, 10, StockStatusLowStock},
		{11, 10, StockStatusInStock},
		{50, 10, StockStatusInStock},
		{1, 0, StockStatusInStock},
		{1, -5, StockStatusInStock},
	}
	for _, tc := range cases {
		if got := DeriveStockStatus(tc.qty, tc.threshold); got != tc.want {
			t.Fatalf("qty=%d threshold=%d: expected %s, got %s", tc.qty, tc.threshold, tc.want, got)
		}
	}
}

func TestDeriveStockStatusTotality(t *testing.T) {
	for qty := -25; qty <= 25; qty++ {
		for threshold := 0; threshold <= 25; threshold++ {
			got := DeriveStockStatus(qty, threshold)
			switch got {
			case StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
			default:
				t.Fatalf("qty=%d threshold=%d: unknown status %q", qty, threshold, got)
			}
			if qty <= 0 && got != StockStatusOutOfStock {
				t.Fatalf("qty=%d: expected OUT_OF_STOCK, got %s", qty, got)
			}
		}
	}
}
