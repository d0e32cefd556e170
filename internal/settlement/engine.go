package settlement

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidDiscount is returned when a discount exceeds the amount it discounts.
	ErrInvalidDiscount = errors.New("settlement: discount exceeds discounted amount")
	// ErrNegativeTotal is returned when the sale total would be negative after the sale-level discount.
	ErrNegativeTotal = errors.New("settlement: total amount would be negative")
	// ErrInsufficientPayment reports that the tendered amount is below the total due.
	// Totals are still returned alongside it; rejecting or deferring is the caller's policy.
	ErrInsufficientPayment = errors.New("settlement: paid amount below total due")
	// ErrEmptySale is returned when totals are requested for a sale with no line items.
	ErrEmptySale = errors.New("settlement: sale has no line items")
	// ErrInvalidLine is returned for a line with non-positive quantity or negative price, tax rate, or discount.
	ErrInvalidLine = errors.New("settlement: invalid line item")
)

// Line is a read-only snapshot of one sale line item.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal // percent, e.g. 10 for 10%
	Discount  decimal.Decimal
}

// LineTotals holds the computed amounts for a single line.
type LineTotals struct {
	TaxAmount decimal.Decimal
	LineTotal decimal.Decimal
}

// Totals aggregates the computed amounts for a whole sale.
type Totals struct {
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	TotalAmount  decimal.Decimal
	ChangeAmount decimal.Decimal
}

// Options control settlement policy knobs owned by the caller.
type Options struct {
	// AllowDeferred marks the sale as a deferred/credit transaction: underpayment
	// is recorded as negative change instead of being reported as an error.
	AllowDeferred bool
}

var oneHundred = decimal.NewFromInt(100)

// ComputeLine calculates the tax amount and tax-inclusive total for one line.
// Tax is rounded to 2 decimal places; all arithmetic stays in fixed-point decimals.
func ComputeLine(l Line) (LineTotals, error) {
	if l.Quantity <= 0 || l.UnitPrice.IsNegative() || l.TaxRate.IsNegative() || l.Discount.IsNegative() {
		return LineTotals{}, ErrInvalidLine
	}
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Sub(l.Discount)
	if gross.IsNegative() {
		return LineTotals{}, ErrInvalidDiscount
	}
	tax := gross.Mul(l.TaxRate).Div(oneHundred).Round(2)
	return LineTotals{
		TaxAmount: tax,
		LineTotal: gross.Add(tax),
	}, nil
}

// ComputeTotals settles a whole sale: per-line amounts, subtotal, tax, total due,
// and change against the tendered payment. It always recomputes every output from
// scratch; partial updates are not supported so subtotal and total cannot drift.
//
// When the payment is short and opts.AllowDeferred is false the computed totals
// are returned together with ErrInsufficientPayment so the caller can decide
// whether to reject the sale or record the balance.
func ComputeTotals(lines []Line, saleDiscount, paidAmount decimal.Decimal, opts Options) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrEmptySale
	}
	if saleDiscount.IsNegative() {
		return Totals{}, ErrInvalidDiscount
	}
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		lt, err := ComputeLine(l)
		if err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(lt.LineTotal.Sub(lt.TaxAmount))
		tax = tax.Add(lt.TaxAmount)
	}
	total := subtotal.Add(tax).Sub(saleDiscount)
	if total.IsNegative() {
		return Totals{}, ErrNegativeTotal
	}
	change := paidAmount.Sub(total)
	t := Totals{
		Subtotal:     subtotal,
		TaxAmount:    tax,
		TotalAmount:  total,
		ChangeAmount: change,
	}
	if change.IsNegative() && !opts.AllowDeferred {
		return t, ErrInsufficientPayment
	}
	return t, nil
}
