package sale

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Christian-Akor/enterprise-pos-system/internal/repo"
	"github.com/Christian-Akor/enterprise-pos-system/internal/settlement"
)

// knownPaymentMethods mirrors the payment channels the register accepts.
var knownPaymentMethods = map[string]struct{}{
	"CASH": {}, "CREDIT_CARD": {}, "DEBIT_CARD": {}, "MOBILE_PAYMENT": {}, "BANK_TRANSFER": {}, "OTHER": {},
}

func normalizePaymentMethod(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := knownPaymentMethods[m]; ok {
		return m
	}
	return "OTHER"
}

// initialStatus picks the starting lifecycle state for a captured sale:
// COMPLETED when settled at creation, PENDING for a deferred balance.
func initialStatus(totals settlement.Totals, deferred bool) settlement.Status {
	if deferred && totals.ChangeAmount.IsNegative() {
		return settlement.StatusPending
	}
	return settlement.StatusCompleted
}

// newSaleNumber builds a human-readable receipt number, unique enough for a
// per-tenant unique index to catch the rare collision.
func newSaleNumber(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return "S-" + now.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

func toEngineLines(lines []repo.SaleLine) []settlement.Line {
	out := make([]settlement.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, settlement.Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   l.TaxRate,
			Discount:  l.Discount,
		})
	}
	return out
}

// scopeSpec describes which lines a refund covers and what it reverses.
type scopeSpec struct {
	Name   string
	Target settlement.Status
	Lines  []repo.SaleLine
	Amount decimal.Decimal
}

// refundScope resolves the requested line ids into a refund scope. An empty
// request refunds every line still standing; naming every remaining line is the
// same as a full refund.
func refundScope(lines []repo.SaleLine, lineIDs []uuid.UUID) (scopeSpec, error) {
	remaining := make([]repo.SaleLine, 0, len(lines))
	for _, l := range lines {
		if !l.Refunded {
			remaining = append(remaining, l)
		}
	}
	if len(remaining) == 0 {
		return scopeSpec{}, settlement.ErrInvalidRefundScope
	}

	var selected []repo.SaleLine
	if len(lineIDs) == 0 {
		selected = remaining
	} else {
		wanted := make(map[uuid.UUID]struct{}, len(lineIDs))
		for _, id := range lineIDs {
			if _, dup := wanted[id]; dup {
				return scopeSpec{}, settlement.ErrInvalidRefundScope
			}
			wanted[id] = struct{}{}
		}
		for _, l := range remaining {
			if _, ok := wanted[l.ID]; ok {
				selected = append(selected, l)
			}
		}
		if len(selected) != len(wanted) {
			return scopeSpec{}, settlement.ErrInvalidRefundScope
		}
	}

	amount := decimal.Zero
	for _, l := range selected {
		amount = amount.Add(l.LineTotal)
	}

	spec := scopeSpec{Lines: selected, Amount: amount}
	if len(selected) == len(remaining) {
		spec.Name = "FULL"
		spec.Target = settlement.StatusRefunded
	} else {
		spec.Name = "PARTIAL"
		spec.Target = settlement.StatusPartiallyRefunded
	}
	return spec, nil
}
