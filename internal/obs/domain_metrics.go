package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesSettledTotal counts settlement outcomes by result.
	SalesSettledTotal *prometheus.CounterVec
	// SettlementFailuresTotal counts settlement validation failures by reason.
	SettlementFailuresTotal *prometheus.CounterVec
	// StockStatusTransitionsTotal counts derived stock status changes.
	StockStatusTransitionsTotal *prometheus.CounterVec
	// PermissionResolutionsTotal counts effective-permission resolutions by source.
	PermissionResolutionsTotal *prometheus.CounterVec
	// RefundsTotal counts refund operations by scope.
	RefundsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesSettledTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_settled_total",
			Help:      "Count of sale settlement outcomes.",
		}, []string{"result"}))
		SettlementFailuresTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_failures_total",
			Help:      "Count of settlement validation failures by reason.",
		}, []string{"reason"}))
		StockStatusTransitionsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_status_transitions_total",
			Help:      "Count of derived stock status transitions.",
		}, []string{"from", "to"}))
		PermissionResolutionsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_resolutions_total",
			Help:      "Count of effective-permission resolutions by source (snapshot cache or database).",
		}, []string{"source"}))
		RefundsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Count of refund operations by scope.",
		}, []string{"scope"}))
	})
}
