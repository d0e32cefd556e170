package obs

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

func tenantMiddleware(tenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), tenantID)))
		})
	}
}

func TestHTTPObsLabelsRouteAndTenant(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("postest", nil, reg)

	r := chi.NewRouter()
	r.Use(tenantMiddleware("acme"))
	r.Use(HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/sales/{saleID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/sales/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/sales/{saleID}", "204", "acme"))
	if got != 1 {
		t.Fatalf("counter for matched route and tenant = %v, want 1", got)
	}
	raw := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/sales/42", "204", "acme"))
	if raw != 0 {
		t.Fatalf("raw path must not appear as a route label, got %v", raw)
	}
}

func TestHTTPObsNoTenantLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("postest", nil, reg)

	r := chi.NewRouter()
	r.Use(HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	got := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "200", "none"))
	if got != 1 {
		t.Fatalf("untenanted request should count under the none label, got %v", got)
	}
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(tenantMiddleware("acme"))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := common.WithUserID(req.Context(), "user-1")
			ctx = common.WithRoleNames(ctx, []string{"cashier"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Use(RequestLogger{Logger: logger}.Middleware)
	r.Get("/sales/{saleID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sales/42", nil))

	line := buf.String()
	for _, want := range []string{
		`"route":"/sales/{saleID}"`,
		`"status":418`,
		`"tenant_id":"acme"`,
		`"user_id":"user-1"`,
		`"roles":["cashier"]`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}
