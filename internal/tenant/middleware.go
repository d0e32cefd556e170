package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type tenantKey struct{}

// Resolver establishes which tenant a request belongs to, preferring an
// explicit header over the request subdomain. Row-level isolation is enforced
// by the repositories; the resolver only names the tenant.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver builds a resolver. An empty headerName falls back to "X-Tenant-ID".
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware injects the resolved tenant into the request context. Requests
// that resolve to no tenant (and have no default) pass through untagged;
// guarded routes reject them downstream.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if tenantID := r.Resolve(req); tenantID != "" {
			req = req.WithContext(WithTenant(req.Context(), tenantID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the tenant for a request: header first, then the leftmost
// subdomain label under the configured root domain, then the default tenant.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if id := strings.TrimSpace(req.Header.Get(r.HeaderName)); id != "" {
		return id
	}
	if id := r.tenantFromHost(req.Host); id != "" {
		return id
	}
	return r.DefaultTenant
}

func (r *Resolver) tenantFromHost(hostport string) string {
	host := strings.ToLower(bareHost(hostport))
	if host == "" || host == r.RootDomain {
		return ""
	}
	if r.RootDomain != "" {
		sub, ok := strings.CutSuffix(host, "."+r.RootDomain)
		if !ok {
			return ""
		}
		host = sub
	}
	// multi-label subdomains keep only the leftmost label as the tenant slug
	label, _, _ := strings.Cut(host, ".")
	return strings.TrimSpace(label)
}

// bareHost strips the port and any IPv6 brackets from a Host header value.
func bareHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
}

// WithTenant stores the tenant identifier on the context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// FromContext extracts the tenant identifier, reporting whether one is set.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tenantID, _ := ctx.Value(tenantKey{}).(string)
	tenantID = strings.TrimSpace(tenantID)
	return tenantID, tenantID != ""
}
