package tenant

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-gl/internal/platform/httpx"
)

// HeaderCompanyID is set by the platform edge after it resolves the calling
// tenant. The value is opaque to this service beyond being a valid UUID.
const HeaderCompanyID = "X-Company-ID"

// Middleware rejects requests without a resolved company scope and stores the
// identifier in the request context for downstream handlers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderCompanyID)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing company scope")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid company scope")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCompany(r.Context(), id)))
	})
}
