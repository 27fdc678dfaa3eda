package middleware

import (
	"net/http"

	"github.com/i-vertix/assethistory/internal/refloader"
	"github.com/i-vertix/assethistory/internal/repository"
)

// DataLoaderMiddleware attaches a request-scoped reference loader to the
// request context so every resolution within one request is batched and
// deduplicated. The loader never outlives the request: authorization and
// display data must be re-derived per caller.
func DataLoaderMiddleware(direct repository.ReferenceResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := refloader.NewLoader(direct)
			ctx := refloader.ContextWithLoader(r.Context(), loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
