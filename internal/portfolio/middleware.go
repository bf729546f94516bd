package portfolios

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// ValidatePathParamsMiddleware parses the named path parameters as UUIDs and
// stores them in the request context under the parameter name.
func (h *PortfolioHandler) ValidatePathParamsMiddleware(next http.Handler, params ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, param := range params {
			paramValue := r.PathValue(param)
			if paramValue == "" {
				log.Printf("[Portfolio_Middleware] %s is empty", param)
				h.respondError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", param))
				return
			}

			parsedUUID, err := uuid.Parse(paramValue)
			if err != nil {
				log.Printf("[Portfolio_Middleware] %s is invalid", param)
				if param == "portfolioID" {
					h.respondError(w, http.StatusNotFound, "Portfolio not found")
				} else {
					h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", param))
				}
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), param, parsedUUID))
		}
		next.ServeHTTP(w, r)
	})
}
