package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/FinVerify/FV-Backend/internal/token"
	"github.com/FinVerify/FV-Backend/internal/utils"
)

// TokenValidator decouples the middleware from the concrete token manager.
type TokenValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// Auth extracts the bearer token from the Authorization header and
// validates it. Requests without a credential get 401; requests with an
// invalid or expired credential get 403. Decoded claims are placed in the
// request context for handlers downstream.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.JSONError(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				utils.JSONError(w, "Missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(raw))
			if err != nil {
				utils.JSONError(w, "Invalid or expired token", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin allows only requests whose validated claims carry the admin role.
// It must run after Auth.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := utils.GetClaimsFromContext(r.Context())
		if !ok {
			utils.JSONError(w, "Unauthorized: missing claims in context", http.StatusUnauthorized)
			return
		}

		if claims.Role != "admin" {
			utils.JSONError(w, "Access denied. Admins only.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

var allowed = map[string]struct{}{
	"http://localhost:5173":     {},
	"http://localhost:3000":     {},
	"https://finverify.app":     {},
	"https://www.finverify.app": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
