// Package gateway wires the promotion engine behind a Chi HTTP router with
// JWT authentication, CORS, and uniform JSON responses.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"

	"school_sms/backend/internal/gateway/handlers"
	"school_sms/backend/internal/gateway/util"
	"school_sms/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(promotionHandler *handlers.PromotionHandler, cfg *shared.GatewayConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS Configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// 2. Define Routes (all promotion routes require a valid token)
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Security.JWTSecret))

			r.Route("/promotions", func(r chi.Router) {
				r.Post("/preview", promotionHandler.PreviewPromotions)
				r.Post("/commit", promotionHandler.CommitPromotions)
				r.Post("/student", promotionHandler.PromoteStudent)
			})

			r.Get("/classes/{class}/rolls", promotionHandler.GetClassRolls)
		})
	})

	return r
}

// AuthMiddleware creates a middleware that validates JWT tokens and injects
// the caller's claims into the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Parse and Verify
			claims := &handlers.AuthClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// 3. Inject Claims into Context
			ctxWithUser := context.WithValue(r.Context(), handlers.UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctxWithUser))
		})
	}
}
