/*
Package handler provides the HTTP handlers and routing setup for the Majlis chat server.

This file defines the main Router, applying middleware like logging, CORS, metrics and IP-based rate
limiting before delegating requests to the REST handlers and the WebSocket endpoint.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"majlis/internal/observability"
	"majlis/internal/pkg/auth/jwt"
	"majlis/internal/pkg/limiter"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/pow"
	"majlis/internal/pkg/resp"
)

const (
	AuthRate     = 0.2
	AuthBurst    = 5
	SendRate     = 1
	SendBurst    = 5
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// The rate limiters it creates sweep idle clients until ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(AuthRate), AuthBurst)
	sendLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(SendRate), SendBurst)
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", APIKeyHeader, pow.TokenHeaderKey},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(observability.HTTPMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "Majlis Chat Server",
			"tabs":    deps.Manager.Count(),
		}
		resp.RespondSuccess(w, r, data)
	})

	if deps.Config.MetricsEnabled {
		r.Handle("/metrics", observability.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireAPIKey(deps.Config))
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Get("/config", HandleGetConfig(deps))

		api.Route("/pow", func(p chi.Router) {
			p.Get("/challenge", HandlePowChallenge(deps))
			p.With(authLimiter.Middleware).Post("/verify", HandlePowVerify(deps))
		})

		api.Route("/auth", func(a chi.Router) {
			a.Use(authLimiter.Middleware)
			a.Post("/register", HandleRegister(deps))
			a.Post("/login", HandleLogin(deps))
		})

		api.Get("/messages", HandleGetMessages(deps))
		api.With(sendLimiter.Middleware).Post("/messages", HandleSendMessage(deps))

		api.Route("/file", func(f chi.Router) {
			f.Use(sendLimiter.Middleware)
			f.Post("/presign-upload", HandlePresignUploadURL(deps))
			f.Post("/upload", HandleUploadFile(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps.Manager, wsUpgrader, connectLimiter))

	return r
}
