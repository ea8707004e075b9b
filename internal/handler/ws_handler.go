/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which rate limits connection attempts, upgrades the
HTTP connection to WebSocket, and hands it to the Manager together with the session token the
browser kept.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"majlis/internal/app/chat"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/limiter"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The optional token query parameter restores the tab's session.
func HandleWebSocket(manager *chat.Manager, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if !manager.Connect(conn, token) {
			logx.Info("WebSocket connection refused: manager is shutting down.")
		}
	}
}
