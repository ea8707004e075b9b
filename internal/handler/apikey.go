package handler

import (
	"crypto/subtle"
	"net/http"

	"majlis/internal/configs"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/resp"
)

// APIKeyHeader carries the public store key on REST calls.
const APIKeyHeader = "apikey"

// RequireAPIKey rejects requests whose apikey header differs from CHAT_STORE_KEY. It lets every
// request through when the remote driver is not in use or the key is still the placeholder.
func RequireAPIKey(cfg *configs.AppConfig) func(next http.Handler) http.Handler {
	expected := []byte(cfg.StoreKey)
	enforce := cfg.StoreDriver == configs.DriverRemote && cfg.StoreKey != "" && cfg.StoreKey != configs.PlaceholderStoreKey

	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get(APIKeyHeader)), expected) != 1 {
				logx.Warn("Request rejected: apikey mismatch", "path", r.URL.Path)
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidAPIKey))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
