/*
Package session remembers the signed-in user of one tab.

The stored value is a signed token rather than the raw user, so a browser can hand it back on reload
without being able to forge another identity.
*/
package session

import (
	"context"
	"fmt"
	"time"

	"majlis/internal/app/user"
	"majlis/internal/pkg/auth/jwt"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
)

// Key is the kv key of the current user's token.
const Key = "chat_current_user"

// Holder saves, clears and restores the session held in a kv.Store.
type Holder struct {
	kv     kv.Store
	secret string
	ttl    time.Duration
}

// NewHolder returns a Holder signing tokens with secret.
func NewHolder(store kv.Store, secret string) *Holder {
	return &Holder{kv: store, secret: secret, ttl: jwt.SessionExpiration}
}

// Save stores u and returns the token written.
func (h *Holder) Save(ctx context.Context, u user.User) (string, error) {
	token, err := jwt.GenerateToken(&jwt.Payload{ID: u.ID, Name: u.Name}, h.secret, h.ttl)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	if err := h.kv.Set(ctx, Key, token); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// Adopt stores a token kept by the browser from an earlier Save. It is checked by Restore.
func (h *Holder) Adopt(ctx context.Context, token string) error {
	return h.kv.Set(ctx, Key, token)
}

// Clear removes the stored session.
func (h *Holder) Clear(ctx context.Context) error {
	return h.kv.Delete(ctx, Key)
}

// Restore returns the stored user. A token that fails to parse is removed and reported as no
// session.
func (h *Holder) Restore(ctx context.Context) (user.User, bool) {
	token, ok, err := h.kv.Get(ctx, Key)
	if err != nil {
		logx.Warn("Session could not be read", "error", err.Error())
		return user.User{}, false
	}
	if !ok {
		return user.User{}, false
	}

	payload, err := jwt.ParseToken(token, h.secret)
	if err != nil {
		logx.Info("Discarding unreadable session", "reason", err.Error())

		if err := h.Clear(ctx); err != nil {
			logx.Warn("Corrupt session could not be cleared", "error", err.Error())
		}
		return user.User{}, false
	}

	return user.User{ID: payload.ID, Name: payload.Name}, true
}
