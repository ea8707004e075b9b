/*
Package pow implements the Proof-of-Work challenge that guards account registration.

A client fetches a nonce, searches for a counter whose SHA-256(nonce+counter) hex digest starts
with `difficulty` zeros, and trades the solution for a short-lived single-use proof token that the
registration request must carry.
*/
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenHeaderKey is the HTTP header key used by the client to send the proof token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is how long a proof token stays redeemable.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is how long a challenge nonce may be solved.
	NonceExpiryDuration = 5 * time.Minute
)

var (
	// ErrNonceInvalid is returned for unknown, expired or already consumed nonces.
	ErrNonceInvalid = errors.New("nonce expired or invalid")

	// ErrProofInsufficient is returned when the digest lacks the required leading zeros.
	ErrProofInsufficient = errors.New("proof does not meet difficulty requirement")
)

// PoWManager tracks outstanding nonces and proof tokens. It is safe for concurrent use.
type PoWManager struct {
	// difficulty is the required number of leading hex zeros. Zero disables the challenge.
	difficulty int

	// nonceStore maps outstanding nonces to their expiry.
	nonceStore map[string]time.Time

	// tokenStore maps unredeemed proof tokens to their expiry.
	tokenStore map[string]time.Time

	mu sync.Mutex

	now func() time.Time
}

// NewPoWManager creates a manager for the given difficulty.
// Expired entries are swept every minute until ctx is done.
func NewPoWManager(ctx context.Context, difficulty int) *PoWManager {
	mgr := &PoWManager{
		difficulty: difficulty,
		nonceStore: make(map[string]time.Time),
		tokenStore: make(map[string]time.Time),
		now:        time.Now,
	}

	go mgr.cleanupExpiredEntries(ctx)

	return mgr
}

// Enabled reports whether registrations must present a proof token.
func (m *PoWManager) Enabled() bool {
	return m.difficulty > 0
}

// Difficulty returns the number of leading zeros a solution needs.
func (m *PoWManager) Difficulty() int {
	return m.difficulty
}

// GenerateNonce issues a new challenge nonce.
func (m *PoWManager) GenerateNonce() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := uuid.New().String()
	m.nonceStore[nonce] = m.now().Add(NonceExpiryDuration)
	return nonce
}

// ValidateProof checks counter against nonce and, on success, consumes the nonce and returns a
// proof token.
func (m *PoWManager) ValidateProof(nonce, counter string) (string, error) {
	if !Satisfies(nonce, counter, m.difficulty) {
		return "", ErrProofInsufficient
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.nonceStore[nonce]
	if !ok || m.now().After(expiry) {
		return "", ErrNonceInvalid
	}
	delete(m.nonceStore, nonce)

	token := uuid.New().String()
	m.tokenStore[token] = m.now().Add(ProofTokenDuration)
	return token, nil
}

// ConsumeProofToken reports whether r carries a valid proof token (header X-PoW-Token or query
// parameter pow_token) and redeems it so it cannot be replayed.
func (m *PoWManager) ConsumeProofToken(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get("pow_token")
	}

	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokenStore[token]
	if !ok {
		return false
	}
	delete(m.tokenStore, token)

	return !m.now().After(expiry)
}

// Satisfies reports whether SHA-256(nonce+counter) starts with difficulty hex zeros.
func Satisfies(nonce, counter string, difficulty int) bool {
	hash := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(hash[:]), strings.Repeat("0", difficulty))
}

// cleanupExpiredEntries periodically drops expired nonces and tokens.
func (m *PoWManager) cleanupExpiredEntries(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		now := m.now()

		for nonce, expiry := range m.nonceStore {
			if now.After(expiry) {
				delete(m.nonceStore, nonce)
			}
		}

		for token, expiry := range m.tokenStore {
			if now.After(expiry) {
				delete(m.tokenStore, token)
			}
		}
		m.mu.Unlock()
	}
}
