package pow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, nonce string, difficulty int) string {
	t.Helper()
	for i := 0; i < 1<<22; i++ {
		counter := strconv.Itoa(i)
		if Satisfies(nonce, counter, difficulty) {
			return counter
		}
	}
	t.Fatalf("no solution found for nonce %s", nonce)
	return ""
}

func newManager(t *testing.T, difficulty int) *PoWManager {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewPoWManager(ctx, difficulty)
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	r.Header.Set(TokenHeaderKey, token)
	return r
}

func TestProofFlow(t *testing.T) {
	m := newManager(t, 2)
	require.True(t, m.Enabled())

	nonce := m.GenerateNonce()
	token, err := m.ValidateProof(nonce, solve(t, nonce, 2))
	require.NoError(t, err)

	assert.True(t, m.ConsumeProofToken(requestWithToken(token)))
	assert.False(t, m.ConsumeProofToken(requestWithToken(token)), "tokens are single use")
}

func TestValidateProofRejectsReusedNonce(t *testing.T) {
	m := newManager(t, 1)

	nonce := m.GenerateNonce()
	counter := solve(t, nonce, 1)

	_, err := m.ValidateProof(nonce, counter)
	require.NoError(t, err)

	_, err = m.ValidateProof(nonce, counter)
	assert.ErrorIs(t, err, ErrNonceInvalid)
}

func TestValidateProofRejectsExpiredNonce(t *testing.T) {
	m := newManager(t, 1)
	nonce := m.GenerateNonce()
	counter := solve(t, nonce, 1)

	m.now = func() time.Time { return time.Now().Add(NonceExpiryDuration + time.Second) }

	_, err := m.ValidateProof(nonce, counter)
	assert.ErrorIs(t, err, ErrNonceInvalid)
}

func TestConsumeProofTokenMissing(t *testing.T) {
	m := newManager(t, 1)

	assert.False(t, m.ConsumeProofToken(httptest.NewRequest(http.MethodPost, "/", nil)))
	assert.False(t, m.ConsumeProofToken(requestWithToken("unknown")))
}

func TestDisabledWithZeroDifficulty(t *testing.T) {
	assert.False(t, newManager(t, 0).Enabled())
	assert.True(t, Satisfies("anything", "0", 0))
}
