package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1", Name: "Bob"}, testSecret, time.Minute)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.ID)
	assert.Equal(t, "Bob", payload.Name)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken(&Payload{ID: "u1", Name: "Bob"}, testSecret, time.Minute)
	require.NoError(t, err)

	expired, err := GenerateToken(&Payload{ID: "u1", Name: "Bob"}, testSecret, -time.Minute)
	require.NoError(t, err)

	cases := map[string]struct {
		token  string
		secret string
	}{
		"wrong secret": {valid, "other"},
		"expired":      {expired, testSecret},
		"garbage":      {"not.a.token", testSecret},
		"empty":        {"", testSecret},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.token, tc.secret)
			assert.Error(t, err)
		})
	}
}

func TestIdentityExtractorMiddleware(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1", Name: "Bob"}, testSecret, time.Minute)
	require.NoError(t, err)

	var seen *Payload
	handler := IdentityExtractorMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)

	seen = nil
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer broken")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Nil(t, seen)
}
