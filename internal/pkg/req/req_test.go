package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/pkg/errs"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func newJSONRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestBindJSON(t *testing.T) {
	var dst credentials
	customErr := BindJSON(httptest.NewRecorder(), newJSONRequest(`{"username":"Bob","password":"pw"}`), &dst)

	require.Nil(t, customErr)
	assert.Equal(t, credentials{Username: "Bob", Password: "pw"}, dst)
}

func TestBindJSONErrors(t *testing.T) {
	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"wrong content type", httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), errs.ErrUnsupportedMediaType},
		{"broken json", newJSONRequest(`{"username":`), errs.ErrInvalidJSONFormat},
		{"unknown field", newJSONRequest(`{"user":"Bob"}`), errs.ErrInvalidJSONFormat},
		{"trailing data", newJSONRequest(`{"username":"Bob"} {}`), errs.ErrExtraContentInBody},
		{"too large", newJSONRequest(`{"username":"` + strings.Repeat("a", int(MaxJSONBodySize)) + `"}`), errs.ErrRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst credentials
			customErr := BindJSON(httptest.NewRecorder(), tc.req, &dst)

			require.NotNil(t, customErr)
			assert.Equal(t, tc.code, customErr.Code)
		})
	}
}
