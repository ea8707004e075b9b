package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.42:5555":  "203.0.113.0",
		"203.0.113.42":       "203.0.113.0",
		"127.0.0.1:8080":     "127.0.0.1",
		"[2001:db8::1]:443":  "2001:db8::",
		"2001:db8:1:2:3:4::": "2001:db8:1:2::",
		"not-an-ip":          "unknown_ip",
	}

	for in, want := range cases {
		assert.Equal(t, want, anonymizeIP(in), in)
	}
}
