package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicStripsPassword(t *testing.T) {
	u := User{ID: "u1", Name: "Bob", Password: "hash"}

	assert.Equal(t, User{ID: "u1", Name: "Bob"}, u.Public())
	assert.Equal(t, "hash", u.Password, "the receiver is left untouched")
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Bob", "bob"))
	assert.True(t, SameName(" BOB ", "bob"))
	assert.False(t, SameName("Bob", "Bobby"))
}
