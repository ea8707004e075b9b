package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/app/user"
	"majlis/internal/pkg/kv"
)

const secret = "test-secret"

func TestSaveAndRestore(t *testing.T) {
	mem := kv.NewMemory()
	h := NewHolder(mem, secret)
	ctx := context.Background()

	token, err := h.Save(ctx, user.User{ID: "u1", Name: "Bob", Password: "ignored"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	stored, ok, err := mem.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, stored)

	u, ok := NewHolder(mem, secret).Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, user.User{ID: "u1", Name: "Bob"}, u)
}

func TestRestoreWithoutSession(t *testing.T) {
	_, ok := NewHolder(kv.NewMemory(), secret).Restore(context.Background())
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	h := NewHolder(kv.NewMemory(), secret)
	ctx := context.Background()

	_, err := h.Save(ctx, user.User{ID: "u1", Name: "Bob"})
	require.NoError(t, err)
	require.NoError(t, h.Clear(ctx))

	_, ok := h.Restore(ctx)
	assert.False(t, ok)
}

func TestRestoreClearsUnreadableEntries(t *testing.T) {
	cases := map[string]func(t *testing.T, mem kv.Store){
		"garbage": func(t *testing.T, mem kv.Store) {
			require.NoError(t, mem.Set(context.Background(), Key, "{not a token"))
		},
		"foreign signature": func(t *testing.T, mem kv.Store) {
			_, err := NewHolder(mem, "other-secret").Save(context.Background(), user.User{ID: "u1", Name: "Bob"})
			require.NoError(t, err)
		},
		"expired": func(t *testing.T, mem kv.Store) {
			h := NewHolder(mem, secret)
			h.ttl = -time.Minute
			_, err := h.Save(context.Background(), user.User{ID: "u1", Name: "Bob"})
			require.NoError(t, err)
		},
	}

	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			mem := kv.NewMemory()
			seed(t, mem)

			_, ok := NewHolder(mem, secret).Restore(context.Background())
			assert.False(t, ok)

			_, present, err := mem.Get(context.Background(), Key)
			require.NoError(t, err)
			assert.False(t, present)
		})
	}
}

func TestAdoptBrowserToken(t *testing.T) {
	ctx := context.Background()

	token, err := NewHolder(kv.NewMemory(), secret).Save(ctx, user.User{ID: "u1", Name: "Bob"})
	require.NoError(t, err)

	fresh := NewHolder(kv.NewMemory(), secret)
	require.NoError(t, fresh.Adopt(ctx, token))

	u, ok := fresh.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)
}
