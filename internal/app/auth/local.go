package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"majlis/internal/app/user"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
)

// UsersKey is the kv key holding the serialized user list.
const UsersKey = "chat_users"

// LocalBackend keeps every user record in one JSON list under UsersKey.
// Inserts are read-modify-write with no transaction, so two registrations racing on the same name
// can both succeed.
type LocalBackend struct {
	kv kv.Store
}

// NewLocalBackend returns a backend on store.
func NewLocalBackend(store kv.Store) *LocalBackend {
	return &LocalBackend{kv: store}
}

func (b *LocalBackend) NameExists(ctx context.Context, name string) (bool, error) {
	matches, err := b.FindByName(ctx, name)
	return len(matches) > 0, err
}

func (b *LocalBackend) FindByName(ctx context.Context, name string) ([]user.User, error) {
	users, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	var matches []user.User
	for _, u := range users {
		if user.SameName(u.Name, name) {
			matches = append(matches, u)
		}
	}

	return matches, nil
}

func (b *LocalBackend) Insert(ctx context.Context, u user.User) error {
	users, err := b.load(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(append(users, u))
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	return b.kv.Set(ctx, UsersKey, string(raw))
}

// load reads the user list. An undecodable list is logged and read as empty.
func (b *LocalBackend) load(ctx context.Context) ([]user.User, error) {
	raw, ok, err := b.kv.Get(ctx, UsersKey)
	if err != nil || !ok {
		return nil, err
	}

	var users []user.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		logx.Warn("Stored user list is unreadable, treating it as empty", "error", err.Error())
		return nil, nil
	}

	return users, nil
}
