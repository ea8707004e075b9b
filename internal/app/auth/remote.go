package auth

import (
	"context"

	"majlis/internal/app/db"
	"majlis/internal/app/user"
)

// UserTables is the part of db.Queries the remote backend needs.
type UserTables interface {
	UserNameExists(ctx context.Context, name string) (bool, error)
	FindUsersByName(ctx context.Context, name string) ([]db.UserRow, error)
	InsertUser(ctx context.Context, id, name, passwordHash string) error
}

// RemoteBackend stores users in the users table. Its unique index on lower(name) turns a lost
// registration race into ErrNameTaken.
type RemoteBackend struct {
	tables UserTables
}

// NewRemoteBackend returns a backend on tables.
func NewRemoteBackend(tables UserTables) *RemoteBackend {
	return &RemoteBackend{tables: tables}
}

func (b *RemoteBackend) NameExists(ctx context.Context, name string) (bool, error) {
	return b.tables.UserNameExists(ctx, name)
}

func (b *RemoteBackend) FindByName(ctx context.Context, name string) ([]user.User, error) {
	rows, err := b.tables.FindUsersByName(ctx, name)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, user.User{ID: row.ID, Name: row.Name, Password: row.Password})
	}

	return users, nil
}

func (b *RemoteBackend) Insert(ctx context.Context, u user.User) error {
	err := b.tables.InsertUser(ctx, u.ID, u.Name, u.Password)
	if db.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}
