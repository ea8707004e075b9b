package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the statements of the remote stores against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// UserRow is one row of the users table.
type UserRow struct {
	ID        string
	Name      string
	Password  string
	CreatedAt time.Time
}

// MessageRow is one row of the messages table, optionally joined with its sender.
// SenderName is nil when the join found no user.
type MessageRow struct {
	ID             int64
	Text           string
	SenderID       string
	CreatedAt      time.Time
	AttachmentURL  *string
	AttachmentName *string
	AttachmentType *string
	SenderName     *string
}

// InsertMessageParams are the caller-supplied columns of a new message.
type InsertMessageParams struct {
	Text           string
	SenderID       string
	AttachmentURL  *string
	AttachmentName *string
	AttachmentType *string
}

const userNameExists = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(name) = lower($1))`

// UserNameExists reports whether a user with name exists, ignoring case.
func (q *Queries) UserNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := q.db.QueryRow(ctx, userNameExists, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user name: %w", err)
	}
	return exists, nil
}

const findUsersByName = `SELECT id, name, password, created_at FROM users WHERE lower(name) = lower($1)`

// FindUsersByName returns every user whose name matches, ignoring case.
func (q *Queries) FindUsersByName(ctx context.Context, name string) ([]UserRow, error) {
	rows, err := q.db.Query(ctx, findUsersByName, name)
	if err != nil {
		return nil, fmt.Errorf("find users by name: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserRow, error) {
		var u UserRow
		err := row.Scan(&u.ID, &u.Name, &u.Password, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}

	return users, nil
}

const getUser = `SELECT id, name, password, created_at FROM users WHERE id = $1`

// GetUser returns the user with id. A missing user is reported with pgx.ErrNoRows.
func (q *Queries) GetUser(ctx context.Context, id string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRow(ctx, getUser, id).Scan(&u.ID, &u.Name, &u.Password, &u.CreatedAt)
	if err != nil {
		return UserRow{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

const insertUser = `INSERT INTO users (id, name, password) VALUES ($1, $2, $3)`

// InsertUser creates a user. A case-insensitive name collision fails with a unique violation.
func (q *Queries) InsertUser(ctx context.Context, id, name, passwordHash string) error {
	if _, err := q.db.Exec(ctx, insertUser, id, name, passwordHash); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const messagesSince = `
SELECT m.id, m.text, m.sender_id, m.created_at,
       m.attachment_url, m.attachment_name, m.attachment_type,
       u.name
FROM messages m
LEFT JOIN users u ON u.id = m.sender_id
WHERE m.created_at >= $1
ORDER BY m.created_at ASC, m.id ASC`

// MessagesSince returns messages created at or after since, oldest first, with the sender name
// joined in where the sender still resolves.
func (q *Queries) MessagesSince(ctx context.Context, since time.Time) ([]MessageRow, error) {
	rows, err := q.db.Query(ctx, messagesSince, since)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (MessageRow, error) {
		var m MessageRow
		err := row.Scan(
			&m.ID, &m.Text, &m.SenderID, &m.CreatedAt,
			&m.AttachmentURL, &m.AttachmentName, &m.AttachmentType,
			&m.SenderName,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	return messages, nil
}

const insertMessage = `
INSERT INTO messages (text, sender_id, attachment_url, attachment_name, attachment_type)
VALUES ($1, $2, $3, $4, $5)`

// InsertMessage stores a message. Id and timestamp are assigned by the database.
func (q *Queries) InsertMessage(ctx context.Context, arg InsertMessageParams) error {
	_, err := q.db.Exec(ctx, insertMessage,
		arg.Text, arg.SenderID, arg.AttachmentURL, arg.AttachmentName, arg.AttachmentType)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

const getMessage = `
SELECT id, text, sender_id, created_at, attachment_url, attachment_name, attachment_type
FROM messages
WHERE id = $1`

// GetMessage returns the message with id without its sender. A missing message is reported with
// pgx.ErrNoRows.
func (q *Queries) GetMessage(ctx context.Context, id int64) (MessageRow, error) {
	var m MessageRow
	err := q.db.QueryRow(ctx, getMessage, id).Scan(
		&m.ID, &m.Text, &m.SenderID, &m.CreatedAt,
		&m.AttachmentURL, &m.AttachmentName, &m.AttachmentType,
	)
	if err != nil {
		return MessageRow{}, fmt.Errorf("get message %d: %w", id, err)
	}
	return m, nil
}

const deleteMessagesBefore = `DELETE FROM messages WHERE created_at < $1`

// DeleteMessagesBefore removes messages older than cutoff and returns how many were deleted.
func (q *Queries) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMessagesBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return tag.RowsAffected(), nil
}
