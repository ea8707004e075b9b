/*
Package message holds the chat message model and its two stores.

LocalStore keeps the whole history as one JSON list in a kv.Store and announces changes through the
kv mutation broadcast. RemoteStore reads a trailing 24-hour window from Postgres and receives inserts
from the change feed.
*/
package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"majlis/internal/app/user"
)

// Window is how far back GetMessages reaches in the remote store, and the age after which
// DeleteExpiredMessages removes a message.
const Window = 24 * time.Hour

// MaxTextLength bounds the text of one message, in bytes.
const MaxTextLength = 5000

var (
	// ErrEmpty is returned for a draft with neither text nor an attachment.
	ErrEmpty = errors.New("message has no text and no attachment")

	// ErrTooLong is returned for text longer than MaxTextLength.
	ErrTooLong = errors.New("message text too long")

	// ErrStore wraps failures of the underlying storage.
	ErrStore = errors.New("message store unavailable")
)

// Attachment describes a file attached to a message. URL is empty for a file-name placeholder.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Reaction is an emoji and the ids of the users who reacted with it.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"user_ids"`
}

// Message is a chat message with its sender resolved.
type Message struct {
	ID         int64       `json:"id"`
	Text       string      `json:"text"`
	Sender     user.User   `json:"sender"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Reactions  []Reaction  `json:"reactions,omitempty"`
}

// Draft is what a sender submits.
type Draft struct {
	Text       string
	Attachment *Attachment
}

// Normalize trims the text and checks that something is left to send.
func (d Draft) Normalize() (Draft, error) {
	d.Text = strings.TrimSpace(d.Text)

	if d.Text == "" && d.Attachment == nil {
		return d, ErrEmpty
	}

	if len(d.Text) > MaxTextLength {
		return d, ErrTooLong
	}

	return d, nil
}

// Subscription is a registered listener.
type Subscription interface {
	// Unsubscribe stops delivery. After it returns the listener is not invoked again.
	Unsubscribe()
}

// Store is the message persistence boundary.
type Store interface {
	// GetMessages returns the visible history, oldest first.
	GetMessages(ctx context.Context) ([]Message, error)

	// SendMessage persists a new message from sender.
	SendMessage(ctx context.Context, sender user.User, draft Draft) error

	// SubscribeToMessages registers onNew for inserted messages. It returns nil when the store has
	// no push feed.
	SubscribeToMessages(onNew func(Message)) Subscription

	// DeleteExpiredMessages removes messages older than Window. It reports the number removed, or
	// false on any failure.
	DeleteExpiredMessages(ctx context.Context) (int64, bool)
}

// Watcher is implemented by stores that broadcast the whole list after every write instead of
// pushing single inserts.
type Watcher interface {
	WatchMessages(fn func([]Message)) Subscription
}
