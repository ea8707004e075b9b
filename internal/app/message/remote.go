package message

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"majlis/internal/app/db"
	"majlis/internal/app/user"
	"majlis/internal/observability"
	"majlis/internal/pkg/logx"
)

const (
	senderLookupTimeout = 5 * time.Second
	rowLoadTimeout      = 5 * time.Second
)

// Tables is the part of db.Queries the remote store needs.
type Tables interface {
	MessagesSince(ctx context.Context, since time.Time) ([]db.MessageRow, error)
	InsertMessage(ctx context.Context, arg db.InsertMessageParams) error
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	GetMessage(ctx context.Context, id int64) (db.MessageRow, error)
	GetUser(ctx context.Context, id string) (db.UserRow, error)
}

// RemoteStore reads and writes the messages table and turns feed rows into messages.
type RemoteStore struct {
	tables Tables
	feed   *Feed

	// lookups coalesces concurrent sender lookups for the same id across subscribers.
	lookups singleflight.Group

	now    func() time.Time
	logger zerolog.Logger
}

// NewRemoteStore returns a store on tables. feed may be nil, in which case SubscribeToMessages
// returns nil.
func NewRemoteStore(tables Tables, feed *Feed) *RemoteStore {
	return &RemoteStore{
		tables: tables,
		feed:   feed,
		now:    time.Now,
		logger: logx.Component("remote_messages"),
	}
}

// GetMessages returns messages of the trailing Window, oldest first. Messages whose sender no longer
// resolves are left out.
func (s *RemoteStore) GetMessages(ctx context.Context) ([]Message, error) {
	cutoff := s.now().Add(-Window)

	rows, err := s.tables.MessagesSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	return normalizeRows(rows, cutoff), nil
}

// SendMessage inserts a row for sender. Id and timestamp come from the database.
func (s *RemoteStore) SendMessage(ctx context.Context, sender user.User, draft Draft) (err error) {
	defer func() { observability.ObserveSend("remote", err) }()

	draft, err = draft.Normalize()
	if err != nil {
		return err
	}

	params := db.InsertMessageParams{
		Text:     draft.Text,
		SenderID: sender.ID,
	}

	if a := draft.Attachment; a != nil {
		params.AttachmentName = &a.Name
		params.AttachmentType = &a.Type
		if a.URL != "" {
			params.AttachmentURL = &a.URL
		}
	}

	if err := s.tables.InsertMessage(ctx, params); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	return nil
}

// SubscribeToMessages resolves the sender of every inserted row before calling onNew. Rows whose
// sender lookup fails are dropped with a warning.
func (s *RemoteStore) SubscribeToMessages(onNew func(Message)) Subscription {
	if s.feed == nil {
		return nil
	}

	return s.feed.Subscribe(func(row db.MessageRow) {
		sender, err := s.lookupSender(row.SenderID)
		if err != nil {
			observability.IncFeedDelivery("dropped")
			s.logger.Warn().Err(err).
				Int64("message_id", row.ID).
				Str("sender_id", row.SenderID).
				Msg("Dropping inserted message with unresolved sender.")
			return
		}

		observability.IncFeedDelivery("delivered")
		onNew(toMessage(row, sender))
	})
}

// PublishInsert handles one insert notification: payload is the id of the new row, which is loaded
// and published to the feed. Undecodable payloads and rows that cannot be loaded are logged and
// skipped. It is meant to be the db.Listener callback, so rows reach the feed in insert order.
func (s *RemoteStore) PublishInsert(payload string) {
	if s.feed == nil {
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		s.logger.Warn().Str("payload", payload).Msg("Ignoring undecodable insert notification.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rowLoadTimeout)
	defer cancel()

	row, err := s.tables.GetMessage(ctx, id)
	if err != nil {
		observability.IncFeedDelivery("dropped")
		s.logger.Warn().Err(err).Int64("message_id", id).Msg("Failed to load inserted message.")
		return
	}

	s.feed.Publish(row)
}

// DeleteExpiredMessages removes rows older than Window. Failures, including missing privileges, are
// logged and reported as false.
func (s *RemoteStore) DeleteExpiredMessages(ctx context.Context) (int64, bool) {
	n, err := s.tables.DeleteMessagesBefore(ctx, s.now().Add(-Window))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Expired message sweep failed.")
		return 0, false
	}

	observability.AddExpiredDeleted(n)
	return n, true
}

func (s *RemoteStore) lookupSender(id string) (user.User, error) {
	v, err, _ := s.lookups.Do(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), senderLookupTimeout)
		defer cancel()

		row, err := s.tables.GetUser(ctx, id)
		if err != nil {
			return user.User{}, err
		}
		return user.User{ID: row.ID, Name: row.Name}, nil
	})

	return v.(user.User), err
}

// normalizeRows is the single place where joined rows become messages. Rows without a resolved
// sender or created before cutoff are dropped.
func normalizeRows(rows []db.MessageRow, cutoff time.Time) []Message {
	messages := make([]Message, 0, len(rows))

	for _, row := range rows {
		if row.SenderName == nil || row.CreatedAt.Before(cutoff) {
			continue
		}

		messages = append(messages, toMessage(row, user.User{ID: row.SenderID, Name: *row.SenderName}))
	}

	return messages
}

func toMessage(row db.MessageRow, sender user.User) Message {
	createdAt := row.CreatedAt

	m := Message{
		ID:        row.ID,
		Text:      row.Text,
		Sender:    sender,
		CreatedAt: &createdAt,
	}

	if row.AttachmentName != nil {
		m.Attachment = &Attachment{
			Name: *row.AttachmentName,
			URL:  deref(row.AttachmentURL),
			Type: deref(row.AttachmentType),
		}
	}

	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
