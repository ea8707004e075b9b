package message

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"majlis/internal/app/user"
	"majlis/internal/observability"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
)

// MessagesKey is the kv key holding the serialized message list.
const MessagesKey = "chat_messages"

// LocalStore keeps the full history under MessagesKey.
// Writes are read-modify-write without a transaction: two processes appending at the same time can
// lose one of the messages.
type LocalStore struct {
	kv kv.Store

	// mu serializes writers of this process.
	mu sync.Mutex

	now    func() time.Time
	logger zerolog.Logger
}

// NewLocalStore returns a store on top of store.
func NewLocalStore(store kv.Store) *LocalStore {
	return &LocalStore{
		kv:     store,
		now:    time.Now,
		logger: logx.Component("local_messages"),
	}
}

// GetMessages returns the whole history. A missing key is an empty history.
func (s *LocalStore) GetMessages(ctx context.Context) ([]Message, error) {
	raw, ok, err := s.kv.Get(ctx, MessagesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if !ok {
		return []Message{}, nil
	}

	return decodeList(raw)
}

// SendMessage appends a message whose id is the current time in milliseconds.
func (s *LocalStore) SendMessage(ctx context.Context, sender user.User, draft Draft) (err error) {
	defer func() { observability.ObserveSend("local", err) }()

	draft, err = draft.Normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.GetMessages(ctx)
	if err != nil {
		return err
	}

	messages = append(messages, Message{
		ID:         s.now().UnixMilli(),
		Text:       draft.Text,
		Sender:     sender.Public(),
		Attachment: draft.Attachment,
	})

	return s.save(ctx, messages)
}

// SubscribeToMessages returns nil: the local store has no insert feed. Use WatchMessages.
func (s *LocalStore) SubscribeToMessages(func(Message)) Subscription {
	return nil
}

// WatchMessages calls fn with the new list after every write to MessagesKey, including writes made
// by other processes sharing the kv store. Deletions and undecodable values are ignored.
func (s *LocalStore) WatchMessages(fn func([]Message)) Subscription {
	return s.kv.Watch(MessagesKey, func(value string, ok bool) {
		if !ok {
			return
		}

		messages, err := decodeList(value)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Ignoring undecodable message list broadcast.")
			return
		}

		fn(messages)
	})
}

// DeleteExpiredMessages drops messages whose millisecond id is older than Window.
func (s *LocalStore) DeleteExpiredMessages(ctx context.Context) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.GetMessages(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Expired message sweep could not read history.")
		return 0, false
	}

	cutoff := s.now().Add(-Window).UnixMilli()
	kept := messages[:0:0]
	for _, m := range messages {
		if m.ID >= cutoff {
			kept = append(kept, m)
		}
	}

	removed := int64(len(messages) - len(kept))
	if removed == 0 {
		return 0, true
	}

	if err := s.save(ctx, kept); err != nil {
		s.logger.Warn().Err(err).Msg("Expired message sweep could not write history.")
		return 0, false
	}

	observability.AddExpiredDeleted(removed)
	return removed, true
}

func (s *LocalStore) save(ctx context.Context, messages []Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	if err := s.kv.Set(ctx, MessagesKey, string(raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	return nil
}

func decodeList(raw string) ([]Message, error) {
	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %w", ErrStore, err)
	}

	if messages == nil {
		messages = []Message{}
	}

	return messages, nil
}
