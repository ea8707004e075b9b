package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"majlis/internal/app/message"
	"majlis/internal/app/user"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
)

// State is the phase of a chat view.
type State string

const (
	// StateUnconfigured shows the setup notice instead of the chat. It is terminal.
	StateUnconfigured State = "unconfigured"

	// StateLoading waits for the initial fetch. Feed messages may already be present.
	StateLoading State = "loading"

	// StateReady shows the history.
	StateReady State = "ready"
)

// Snapshot is the renderable state of a View.
type Snapshot struct {
	State    State               `json:"state"`
	User     user.User           `json:"user"`
	Messages []message.Message   `json:"messages"`
	Input    string              `json:"input"`
	File     *message.Attachment `json:"file,omitempty"`
	Error    string              `json:"error,omitempty"`
	Notice   string              `json:"notice,omitempty"`
	Sending  bool                `json:"sending"`
}

// View is the chat screen of one signed-in tab.
//
// With a store that pushes inserts, Mount subscribes and fetches concurrently: feed messages are
// appended in arrival order and the fetch result is placed in front of them when it lands, without
// de-duplication. With a store that broadcasts whole lists (message.Watcher), the history is read
// synchronously and replaced on every broadcast.
type View struct {
	mu sync.Mutex

	store      message.Store
	configured bool
	user       user.User
	onChange   func(Snapshot)

	state    State
	messages []message.Message
	input    string
	file     *message.Attachment
	errMsg   string
	sending  bool

	mounted bool
	sub     message.Subscription
	watch   message.Subscription

	// fetches tracks initial fetches still in flight.
	fetches sync.WaitGroup

	logger zerolog.Logger
}

// NewView returns an unmounted view for u. configured is false when the remote store still holds its
// placeholder settings.
func NewView(store message.Store, configured bool, u user.User) *View {
	return &View{
		store:      store,
		configured: configured,
		user:       u.Public(),
		state:      StateLoading,
		logger:     logx.Component("chat_view").With().Str("user_id", u.ID).Logger(),
	}
}

// OnChange sets the callback receiving a snapshot after every state change. It runs with the view
// locked and must not call back into the view.
func (v *View) OnChange(fn func(Snapshot)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Mount loads the history and starts listening for new messages. Mounting twice is a no-op.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()

	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.messages = nil

	if !v.configured {
		v.state = StateUnconfigured
		v.publishLocked()
		v.mu.Unlock()
		return
	}

	if watcher, ok := v.store.(message.Watcher); ok {
		v.mu.Unlock()
		v.mountWatched(ctx, watcher)
		return
	}

	v.state = StateLoading
	v.publishLocked()
	v.mu.Unlock()

	sub := v.store.SubscribeToMessages(v.appendMessage)
	if !v.keepSubscription(sub, false) {
		return
	}

	v.fetches.Add(1)
	go v.fetch(ctx)
}

func (v *View) mountWatched(ctx context.Context, watcher message.Watcher) {
	messages, err := v.store.GetMessages(ctx)
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to read message history.")
		messages = nil
	}

	v.mu.Lock()
	v.state = StateReady
	v.messages = messages
	v.publishLocked()
	v.mu.Unlock()

	v.keepSubscription(watcher.WatchMessages(v.replaceMessages), true)
}

// keepSubscription stores sub unless the view was unmounted meanwhile, in which case sub is
// released and false is returned.
func (v *View) keepSubscription(sub message.Subscription, isWatch bool) bool {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return false
	}

	if isWatch {
		v.watch = sub
	} else {
		v.sub = sub
	}
	v.mu.Unlock()

	return true
}

func (v *View) fetch(ctx context.Context) {
	defer v.fetches.Done()

	fetched, err := v.store.GetMessages(ctx)
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to fetch messages, showing an empty history.")
		fetched = nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	merged := make([]message.Message, 0, len(fetched)+len(v.messages))
	merged = append(merged, fetched...)
	v.messages = append(merged, v.messages...)
	v.state = StateReady
	v.publishLocked()
}

func (v *View) appendMessage(m message.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = append(v.messages, m)
	v.publishLocked()
}

func (v *View) replaceMessages(messages []message.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = messages
	v.publishLocked()
}

// Wait blocks until the initial fetch started by Mount has settled.
func (v *View) Wait() {
	v.fetches.Wait()
}

// SetInput replaces the input text.
func (v *View) SetInput(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.input = text
	v.publishLocked()
}

// InsertEmoji appends emoji to the input text.
func (v *View) InsertEmoji(emoji string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.input += emoji
	v.publishLocked()
}

// SelectFile attaches a after validating it.
func (v *View) SelectFile(a message.Attachment) error {
	a, customErr := ValidateAttachment(a)
	if customErr != nil {
		return customErr
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.file = &a
	v.publishLocked()
	return nil
}

// ClearFile drops the selected file.
func (v *View) ClearFile() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.file = nil
	v.publishLocked()
}

// Send submits the input and the selected file. Both are cleared before the store is called; on
// failure the input text comes back exactly as it was and the send error replaces any earlier one.
// A successful send adds nothing locally: the feed, or the reload of a watched store, shows it.
func (v *View) Send(ctx context.Context) error {
	v.mu.Lock()

	if v.state == StateUnconfigured {
		v.mu.Unlock()
		return errs.NewError(errs.ErrStoreNotConfigured)
	}

	input, file := v.input, v.file
	draft, err := message.Draft{Text: input, Attachment: file}.Normalize()
	if err != nil {
		v.mu.Unlock()
		return err
	}

	v.input = ""
	v.file = nil
	v.errMsg = ""
	v.sending = true
	v.publishLocked()
	v.mu.Unlock()

	err = v.store.SendMessage(ctx, v.user, draft)

	v.mu.Lock()
	v.sending = false
	if err != nil {
		v.input = input
		v.errMsg = errs.Message(errs.ErrMessageSendFailed)
		v.publishLocked()
		v.mu.Unlock()

		v.logger.Warn().Err(err).Msg("Message send failed.")
		return err
	}
	v.publishLocked()
	v.mu.Unlock()

	if _, watched := v.store.(message.Watcher); watched {
		v.reload(ctx)
	}

	return nil
}

func (v *View) reload(ctx context.Context) {
	messages, err := v.store.GetMessages(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Msg("Failed to reload messages after send.")
		return
	}

	v.replaceMessages(messages)
}

// Unmount stops listening for new messages. Requests already in flight are left to finish.
func (v *View) Unmount() {
	v.mu.Lock()
	v.mounted = false
	sub, watch := v.sub, v.watch
	v.sub, v.watch = nil, nil
	v.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if watch != nil {
		watch.Unsubscribe()
	}
}

// Snapshot returns the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    v.state,
		User:     v.user,
		Messages: append(make([]message.Message, 0, len(v.messages)), v.messages...),
		Input:    v.input,
		Error:    v.errMsg,
		Sending:  v.sending,
	}

	if v.file != nil {
		file := *v.file
		s.File = &file
	}

	if v.state == StateUnconfigured {
		s.Notice = errs.Message(errs.ErrStoreNotConfigured)
	}

	return s
}

func (v *View) publishLocked() {
	if v.onChange != nil {
		v.onChange(v.snapshotLocked())
	}
}
