/*
Package chat runs the browser-facing side of the chat.

A Tab is one open browser tab: it owns a session holder, a login view and, once signed in, a chat
View, and turns their state into events for the browser. A Client carries a Tab over a WebSocket
connection and the Manager keeps track of every connected Client.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"majlis/internal/app/auth"
	"majlis/internal/app/message"
	"majlis/internal/app/session"
	"majlis/internal/app/user"
	"majlis/internal/observability"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/randx"
)

// CommandType names a command sent by the browser.
type CommandType string

const (
	CommandLogin      CommandType = "login"
	CommandRegister   CommandType = "register"
	CommandLogout     CommandType = "logout"
	CommandInput      CommandType = "input"
	CommandEmoji      CommandType = "emoji"
	CommandSelectFile CommandType = "select_file"
	CommandClearFile  CommandType = "clear_file"
	CommandSend       CommandType = "send"
)

// EventType names an event pushed to the browser.
type EventType string

const (
	EventLoginState EventType = "login_state"
	EventChatState  EventType = "chat_state"
	EventSession    EventType = "session"
	EventError      EventType = "error"
)

func (c CommandType) metricLabel() string {
	switch c {
	case CommandLogin, CommandRegister, CommandLogout, CommandInput, CommandEmoji,
		CommandSelectFile, CommandClearFile, CommandSend:
		return string(c)
	}
	return "unknown"
}

// Command is an inbound frame.
type Command struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound frame.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// CredentialsPayload is the payload of login and register.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// InputPayload is the payload of input.
type InputPayload struct {
	Text string `json:"text"`
}

// EmojiPayload is the payload of emoji.
type EmojiPayload struct {
	Emoji string `json:"emoji"`
}

// SessionPayload tells the browser which token to keep. An empty token means signed out.
type SessionPayload struct {
	Token string     `json:"token"`
	User  *user.User `json:"user,omitempty"`
}

// ErrorPayload carries a failure that did not change any view state.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TabDeps are the stores shared by every tab.
type TabDeps struct {
	Credentials auth.Credentials
	Messages    message.Store
	Configured  bool
	JWTSecret   string
}

// Tab is the server-side state of one browser tab.
type Tab struct {
	ID string

	deps   TabDeps
	holder *session.Holder
	login  *auth.LoginView
	chat   atomic.Pointer[View]

	// ctx is set by Start and scopes every store call of the tab. It is never cancelled, so a
	// disconnect does not abort a send or fetch already in flight.
	ctx context.Context

	emit func(Event)

	// pending tracks commands still running in the background.
	pending sync.WaitGroup

	logger zerolog.Logger
}

// NewTab returns a tab that reports to emit. emit may be called from several goroutines.
func NewTab(deps TabDeps, emit func(Event)) *Tab {
	id, _ := randx.Base62(12)

	t := &Tab{
		ID:     id,
		deps:   deps,
		holder: session.NewHolder(kv.NewMemory(), deps.JWTSecret),
		ctx:    context.Background(),
		emit:   emit,
		logger: logx.Component("tab").With().Str("tab_id", id).Logger(),
	}

	t.login = auth.NewLoginView(deps.Credentials, deps.Configured, t.signIn)
	t.login.OnChange(func(s auth.LoginSnapshot) {
		if t.chat.Load() == nil {
			t.emit(Event{Type: EventLoginState, Payload: s})
		}
	})

	return t
}

// Start restores the session from the token the browser kept and shows the matching screen.
func (t *Tab) Start(ctx context.Context, token string) {
	t.ctx = context.WithoutCancel(ctx)

	if token != "" {
		if err := t.holder.Adopt(ctx, token); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to adopt browser session token.")
		}
	}

	u, ok := t.holder.Restore(ctx)
	if !ok {
		if token != "" {
			t.emit(Event{Type: EventSession, Payload: SessionPayload{}})
		}
		t.emit(Event{Type: EventLoginState, Payload: t.login.Snapshot()})
		return
	}

	t.logger.Info().Str("user_id", u.ID).Msg("Session restored.")
	t.mountChat(u)
}

// Handle decodes and runs one command. Login, register and send run in the background so the tab
// keeps accepting input while they are in flight.
func (t *Tab) Handle(raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		t.logger.Warn().Err(err).Msg("Tab sent invalid JSON.")
		t.emitError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	observability.IncCommand(cmd.Type.metricLabel())

	switch cmd.Type {
	case CommandLogin, CommandRegister:
		var p CredentialsPayload
		if !t.decode(cmd.Payload, &p) {
			return
		}
		mode := auth.ModeLogin
		if cmd.Type == CommandRegister {
			mode = auth.ModeRegister
		}
		t.background(func() {
			t.login.SubmitCredentials(t.ctx, mode, p.Username, p.Password)
		})

	case CommandLogout:
		t.signOut()

	case CommandInput, CommandEmoji, CommandSelectFile, CommandClearFile, CommandSend:
		v := t.chat.Load()
		if v == nil {
			t.emitError(errs.NewError(errs.ErrUnauthorized))
			return
		}
		t.handleChat(v, cmd)

	default:
		t.logger.Warn().Str("command", string(cmd.Type)).Msg("Tab sent unsupported command.")
		t.emitError(errs.NewError(errs.ErrInvalidParams))
	}
}

func (t *Tab) handleChat(v *View, cmd Command) {
	switch cmd.Type {
	case CommandInput:
		var p InputPayload
		if t.decode(cmd.Payload, &p) {
			v.SetInput(p.Text)
		}

	case CommandEmoji:
		var p EmojiPayload
		if t.decode(cmd.Payload, &p) {
			v.InsertEmoji(p.Emoji)
		}

	case CommandSelectFile:
		var a message.Attachment
		if !t.decode(cmd.Payload, &a) {
			return
		}
		if err := v.SelectFile(a); err != nil {
			t.emitError(err)
		}

	case CommandClearFile:
		v.ClearFile()

	case CommandSend:
		t.background(func() {
			err := v.Send(t.ctx)
			if errors.Is(err, message.ErrEmpty) || errors.Is(err, message.ErrTooLong) {
				t.emitError(err)
			}
		})
	}
}

// Close releases the chat view's subscriptions. In-flight commands are not cancelled.
func (t *Tab) Close() {
	if v := t.chat.Swap(nil); v != nil {
		v.Unmount()
	}
}

// Wait blocks until background commands have finished.
func (t *Tab) Wait() {
	t.pending.Wait()
}

// User returns the signed-in user, if any.
func (t *Tab) User() (user.User, bool) {
	if v := t.chat.Load(); v != nil {
		return v.user, true
	}
	return user.User{}, false
}

func (t *Tab) signIn(u user.User) {
	token, err := t.holder.Save(t.ctx, u)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to save session.")
		t.emitError(errs.NewError(errs.ErrUnknown))
		return
	}

	t.logger.Info().Str("user_id", u.ID).Msg("Signed in.")
	t.emit(Event{Type: EventSession, Payload: SessionPayload{Token: token, User: &u}})
	t.mountChat(u)
}

func (t *Tab) signOut() {
	if v := t.chat.Swap(nil); v != nil {
		v.Unmount()
	}

	if err := t.holder.Clear(t.ctx); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to clear session.")
	}

	t.emit(Event{Type: EventSession, Payload: SessionPayload{}})
	t.login.Reset()
}

func (t *Tab) mountChat(u user.User) {
	v := NewView(t.deps.Messages, t.deps.Configured, u)
	v.OnChange(func(s Snapshot) {
		// A view replaced by a sign-out may still finish a fetch; its state is no longer shown.
		if t.chat.Load() == v {
			t.emit(Event{Type: EventChatState, Payload: s})
		}
	})

	if old := t.chat.Swap(v); old != nil {
		old.Unmount()
	}

	v.Mount(t.ctx)
}

func (t *Tab) background(fn func()) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		fn()
	}()
}

func (t *Tab) decode(payload json.RawMessage, dst any) bool {
	if len(payload) == 0 {
		t.emitError(errs.NewError(errs.ErrInvalidParams))
		return false
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		t.logger.Warn().Err(err).Msg("Tab sent invalid command payload.")
		t.emitError(errs.NewError(errs.ErrInvalidParams))
		return false
	}

	return true
}

func (t *Tab) emitError(err error) {
	var customErr *errs.CustomError
	if !errors.As(err, &customErr) {
		switch {
		case errors.Is(err, message.ErrEmpty):
			customErr = errs.NewError(errs.ErrMessageEmpty)
		case errors.Is(err, message.ErrTooLong):
			customErr = errs.NewError(errs.ErrMessageContentTooLong)
		default:
			customErr = errs.NewError(errs.ErrUnknown)
		}
	}

	t.emit(Event{Type: EventError, Payload: ErrorPayload{Code: customErr.Code, Message: customErr.Message}})
}
