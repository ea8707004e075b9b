package auth

import (
	"context"
	"sync"

	"majlis/internal/app/user"
	"majlis/internal/pkg/errs"
)

// Mode selects what Submit does with the form.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

const registeredSuffix = " يمكنك الآن تسجيل الدخول."

// Credentials is what the login view needs from a credential store.
type Credentials interface {
	Register(ctx context.Context, name, password string) Result
	Login(ctx context.Context, name, password string) Result
}

// LoginSnapshot is the renderable state of a LoginView. The password never leaves the view.
type LoginSnapshot struct {
	Configured bool   `json:"configured"`
	Username   string `json:"username"`
	Error      string `json:"error,omitempty"`
	Success    string `json:"success,omitempty"`
	Loading    bool   `json:"loading"`
}

// LoginView holds the login form of one tab.
type LoginView struct {
	mu sync.Mutex

	creds      Credentials
	configured bool
	onLogin    func(user.User)
	onChange   func(LoginSnapshot)

	username string
	password string
	errMsg   string
	success  string
	loading  bool
}

// NewLoginView returns a view on creds. onLogin is called after a successful login. When
// configured is false every Submit fails with the not-configured notice.
func NewLoginView(creds Credentials, configured bool, onLogin func(user.User)) *LoginView {
	return &LoginView{
		creds:      creds,
		configured: configured,
		onLogin:    onLogin,
	}
}

// OnChange sets the callback receiving a snapshot after every state change.
func (v *LoginView) OnChange(fn func(LoginSnapshot)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// SetCredentials replaces the form fields. It is ignored while a submit is in flight.
func (v *LoginView) SetCredentials(username, password string) {
	v.mu.Lock()
	if !v.loading {
		v.username = username
		v.password = password
	}
	v.mu.Unlock()
}

// Submit sends the form in the given mode. A Submit while another is in flight is ignored.
func (v *LoginView) Submit(ctx context.Context, mode Mode) Result {
	v.mu.Lock()
	return v.submitLocked(ctx, mode)
}

// SubmitCredentials fills the form and submits it in one step. While another submit is in flight
// both the call and its credentials are ignored.
func (v *LoginView) SubmitCredentials(ctx context.Context, mode Mode, username, password string) Result {
	v.mu.Lock()
	if !v.loading {
		v.username = username
		v.password = password
	}
	return v.submitLocked(ctx, mode)
}

// submitLocked is called with mu held and releases it.
func (v *LoginView) submitLocked(ctx context.Context, mode Mode) Result {
	if !v.configured {
		v.errMsg = errs.Message(errs.ErrStoreNotConfigured)
		v.success = ""
		v.publishLocked()
		v.mu.Unlock()
		return failure(errs.ErrStoreNotConfigured)
	}

	if v.loading {
		v.mu.Unlock()
		return Result{}
	}

	v.errMsg = ""
	v.success = ""
	v.loading = true
	username, password := v.username, v.password
	v.publishLocked()
	v.mu.Unlock()

	var result Result
	if mode == ModeRegister {
		result = v.creds.Register(ctx, username, password)
	} else {
		result = v.creds.Login(ctx, username, password)
	}

	v.mu.Lock()
	v.loading = false

	loggedIn := false
	switch {
	case !result.Success:
		v.errMsg = result.Message
	case mode == ModeRegister:
		v.username = ""
		v.password = ""
		v.success = result.Message + registeredSuffix
	default:
		loggedIn = true
	}

	v.publishLocked()
	onLogin := v.onLogin
	v.mu.Unlock()

	if loggedIn && onLogin != nil && result.User != nil {
		onLogin(*result.User)
	}

	return result
}

// Reset clears the form and any message, as when the tab returns to the login screen.
func (v *LoginView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.username = ""
	v.password = ""
	v.errMsg = ""
	v.success = ""
	v.publishLocked()
}

// Snapshot returns the current state.
func (v *LoginView) Snapshot() LoginSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *LoginView) snapshotLocked() LoginSnapshot {
	return LoginSnapshot{
		Configured: v.configured,
		Username:   v.username,
		Error:      v.errMsg,
		Success:    v.success,
		Loading:    v.loading,
	}
}

// publishLocked calls onChange with the mutex held so snapshots arrive in state order. onChange
// must not call back into the view.
func (v *LoginView) publishLocked() {
	if v.onChange != nil {
		v.onChange(v.snapshotLocked())
	}
}
