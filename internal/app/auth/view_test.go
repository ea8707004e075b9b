package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/app/user"
)

type stubCredentials struct {
	register Result
	login    Result
	calls    int
}

func (s *stubCredentials) Register(context.Context, string, string) Result {
	s.calls++
	return s.register
}

func (s *stubCredentials) Login(context.Context, string, string) Result {
	s.calls++
	return s.login
}

func TestLoginViewNotConfigured(t *testing.T) {
	creds := &stubCredentials{}
	v := NewLoginView(creds, false, nil)
	v.SetCredentials("Bob", "pw")

	res := v.Submit(context.Background(), ModeLogin)

	assert.False(t, res.Success)
	assert.Equal(t, "التطبيق غير مهيأ. الرجاء اتباع التعليمات لإضافة مفاتيح الاتصال.", v.Snapshot().Error)
	assert.Zero(t, creds.calls)
}

func TestLoginViewRegisterSuccessClearsForm(t *testing.T) {
	creds := &stubCredentials{register: Result{Success: true, Message: "تم إنشاء الحساب بنجاح!", User: &user.User{ID: "u1", Name: "Bob"}}}
	loggedIn := false
	v := NewLoginView(creds, true, func(user.User) { loggedIn = true })
	v.SetCredentials("Bob", "pw")

	var snapshots []LoginSnapshot
	v.OnChange(func(s LoginSnapshot) { snapshots = append(snapshots, s) })

	v.Submit(context.Background(), ModeRegister)

	assert.Equal(t, LoginSnapshot{
		Configured: true,
		Success:    "تم إنشاء الحساب بنجاح! يمكنك الآن تسجيل الدخول.",
	}, v.Snapshot())
	assert.False(t, loggedIn, "registering does not log in")

	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].Loading)
	assert.False(t, snapshots[1].Loading)
}

func TestLoginViewLoginSuccess(t *testing.T) {
	bob := user.User{ID: "u1", Name: "Bob"}
	creds := &stubCredentials{login: Result{Success: true, Message: "تم تسجيل الدخول بنجاح!", User: &bob}}

	var got user.User
	v := NewLoginView(creds, true, func(u user.User) { got = u })
	v.SetCredentials("Bob", "pw")

	v.Submit(context.Background(), ModeLogin)

	assert.Equal(t, bob, got)
	assert.Empty(t, v.Snapshot().Error)
}

func TestLoginViewFailureShowsStoreMessage(t *testing.T) {
	creds := &stubCredentials{login: Result{Message: "اسم المستخدم أو كلمة المرور غير صحيحة"}}
	v := NewLoginView(creds, true, func(user.User) { t.Fatal("onLogin must not run") })
	v.SetCredentials("Bob", "wrong")

	v.Submit(context.Background(), ModeLogin)

	s := v.Snapshot()
	assert.Equal(t, "اسم المستخدم أو كلمة المرور غير صحيحة", s.Error)
	assert.Equal(t, "Bob", s.Username)
	assert.False(t, s.Loading)
}

func TestLoginViewWithRealStore(t *testing.T) {
	store, _ := newLocalStore(t)

	var got user.User
	v := NewLoginView(store, true, func(u user.User) { got = u })

	v.SetCredentials("Bob", "pw")
	require.True(t, v.Submit(context.Background(), ModeRegister).Success)

	v.SetCredentials("bob", "pw")
	require.True(t, v.Submit(context.Background(), ModeLogin).Success)
	assert.Equal(t, "Bob", got.Name)
}

// gatedCredentials blocks Login until release is closed.
type gatedCredentials struct {
	started chan string
	release chan struct{}
}

func (g *gatedCredentials) Register(context.Context, string, string) Result { return Result{} }

func (g *gatedCredentials) Login(_ context.Context, username, _ string) Result {
	g.started <- username
	<-g.release
	return Result{Success: true, User: &user.User{ID: "u1", Name: username}}
}

func TestLoginViewKeepsCredentialsWhileSubmitting(t *testing.T) {
	creds := &gatedCredentials{started: make(chan string, 1), release: make(chan struct{})}

	var got user.User
	v := NewLoginView(creds, true, func(u user.User) { got = u })

	done := make(chan Result, 1)
	go func() {
		done <- v.SubmitCredentials(context.Background(), ModeLogin, "alice", "pw")
	}()
	assert.Equal(t, "alice", <-creds.started)

	assert.Equal(t, Result{}, v.SubmitCredentials(context.Background(), ModeLogin, "mallory", "x"))
	v.SetCredentials("eve", "y")

	s := v.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, "alice", s.Username)

	close(creds.release)
	require.True(t, (<-done).Success)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "alice", v.Snapshot().Username)
}
