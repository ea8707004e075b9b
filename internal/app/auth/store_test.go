package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"majlis/internal/app/db"
	"majlis/internal/app/user"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/kv"
)

const (
	textMissing = "الرجاء إدخال اسم المستخدم وكلمة المرور"
	textTaken   = "اسم المستخدم موجود بالفعل"
	textInvalid = "اسم المستخدم أو كلمة المرور غير صحيحة"
	textGeneric = "حدث خطأ. الرجاء المحاولة مرة أخرى."
)

func newLocalStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	mem := kv.NewMemory()
	s := NewStore(NewLocalBackend(mem))
	s.cost = bcrypt.MinCost
	return s, mem
}

func storedUsers(t *testing.T, mem kv.Store) []user.User {
	t.Helper()
	users, err := NewLocalBackend(mem).load(context.Background())
	require.NoError(t, err)
	return users
}

func TestRegisterAndLogin(t *testing.T) {
	s, mem := newLocalStore(t)
	ctx := context.Background()

	res := s.Register(ctx, "Bob", "pw")
	require.True(t, res.Success)
	assert.Equal(t, "تم إنشاء الحساب بنجاح!", res.Message)
	require.NotNil(t, res.User)
	assert.Equal(t, "Bob", res.User.Name)
	assert.NotEmpty(t, res.User.ID)
	assert.Empty(t, res.User.Password)

	stored := storedUsers(t, mem)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "pw", stored[0].Password, "passwords are stored hashed")

	res = s.Login(ctx, "BOB", "pw")
	require.True(t, res.Success)
	assert.Equal(t, "تم تسجيل الدخول بنجاح!", res.Message)
	assert.Equal(t, stored[0].ID, res.User.ID)
	assert.Empty(t, res.User.Password)
}

func TestRegisterNameTakenIgnoringCase(t *testing.T) {
	s, mem := newLocalStore(t)
	ctx := context.Background()

	require.True(t, s.Register(ctx, "Bob", "pw").Success)

	res := s.Register(ctx, "bob", "pw2")
	assert.Equal(t, Result{Success: false, Message: textTaken, Code: errs.ErrUserAlreadyExists}, res)
	assert.Len(t, storedUsers(t, mem), 1)
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	s, _ := newLocalStore(t)
	ctx := context.Background()
	require.True(t, s.Register(ctx, "Bob", "pw").Success)

	wrongPassword := s.Login(ctx, "Bob", "wrong")
	unknownUser := s.Login(ctx, "Alice", "pw")

	assert.Equal(t, Result{Success: false, Message: textInvalid, Code: errs.ErrInvalidCredentials}, wrongPassword)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestMissingCredentials(t *testing.T) {
	s, mem := newLocalStore(t)
	ctx := context.Background()

	cases := []struct{ name, password string }{
		{"", "pw"},
		{"   ", "pw"},
		{"Bob", ""},
		{"Bob", " \t"},
	}

	for _, tc := range cases {
		assert.Equal(t, textMissing, s.Register(ctx, tc.name, tc.password).Message)
		assert.Equal(t, textMissing, s.Login(ctx, tc.name, tc.password).Message)
	}

	assert.Empty(t, storedUsers(t, mem))
}

func TestRegisterPasswordTooLongForBcrypt(t *testing.T) {
	s, mem := newLocalStore(t)

	res := s.Register(context.Background(), "Bob", strings.Repeat("x", 73))
	assert.False(t, res.Success)
	assert.Equal(t, textGeneric, res.Message)
	assert.Empty(t, storedUsers(t, mem))
}

func TestLocalBackendToleratesCorruptList(t *testing.T) {
	s, mem := newLocalStore(t)
	require.NoError(t, mem.Set(context.Background(), UsersKey, "[{"))

	assert.True(t, s.Register(context.Background(), "Bob", "pw").Success)
	assert.Len(t, storedUsers(t, mem), 1)
}

type userTablesMock struct {
	mock.Mock
}

func (m *userTablesMock) UserNameExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *userTablesMock) FindUsersByName(ctx context.Context, name string) ([]db.UserRow, error) {
	args := m.Called(ctx, name)
	var rows []db.UserRow
	if val := args.Get(0); val != nil {
		rows = val.([]db.UserRow)
	}
	return rows, args.Error(1)
}

func (m *userTablesMock) InsertUser(ctx context.Context, id, name, passwordHash string) error {
	return m.Called(ctx, id, name, passwordHash).Error(0)
}

func newRemoteStore(tables UserTables) *Store {
	s := NewStore(NewRemoteBackend(tables))
	s.cost = bcrypt.MinCost
	s.newID = func() string { return "7d8c6a0e-0000-4000-8000-000000000001" }
	return s
}

func TestRemoteRegister(t *testing.T) {
	tables := new(userTablesMock)
	tables.On("UserNameExists", mock.Anything, "Bob").Return(false, nil)
	tables.On("InsertUser", mock.Anything, "7d8c6a0e-0000-4000-8000-000000000001", "Bob", mock.AnythingOfType("string")).Return(nil)

	res := newRemoteStore(tables).Register(context.Background(), " Bob ", "pw")

	require.True(t, res.Success)
	assert.Equal(t, &user.User{ID: "7d8c6a0e-0000-4000-8000-000000000001", Name: "Bob"}, res.User)
	tables.AssertExpectations(t)
}

func TestRemoteRegisterLostRace(t *testing.T) {
	tables := new(userTablesMock)
	tables.On("UserNameExists", mock.Anything, "bob").Return(false, nil)
	tables.On("InsertUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"}))

	res := newRemoteStore(tables).Register(context.Background(), "bob", "pw")
	assert.Equal(t, textTaken, res.Message)
}

func TestRemoteNetworkFailures(t *testing.T) {
	tables := new(userTablesMock)
	tables.On("UserNameExists", mock.Anything, mock.Anything).Return(false, errors.New("dial tcp: timeout"))
	tables.On("FindUsersByName", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

	s := newRemoteStore(tables)

	reg := s.Register(context.Background(), "Bob", "pw")
	assert.False(t, reg.Success)
	assert.Equal(t, textGeneric, reg.Message)

	login := s.Login(context.Background(), "Bob", "pw")
	assert.False(t, login.Success)
	assert.Equal(t, textGeneric, login.Message)
}

func TestRemoteLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	tables := new(userTablesMock)
	tables.On("FindUsersByName", mock.Anything, "bob").
		Return([]db.UserRow{{ID: "u1", Name: "Bob", Password: string(hash)}}, nil)

	s := newRemoteStore(tables)

	ok := s.Login(context.Background(), "bob", "pw")
	require.True(t, ok.Success)
	assert.Equal(t, &user.User{ID: "u1", Name: "Bob"}, ok.User)

	bad := s.Login(context.Background(), "bob", "nope")
	assert.Equal(t, textInvalid, bad.Message)
}
