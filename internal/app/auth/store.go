/*
Package auth implements the credential store and the login view-model.

Store runs the register and login rules on top of a Backend, which is either the kv-backed user
list of the local variant or the users table of the remote variant. Passwords are kept as bcrypt
hashes in both.
*/
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"majlis/internal/app/user"
	"majlis/internal/observability"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/randx"
)

// ErrNameTaken is returned by a Backend when the insert collides with an existing name.
var ErrNameTaken = errors.New("user name already taken")

// Backend persists user records. Records carry the password hash.
type Backend interface {
	// NameExists reports whether a user with name exists, ignoring case.
	NameExists(ctx context.Context, name string) (bool, error)

	// FindByName returns the records whose name matches, ignoring case.
	FindByName(ctx context.Context, name string) ([]user.User, error)

	// Insert stores a new record.
	Insert(ctx context.Context, u user.User) error
}

// Result is the outcome of Register and Login. Message is the user-facing text.
type Result struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    *user.User `json:"user,omitempty"`

	// Code is the errs code of a failure, zero on success.
	Code int `json:"-"`
}

const (
	msgRegistered = "تم إنشاء الحساب بنجاح!"
	msgLoggedIn   = "تم تسجيل الدخول بنجاح!"
)

// Store validates and records credentials.
type Store struct {
	backend Backend
	cost    int
	newID   func() string
	logger  zerolog.Logger
}

// NewStore returns a Store on backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		cost:    bcrypt.DefaultCost,
		newID:   randx.UserID,
		logger:  logx.Component("credentials"),
	}
}

// Register creates a user. The existence check and the insert are separate calls; a backend-level
// conflict on the insert is reported the same way as a failed check.
func (s *Store) Register(ctx context.Context, name, password string) (result Result) {
	defer func() { observability.ObserveAuth("register", result.Success) }()

	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(password) == "" {
		return failure(errs.ErrMissingCredentials)
	}

	exists, err := s.backend.NameExists(ctx, name)
	if err != nil {
		s.logger.Error().Err(err).Msg("Name lookup failed during registration.")
		return failure(errs.ErrStoreUnavailable)
	}
	if exists {
		return failure(errs.ErrUserAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Password could not be hashed.")
		return failure(errs.ErrUnknown)
	}

	u := user.User{ID: s.newID(), Name: name, Password: string(hash)}

	if err := s.backend.Insert(ctx, u); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return failure(errs.ErrUserAlreadyExists)
		}
		s.logger.Error().Err(err).Msg("User insert failed.")
		return failure(errs.ErrStoreUnavailable)
	}

	s.logger.Info().Str("user_id", u.ID).Msg("User registered.")

	public := u.Public()
	return Result{Success: true, Message: msgRegistered, User: &public}
}

// Login returns the user whose name matches, ignoring case, and whose password verifies. Unknown
// names and wrong passwords produce the same result.
func (s *Store) Login(ctx context.Context, name, password string) (result Result) {
	defer func() { observability.ObserveAuth("login", result.Success) }()

	if strings.TrimSpace(name) == "" || strings.TrimSpace(password) == "" {
		return failure(errs.ErrMissingCredentials)
	}

	candidates, err := s.backend.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		s.logger.Error().Err(err).Msg("User lookup failed during login.")
		return failure(errs.ErrStoreUnavailable)
	}

	for _, candidate := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidate.Password), []byte(password)) == nil {
			public := candidate.Public()
			return Result{Success: true, Message: msgLoggedIn, User: &public}
		}
	}

	return failure(errs.ErrInvalidCredentials)
}

func failure(code int) Result {
	return Result{Message: errs.Message(code), Code: code}
}
