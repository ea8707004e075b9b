/*
Package user defines the chat participant shared by the credential store, the session holder and
the message stores.
*/
package user

import "strings"

// User is a registered chat participant.
type User struct {
	// ID is immutable once assigned at registration.
	ID string `json:"id"`

	// Name is the display name, unique case-insensitively.
	Name string `json:"name"`

	// Password is only set on stored records, never on values handed to callers.
	Password string `json:"password,omitempty"`
}

// Public returns u without its password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// SameName reports whether a and b name the same user, ignoring case.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
