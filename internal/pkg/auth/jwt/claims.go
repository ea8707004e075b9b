package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of a session token.
// It carries the signed-in user so a tab can be restored without a store round trip.
type Payload struct {
	jwt.StandardClaims

	// ID is the user's immutable identifier.
	ID string `json:"id"`

	// Name is the user's display name as registered.
	Name string `json:"name"`
}
