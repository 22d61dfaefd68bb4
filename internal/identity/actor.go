package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actor is the identity every cart operation is keyed by. An authenticated
// shopper is identified by their account email; an anonymous shopper by a
// generated guest token that stays stable across page loads.
type Actor struct {
	ID          string
	Email       string
	DisplayName string
}

// IsGuest reports whether the actor is an anonymous shopper.
func (a Actor) IsGuest() bool {
	return a.Email == ""
}

// guestIDPattern matches tokens minted by NewGuestID: guest_<unix-millis>_<alnum>.
var guestIDPattern = regexp.MustCompile(`^guest_\d+_[a-z0-9]+$`)

// NewGuestID mints a guest token of the form guest_<unix-millis>_<random>.
// The random suffix is derived from a UUID so collisions within the same
// millisecond are not a practical concern.
func NewGuestID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("guest_%d_%s", now.UnixMilli(), suffix)
}

// IsGuestID reports whether the given string is a well-formed guest token.
// Tokens from older clients are accepted as long as they match the shape;
// malformed or tampered cookies are rejected and a fresh token is minted.
func IsGuestID(s string) bool {
	return guestIDPattern.MatchString(s)
}

// Guest builds an Actor for the given guest token.
func Guest(id string) Actor {
	return Actor{ID: id}
}

// Authenticated builds an Actor for a signed-in shopper. The account email is
// the stable identity the cart store keys on.
func Authenticated(email, displayName string) Actor {
	return Actor{ID: email, Email: email, DisplayName: displayName}
}
