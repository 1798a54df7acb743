package profiles

import (
	"regexp"
	"strings"
)

// reservedUsernames are forbidden because they collide with static routes of
// the web application. The set is fixed product policy, checked after folding.
var reservedUsernames = map[string]struct{}{
	"setup":     {},
	"dashboard": {},
	"auth":      {},
	"api":       {},
	"admin":     {},
	"wall":      {},
	"settings":  {},
	"profile":   {},
}

var usernameAlphabet = regexp.MustCompile(`^[a-z0-9_-]+$`)

// FoldUsername normalizes a raw candidate for validation, comparison, and storage.
func FoldUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateUsername decides whether a folded candidate is acceptable without
// consulting the store. The length floor is checked before the alphabet so
// callers can surface "too short" rather than a generic format error.
func ValidateUsername(candidate string) error {
	if len(candidate) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if len(candidate) > MaxUsernameLength || !usernameAlphabet.MatchString(candidate) {
		return ErrUsernameInvalid
	}
	if _, reserved := reservedUsernames[candidate]; reserved {
		return ErrUsernameReserved
	}
	return nil
}

// Availability answers whether a candidate username could currently be claimed.
// Reason carries the rejection sentinel when Available is false.
type Availability struct {
	Available bool
	Reason    error
}
