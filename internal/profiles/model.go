package profiles

import (
	"errors"
	"time"
)

const (
	// MaxDisplayNameLength caps the trimmed display name.
	MaxDisplayNameLength = 50
	// MinUsernameLength is the shortest claimable username.
	MinUsernameLength = 3
	// MaxUsernameLength is the longest claimable username.
	MaxUsernameLength = 30
	// MaxUsernameChanges bounds how many times an owner may rename.
	MaxUsernameChanges = 3
)

var (
	// ErrUnauthenticated indicates the caller supplied no owner identity.
	ErrUnauthenticated = errors.New("profiles: owner identity required")
	// ErrMissingDisplayName indicates the trimmed display name was empty.
	ErrMissingDisplayName = errors.New("profiles: display name required")
	// ErrUsernameTooShort indicates a candidate shorter than the minimum length.
	ErrUsernameTooShort = errors.New("profiles: username must be at least 3 characters")
	// ErrUsernameInvalid indicates a candidate outside the allowed alphabet or length.
	ErrUsernameInvalid = errors.New("profiles: username must be 3-30 letters, numbers, hyphens, or underscores")
	// ErrUsernameReserved indicates a candidate colliding with a static application route.
	ErrUsernameReserved = errors.New("profiles: username is reserved")
	// ErrUsernameSameAsCurrent indicates a rename target equal to the current username.
	ErrUsernameSameAsCurrent = errors.New("profiles: username matches the current one")
	// ErrUsernameTaken indicates another profile already holds the username.
	ErrUsernameTaken = errors.New("profiles: username is already taken")
	// ErrProfileExists indicates the owner already created a profile.
	ErrProfileExists = errors.New("profiles: profile already exists for this account")
	// ErrProfileNotFound indicates no profile exists for the lookup key.
	ErrProfileNotFound = errors.New("profiles: profile not found")
	// ErrRenameQuotaExceeded indicates the owner spent all username changes.
	ErrRenameQuotaExceeded = errors.New("profiles: username change limit reached")
	// ErrStoreUnavailable wraps unexpected profile store failures.
	ErrStoreUnavailable = errors.New("profiles: profile store unavailable")
)

// Profile is the per-owner record holding display name, username, avatar, and rename quota.
// Usernames are folded to lowercase before validation, comparison, and storage, so the
// unique index on the column is the commit-time arbiter for case-insensitive uniqueness.
type Profile struct {
	ID                  string    `gorm:"column:id;primaryKey;size:36;not null"`
	OwnerID             string    `gorm:"column:owner_id;size:190;not null;uniqueIndex:idx_profiles_owner"`
	DisplayName         string    `gorm:"column:display_name;size:50;not null"`
	Username            string    `gorm:"column:username;size:30;not null;uniqueIndex:idx_profiles_username"`
	AvatarURL           string    `gorm:"column:avatar_url;size:512"`
	UsernameChangeCount int       `gorm:"column:username_change_count;not null;default:0"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "profiles"
}
