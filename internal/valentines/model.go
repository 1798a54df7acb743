package valentines

import (
	"errors"
	"time"
)

const (
	// MaxNameLength caps the sender name and wall display name.
	MaxNameLength = 100
	// MaxReasonLength caps the "reason" free-text field.
	MaxReasonLength = 2000
	// MaxMessageLength caps the message body.
	MaxMessageLength = 5000
	// MaxReactionLength caps the owner's reaction value.
	MaxReactionLength = 16
)

var (
	// ErrMissingName indicates the sender name was empty after trimming.
	ErrMissingName = errors.New("valentines: name is required")
	// ErrMissingDate indicates the date field was empty.
	ErrMissingDate = errors.New("valentines: date is required")
	// ErrRecipientNotFound indicates the target profile does not exist.
	ErrRecipientNotFound = errors.New("valentines: recipient profile not found")
	// ErrValentineNotFound indicates no valentine exists for the identifier.
	ErrValentineNotFound = errors.New("valentines: valentine not found")
	// ErrNotOwner indicates the valentine belongs to a different profile.
	ErrNotOwner = errors.New("valentines: valentine belongs to another profile")
)

// Valentine models a message left for a profile owner by a visitor.
type Valentine struct {
	ID              string    `gorm:"column:id;primaryKey;size:36;not null"`
	ProfileID       string    `gorm:"column:profile_id;size:36;not null;index:idx_valentines_profile_created,priority:1"`
	Name            string    `gorm:"column:name;size:100;not null"`
	Email           string    `gorm:"column:email;size:320"`
	Date            string    `gorm:"column:date;size:64;not null"`
	Reason          string    `gorm:"column:reason;type:text"`
	Message         string    `gorm:"column:message;type:text"`
	PhotoURL        string    `gorm:"column:photo_url;size:512"`
	ShowOnWall      bool      `gorm:"column:show_on_wall;not null;default:false"`
	WallDisplayName string    `gorm:"column:wall_display_name;size:100"`
	PhotoPublic     bool      `gorm:"column:photo_public;not null;default:false"`
	Reaction        string    `gorm:"column:reaction;size:16"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index:idx_valentines_profile_created,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Valentine) TableName() string {
	return "valentines"
}

// SubmitRequest describes a visitor's valentine submission.
type SubmitRequest struct {
	ProfileID       string
	Name            string
	Email           string
	Date            string
	Reason          string
	Message         string
	PhotoURL        string
	ShowOnWall      bool
	WallDisplayName string
	PhotoPublic     bool
}

// WallEntry is the public projection of a valentine shown on the wall of love.
// Photos marked private are omitted and the display name falls back to the
// sender name when no wall name was given.
type WallEntry struct {
	ID              string
	WallDisplayName string
	PhotoURL        string
	Message         string
	Reason          string
	Date            string
	Reaction        string
	CreatedAt       time.Time
}
