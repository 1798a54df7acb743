package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// IDProvider issues identifiers for newly created profiles.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the profile service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service implements profile registration, username availability, and the
// quota-limited rename workflow on top of the profile store.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the profile service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("profiles: %w", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("profiles: %w", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CheckAvailability reports whether the candidate could currently be claimed.
// Format failures never touch the store. When currentUsername is supplied and
// equals the candidate after folding, the result is the same-as-current
// signal so rename callers can short-circuit without a lookup. The check is
// best-effort: the unique index on the username column remains the arbiter
// at commit time.
func (s *Service) CheckAvailability(ctx context.Context, candidate, currentUsername string) (Availability, error) {
	folded := FoldUsername(candidate)
	if err := ValidateUsername(folded); err != nil {
		return Availability{Available: false, Reason: err}, nil
	}
	if currentUsername != "" && FoldUsername(currentUsername) == folded {
		return Availability{Available: false, Reason: ErrUsernameSameAsCurrent}, nil
	}

	_, err := s.findByUsername(ctx, folded)
	if err == nil {
		return Availability{Available: false, Reason: ErrUsernameTaken}, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		return Availability{Available: true}, nil
	}
	return Availability{}, err
}

// CreateProfile registers the single profile for a newly authenticated owner.
func (s *Service) CreateProfile(ctx context.Context, ownerID, displayName, candidateUsername, avatarURL string) (*Profile, error) {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return nil, ErrUnauthenticated
	}

	name := trimDisplayName(displayName)
	if name == "" {
		return nil, ErrMissingDisplayName
	}

	username := FoldUsername(candidateUsername)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	if _, err := s.GetByOwner(ctx, owner); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	availability, err := s.CheckAvailability(ctx, username, "")
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, availability.Reason
	}

	profileID, err := s.idProvider.NewID()
	if err != nil {
		s.logError("create_profile", "id_generation_failed", err, zap.String("owner_id", owner))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	profile := Profile{
		ID:                  profileID,
		OwnerID:             owner,
		DisplayName:         name,
		Username:            username,
		AvatarURL:           strings.TrimSpace(avatarURL),
		UsernameChangeCount: 0,
		CreatedAt:           s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		// The pre-checks above are racy by design. A duplicate key here means
		// a concurrent writer won; translate rather than leak the store error.
		if isUniqueViolation(err) {
			if mentionsColumn(err, "owner_id") {
				return nil, ErrProfileExists
			}
			return nil, ErrUsernameTaken
		}
		s.logError("create_profile", "insert_failed", err, zap.String("owner_id", owner))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &profile, nil
}

// RenameUsername changes the owner's username, spending one unit of the
// rename quota. Renaming to the current name in any casing is a successful
// no-op that consumes no quota and performs no write.
func (s *Service) RenameUsername(ctx context.Context, ownerID, newUsername string) (*Profile, error) {
	profile, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	folded := FoldUsername(newUsername)
	if folded == profile.Username {
		return profile, nil
	}
	if err := ValidateUsername(folded); err != nil {
		return nil, err
	}
	// Quota before availability, so an exhausted owner sees the quota error
	// rather than a misleading "taken" for an otherwise valid name.
	if profile.UsernameChangeCount >= MaxUsernameChanges {
		return nil, ErrRenameQuotaExceeded
	}

	availability, err := s.CheckAvailability(ctx, folded, "")
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, availability.Reason
	}

	result := s.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ? AND username_change_count = ?", profile.ID, profile.UsernameChangeCount).
		Updates(map[string]interface{}{
			"username":              folded,
			"username_change_count": profile.UsernameChangeCount + 1,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, ErrUsernameTaken
		}
		s.logError("rename_username", "update_failed", result.Error,
			zap.String("owner_id", profile.OwnerID),
			zap.String("username", folded))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		// The change count moved underneath us; re-read to report what happened.
		current, readErr := s.GetByOwner(ctx, ownerID)
		if readErr != nil {
			return nil, readErr
		}
		if current.Username == folded {
			return current, nil
		}
		if current.UsernameChangeCount >= MaxUsernameChanges {
			return nil, ErrRenameQuotaExceeded
		}
		return nil, ErrUsernameTaken
	}

	profile.Username = folded
	profile.UsernameChangeCount++
	return profile, nil
}

// UpdateDisplayName replaces the owner's display name.
func (s *Service) UpdateDisplayName(ctx context.Context, ownerID, displayName string) error {
	name := trimDisplayName(displayName)
	if name == "" {
		return ErrMissingDisplayName
	}
	return s.updateOwnerColumn(ctx, ownerID, "display_name", name)
}

// UpdateAvatar replaces the owner's avatar URL. An empty URL clears it.
func (s *Service) UpdateAvatar(ctx context.Context, ownerID, avatarURL string) error {
	return s.updateOwnerColumn(ctx, ownerID, "avatar_url", strings.TrimSpace(avatarURL))
}

// GetByOwner returns the profile belonging to the owner identity.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (*Profile, error) {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	var profile Profile
	err := s.db.WithContext(ctx).Where("owner_id = ?", owner).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		s.logError("get_by_owner", "query_failed", err, zap.String("owner_id", owner))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &profile, nil
}

// GetByUsername returns the profile holding the username, compared after folding.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.findByUsername(ctx, FoldUsername(username))
}

// ProfileExists reports whether a profile with the given id exists. It backs
// the recipient check performed before storing a valentine.
func (s *Service) ProfileExists(ctx context.Context, profileID string) (bool, error) {
	if strings.TrimSpace(profileID) == "" {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", profileID).Count(&count).Error; err != nil {
		s.logError("profile_exists", "query_failed", err, zap.String("profile_id", profileID))
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

func (s *Service) findByUsername(ctx context.Context, folded string) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where("username = ?", folded).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		s.logError("find_by_username", "query_failed", err, zap.String("username", folded))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &profile, nil
}

func (s *Service) updateOwnerColumn(ctx context.Context, ownerID, column, value string) error {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return ErrUnauthenticated
	}
	result := s.db.WithContext(ctx).Model(&Profile{}).
		Where("owner_id = ?", owner).
		Update(column, value)
	if result.Error != nil {
		s.logError("update_profile", "update_failed", result.Error,
			zap.String("owner_id", owner),
			zap.String("column", column))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func trimDisplayName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)
	if len(runes) > MaxDisplayNameLength {
		return string(runes[:MaxDisplayNameLength])
	}
	return trimmed
}

// isUniqueViolation detects commit-time uniqueness conflicts. The glebarez
// sqlite driver does not implement gorm's error translator, so the sqlite
// message is inspected alongside gorm's translated sentinel.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func mentionsColumn(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), column)
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("profile service error", attrs...)
}
