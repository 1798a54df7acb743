package valentines

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

// ServiceError carries a dotted operation code for unexpected store failures.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "valentines.service.new"
	opSubmit       = "valentines.submit"
	opListWall     = "valentines.list_wall"
	opListForOwner = "valentines.list_for_owner"
	opReact        = "valentines.react"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// RecipientChecker answers whether a profile id exists, without exposing the
// profile package to this one.
type RecipientChecker interface {
	ProfileExists(ctx context.Context, profileID string) (bool, error)
}

// IDProvider issues identifiers for newly stored valentines.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the valentine service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Recipients RecipientChecker
	Logger     *zap.Logger
}

// Service stores and lists valentines and applies owner reactions.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	recipients RecipientChecker
	logger     *zap.Logger
}

// NewService constructs the valentine service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
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
		recipients: cfg.Recipients,
		logger:     logger,
	}, nil
}

// Submit stores a visitor's valentine for the recipient profile. Submission is
// unauthenticated; field lengths are clamped rather than rejected, matching
// what the form promises the visitor.
func (s *Service) Submit(ctx context.Context, request SubmitRequest) (*Valentine, error) {
	name := clamp(request.Name, MaxNameLength)
	if name == "" {
		return nil, ErrMissingName
	}
	if strings.TrimSpace(request.Date) == "" {
		return nil, ErrMissingDate
	}

	if s.recipients != nil {
		exists, err := s.recipients.ProfileExists(ctx, request.ProfileID)
		if err != nil {
			s.logError(opSubmit, "recipient_lookup_failed", err, zap.String("profile_id", request.ProfileID))
			return nil, newServiceError(opSubmit, "recipient_lookup_failed", err)
		}
		if !exists {
			return nil, ErrRecipientNotFound
		}
	}

	wallName := clamp(request.WallDisplayName, MaxNameLength)
	if wallName == "" {
		wallName = name
	}

	valentineID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSubmit, "id_generation_failed", err, zap.String("profile_id", request.ProfileID))
		return nil, newServiceError(opSubmit, "id_generation_failed", err)
	}

	valentine := Valentine{
		ID:              valentineID,
		ProfileID:       request.ProfileID,
		Name:            name,
		Email:           clamp(request.Email, 320),
		Date:            strings.TrimSpace(request.Date),
		Reason:          clamp(request.Reason, MaxReasonLength),
		Message:         clamp(request.Message, MaxMessageLength),
		PhotoURL:        strings.TrimSpace(request.PhotoURL),
		ShowOnWall:      request.ShowOnWall,
		WallDisplayName: wallName,
		PhotoPublic:     request.PhotoPublic,
		CreatedAt:       s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&valentine).Error; err != nil {
		s.logError(opSubmit, "insert_failed", err, zap.String("profile_id", request.ProfileID))
		return nil, newServiceError(opSubmit, "insert_failed", err)
	}

	return &valentine, nil
}

// ListWall returns the wall-visible valentines for a profile, newest first.
func (s *Service) ListWall(ctx context.Context, profileID string) ([]WallEntry, error) {
	var stored []Valentine
	if err := s.db.WithContext(ctx).
		Where("profile_id = ? AND show_on_wall = ?", profileID, true).
		Order("created_at DESC").
		Find(&stored).Error; err != nil {
		s.logError(opListWall, "query_failed", err, zap.String("profile_id", profileID))
		return nil, newServiceError(opListWall, "query_failed", err)
	}

	entries := make([]WallEntry, 0, len(stored))
	for _, valentine := range stored {
		photoURL := ""
		if valentine.PhotoPublic {
			photoURL = valentine.PhotoURL
		}
		displayName := valentine.WallDisplayName
		if displayName == "" {
			displayName = valentine.Name
		}
		entries = append(entries, WallEntry{
			ID:              valentine.ID,
			WallDisplayName: displayName,
			PhotoURL:        photoURL,
			Message:         valentine.Message,
			Reason:          valentine.Reason,
			Date:            valentine.Date,
			Reaction:        valentine.Reaction,
			CreatedAt:       valentine.CreatedAt,
		})
	}
	return entries, nil
}

// ListForOwner returns every valentine for the owner's dashboard, newest first.
func (s *Service) ListForOwner(ctx context.Context, profileID string) ([]Valentine, error) {
	var stored []Valentine
	if err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&stored).Error; err != nil {
		s.logError(opListForOwner, "query_failed", err, zap.String("profile_id", profileID))
		return nil, newServiceError(opListForOwner, "query_failed", err)
	}
	return stored, nil
}

// React sets or clears the owning profile's reaction on one of its valentines.
// Valentines belonging to a different profile are rejected.
func (s *Service) React(ctx context.Context, profileID, valentineID, reaction string) error {
	var valentine Valentine
	err := s.db.WithContext(ctx).Where("id = ?", valentineID).Take(&valentine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrValentineNotFound
	}
	if err != nil {
		s.logError(opReact, "query_failed", err, zap.String("valentine_id", valentineID))
		return newServiceError(opReact, "query_failed", err)
	}
	if valentine.ProfileID != profileID {
		return ErrNotOwner
	}

	if err := s.db.WithContext(ctx).Model(&Valentine{}).
		Where("id = ?", valentineID).
		Update("reaction", clamp(reaction, MaxReactionLength)).Error; err != nil {
		s.logError(opReact, "update_failed", err, zap.String("valentine_id", valentineID))
		return newServiceError(opReact, "update_failed", err)
	}
	return nil
}

func clamp(raw string, limit int) string {
	trimmed := strings.TrimSpace(raw)
	runes := []rune(trimmed)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return trimmed
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
	s.logger.Error("valentine service error", attrs...)
}
