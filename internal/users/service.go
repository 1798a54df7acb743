package users

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/lovewall/internal/auth"
	"gorm.io/gorm"
)

const providerGoogle = "google"

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

// ServiceConfig describes the dependencies required for owner identity resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages canonical owner identifiers and provider-specific identities.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// ResolvedUser is the canonical identity plus the profile hints the provider
// reported, used to prefill first-time profile setup.
type ResolvedUser struct {
	OwnerID     string
	Email       string
	DisplayName string
	AvatarURL   string
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		cache: sync.Map{},
	}, nil
}

// ResolveOwner returns the canonical owner identity for verified Google claims,
// creating the identity mapping the first time the subject is seen and
// refreshing the stored profile hints on later sign-ins.
func (s *Service) ResolveOwner(claims auth.GoogleClaims) (ResolvedUser, error) {
	subject := normalize(claims.Subject)
	if subject == "" {
		return ResolvedUser{}, ErrInvalidIdentity
	}

	resolved := ResolvedUser{
		OwnerID:     subject,
		Email:       normalize(claims.Email),
		DisplayName: normalize(claims.Name),
		AvatarURL:   normalize(claims.Picture),
	}

	cacheKey := providerGoogle + ":" + subject
	if cachedIdentifier, ok := s.cache.Load(cacheKey); ok {
		if ownerID, ok := cachedIdentifier.(string); ok {
			resolved.OwnerID = ownerID
			s.refreshHints(subject, resolved)
			return resolved, nil
		}
	}

	var identity Identity
	err := s.db.
		Where("provider = ? AND subject = ?", providerGoogle, subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			Provider:    providerGoogle,
			Subject:     subject,
			OwnerID:     subject,
			Email:       resolved.Email,
			DisplayName: resolved.DisplayName,
			AvatarURL:   resolved.AvatarURL,
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return ResolvedUser{}, err
		}
	} else if err != nil {
		return ResolvedUser{}, err
	} else {
		s.refreshHints(subject, resolved)
	}

	resolved.OwnerID = identity.OwnerID
	s.cache.Store(cacheKey, identity.OwnerID)
	return resolved, nil
}

func (s *Service) refreshHints(subject string, resolved ResolvedUser) {
	updates := map[string]interface{}{"last_seen_at": s.now()}
	if resolved.Email != "" {
		updates["email"] = resolved.Email
	}
	if resolved.DisplayName != "" {
		updates["display_name"] = resolved.DisplayName
	}
	if resolved.AvatarURL != "" {
		updates["avatar_url"] = resolved.AvatarURL
	}
	_ = s.db.Model(&Identity{}).
		Where("provider = ? AND subject = ?", providerGoogle, subject).
		Updates(updates).
		Error
}
