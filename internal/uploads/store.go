package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	// BucketValentinePhotos holds photos attached to valentine submissions.
	BucketValentinePhotos = "valentine-photos"
	// BucketProfileAvatars holds profile avatar images.
	BucketProfileAvatars = "profile-avatars"

	publicPathPrefix = "/media"
)

var errMissingBaseDir = errors.New("uploads: base directory is required")

// IDProvider issues the random component of stored file names.
type IDProvider interface {
	NewID() (string, error)
}

// StoreConfig describes the dependencies required by the upload store.
type StoreConfig struct {
	BaseDir    string
	MaxBytes   int64
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Store validates image uploads and writes them under the configured base
// directory, one subdirectory per bucket, served back under /media.
type Store struct {
	baseDir    string
	maxBytes   int64
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewStore constructs the upload store and ensures the bucket directories exist.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.BaseDir == "" {
		return nil, errMissingBaseDir
	}
	if cfg.IDProvider == nil {
		return nil, errors.New("uploads: id provider is required")
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, bucket := range []string{BucketValentinePhotos, BucketProfileAvatars} {
		if err := os.MkdirAll(filepath.Join(cfg.BaseDir, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("uploads: creating bucket directory: %w", err)
		}
	}
	return &Store{
		baseDir:    cfg.BaseDir,
		maxBytes:   maxBytes,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// MaxBytes exposes the configured size cap for request body limiting.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// BaseDir exposes the directory backing the store for static serving.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save validates the payload and writes it into the bucket, returning the
// public URL path of the stored file.
func (s *Store) Save(bucket, contentType string, data []byte) (string, error) {
	if bucket != BucketValentinePhotos && bucket != BucketProfileAvatars {
		return "", ErrUnknownBucket
	}
	if err := ValidateImage(contentType, data, s.maxBytes); err != nil {
		return "", err
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return "", fmt.Errorf("uploads: id generation: %w", err)
	}
	fileName := fmt.Sprintf("%d-%s.%s", s.clock().UTC().Unix(), id, extensionsByContentType[contentType])

	path := filepath.Join(s.baseDir, bucket, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("upload write failed", zap.String("bucket", bucket), zap.Error(err))
		return "", fmt.Errorf("uploads: writing file: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", publicPathPrefix, bucket, fileName), nil
}
