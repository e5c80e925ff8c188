package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache classes partition the store. Keys are only unique within a class, and
// each class carries its own TTL policy.
const (
	// ClassGeneric holds raw external API responses.
	ClassGeneric = "generic"
	// ClassVision holds image recognition results, which stay valid far
	// longer than generic lookups.
	ClassVision = "vision"
)

const (
	// DefaultTTL applies to generic API responses.
	DefaultTTL = 24 * time.Hour
	// VisionTTL applies to image recognition results.
	VisionTTL = 7 * 24 * time.Hour
)

var errMissingDatabase = errors.New("cache: database handle is required")

// Entry is a cached external response. Expired rows may persist physically;
// they are invisible to Get and overwritten by the next Put for the same key.
type Entry struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	CacheClass   string    `gorm:"column:cache_class;size:32;not null;uniqueIndex:idx_api_cache_class_key,priority:1"`
	CacheKey     string    `gorm:"column:cache_key;size:64;not null;uniqueIndex:idx_api_cache_class_key,priority:2"`
	ResponseData string    `gorm:"column:response_data;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "api_cache"
}

// ComputeKey derives the content-addressed cache key for the given input.
// Identical input always produces the identical key.
func ComputeKey(input []byte) string {
	digest := sha256.Sum256(input)
	return hex.EncodeToString(digest[:])
}

// StoreConfig describes the dependencies of a Store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store is a durable key/value cache with per-entry expiry. It is safe for
// concurrent use; writes to the same key are last-writer-wins, which is
// acceptable because the cache is advisory, never authoritative.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewStore constructs a Store backed by the api_cache table.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Get decodes the cached payload for class+key into out and reports whether a
// live entry was found. A missing or expired entry is a miss, not an error.
func (s *Store) Get(ctx context.Context, class, key string, out any) (bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("cache_class = ? AND cache_key = ?", class, key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: lookup failed: %w", err)
	}
	if !entry.ExpiresAt.After(s.clock()) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(entry.ResponseData), out); err != nil {
		// A payload that no longer decodes is treated as a miss so the
		// caller recomputes and overwrites it.
		s.logger.Warn("cache entry undecodable",
			zap.String("cache_class", class),
			zap.String("cache_key", shortKey(key)),
			zap.Error(err))
		return false, nil
	}
	s.logger.Debug("cache hit",
		zap.String("cache_class", class),
		zap.String("cache_key", shortKey(key)))
	return true, nil
}

// Put upserts the entry for class+key with expiry now+ttl, replacing any
// previous payload for the same key.
func (s *Store) Put(ctx context.Context, class, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode payload: %w", err)
	}
	now := s.clock().UTC()
	entry := Entry{
		CacheClass:   class,
		CacheKey:     key,
		ResponseData: string(payload),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cache_class"}, {Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"response_data", "created_at", "expires_at",
		}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("cache: store entry: %w", err)
	}
	s.logger.Debug("cached response",
		zap.String("cache_class", class),
		zap.String("cache_key", shortKey(key)))
	return nil
}

func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
