package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthtrackhq/backend/internal/cache"
	"go.uber.org/zap"
)

// foodListPrompt keeps the model response terse and mechanically splittable.
const foodListPrompt = "List only the food items in this image, separated by commas. Be concise. Example: eggs, toast, coffee"

// cacheKeyPrefixBytes bounds how much of the encoded payload feeds the cache
// key. Hashing the whole image buys little: the cache is advisory and
// TTL-bounded, so the collision risk of a fixed prefix is an accepted
// trade-off for cheap keys.
const cacheKeyPrefixBytes = 100

var (
	errMissingCache      = errors.New("vision: cache store is required")
	errMissingRecognizer = errors.New("vision: recognizer is required")

	// ErrAnalysisUnavailable marks a transport or response-shape failure.
	// It is distinct from an empty result: the caller reports an analysis
	// error, not "no food found".
	ErrAnalysisUnavailable = errors.New("vision: image analysis unavailable")
)

// AnalyzerConfig describes the dependencies of an Analyzer.
type AnalyzerConfig struct {
	Cache      *cache.Store
	Recognizer Recognizer
	Logger     *zap.Logger
	// ResultTTL overrides how long recognized food lists stay cached.
	ResultTTL time.Duration
}

// Analyzer turns an image payload into an ordered list of food item names,
// caching recognition results keyed by a prefix of the encoded payload.
type Analyzer struct {
	cache      *cache.Store
	recognizer Recognizer
	logger     *zap.Logger
	resultTTL  time.Duration
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.Cache == nil {
		return nil, errMissingCache
	}
	if cfg.Recognizer == nil {
		return nil, errMissingRecognizer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.ResultTTL
	if ttl <= 0 {
		ttl = cache.VisionTTL
	}
	return &Analyzer{cache: cfg.Cache, recognizer: cfg.Recognizer, logger: logger, resultTTL: ttl}, nil
}

// IdentifyFoods returns the food item names recognized in the image. A non-nil
// empty slice means the recognizer answered but found nothing; an error wraps
// ErrAnalysisUnavailable and means the call itself failed.
func (a *Analyzer) IdentifyFoods(ctx context.Context, imageBytes []byte) ([]string, error) {
	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	key := cache.ComputeKey([]byte(keyPrefix(encoded)))

	var cached []string
	found, err := a.cache.Get(ctx, cache.ClassVision, key, &cached)
	if err != nil {
		a.logger.Error("vision cache read failed", zap.Error(err))
	} else if found {
		return cached, nil
	}

	text, err := a.recognizer.Describe(ctx, "image/jpeg", encoded, foodListPrompt)
	if err != nil {
		a.logger.Error("image recognition call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Warn("image recognition returned no text")
		return []string{}, nil
	}

	items := splitFoodList(text)
	a.logger.Info("image recognition identified foods", zap.Strings("foods", items))

	if err := a.cache.Put(ctx, cache.ClassVision, key, items, a.resultTTL); err != nil {
		a.logger.Error("vision cache write failed", zap.Error(err))
	}
	return items, nil
}

func keyPrefix(encoded string) string {
	if len(encoded) > cacheKeyPrefixBytes {
		return encoded[:cacheKeyPrefixBytes]
	}
	return encoded
}

func splitFoodList(text string) []string {
	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
