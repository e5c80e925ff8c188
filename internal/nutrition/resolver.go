package nutrition

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errMissingDatabase = errors.New("nutrition: database handle is required")

// genericFallback is the answer of last resort. Resolution never fails: when
// every other tier is exhausted the caller still receives this usable
// estimate.
var genericFallback = Nutrition{Calories: 100, Protein: 5, Fat: 3, Carbohydrates: 15}

// ResolverConfig describes the dependencies of a Resolver.
type ResolverConfig struct {
	Database *gorm.DB
	// Lookup is the external nutrition API. Nil is a valid, expected
	// configuration: resolution then stops at the estimate table.
	Lookup LookupClient
	Clock  func() time.Time
	Logger *zap.Logger
}

// Resolver answers nutrition queries for free-text food names through a
// strict priority chain: stored fact, built-in estimate table, external API,
// generic fallback. The first tier that produces a value wins.
type Resolver struct {
	db     *gorm.DB
	lookup LookupClient
	clock  func() time.Time
	logger *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
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
	return &Resolver{db: cfg.Database, lookup: cfg.Lookup, clock: clock, logger: logger}, nil
}

// Resolve returns the estimated nutrition for one reference serving (~150g)
// of the named food. It never returns an error: external failures degrade to
// the generic fallback.
func (r *Resolver) Resolve(ctx context.Context, foodName string) Nutrition {
	if base, ok := r.resolvePer100g(ctx, foodName); ok {
		return base.Scale(ReferenceServingScale)
	}
	return genericFallback
}

// ResolvePer100g returns the per-100g nutrition base for callers that apply
// their own portion multiplier. The generic fallback is returned on the same
// basis when nothing better is available.
func (r *Resolver) ResolvePer100g(ctx context.Context, foodName string) Nutrition {
	if base, ok := r.resolvePer100g(ctx, foodName); ok {
		return base
	}
	return genericFallback
}

// resolvePer100g walks the priority chain and reports whether a concrete
// per-100g base was found. false means the caller should use the fallback.
func (r *Resolver) resolvePer100g(ctx context.Context, foodName string) (Nutrition, bool) {
	if fact, found := r.storedFact(ctx, foodName); found {
		r.logger.Debug("nutrition resolved from food cache", zap.String("food", foodName))
		return fact.PerHundredGrams(), true
	}

	if base, matched, matchedKey := matchEstimate(foodName); matched {
		r.logger.Info("nutrition resolved from estimate table",
			zap.String("food", foodName),
			zap.String("matched", matchedKey))
		r.saveFact(ctx, foodName, base)
		return base, true
	}

	if r.lookup == nil {
		r.logger.Warn("no nutrition estimate and no lookup credential configured",
			zap.String("food", foodName))
		return Nutrition{}, false
	}

	description, err := r.lookup.FoodDescription(ctx, foodName)
	if err != nil {
		r.logger.Error("nutrition lookup failed",
			zap.String("food", foodName),
			zap.Error(err))
		return Nutrition{}, false
	}

	parsed := parseFoodDescription(description)
	if parsed.IsZero() {
		r.logger.Warn("nutrition description unparseable",
			zap.String("food", foodName),
			zap.String("description", description))
		return Nutrition{}, false
	}

	r.logger.Info("nutrition resolved from external lookup", zap.String("food", foodName))
	r.saveFact(ctx, foodName, parsed)
	return parsed, true
}

func (r *Resolver) storedFact(ctx context.Context, foodName string) (FoodFact, bool) {
	var fact FoodFact
	err := r.db.WithContext(ctx).
		Where("LOWER(food_name) = ?", strings.ToLower(foodName)).
		Take(&fact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FoodFact{}, false
	}
	if err != nil {
		r.logger.Error("food cache lookup failed",
			zap.String("food", foodName),
			zap.Error(err))
		return FoodFact{}, false
	}
	return fact, true
}

// saveFact upserts the per-100g base so future resolutions of the same name
// short-circuit at the first tier. Persistence failures only cost a future
// cache hit, so they are logged and swallowed.
func (r *Resolver) saveFact(ctx context.Context, foodName string, per100g Nutrition) {
	fact := FoodFact{
		FoodName:      foodName,
		Calories:      per100g.Calories,
		Protein:       per100g.Protein,
		Fat:           per100g.Fat,
		Carbohydrates: per100g.Carbohydrates,
		ServingSize:   "100g",
		LastUpdated:   r.clock().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "food_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"calories", "protein", "fat", "carbohydrates", "last_updated",
		}),
	}).Create(&fact).Error
	if err != nil {
		r.logger.Error("food cache write failed",
			zap.String("food", foodName),
			zap.Error(err))
	}
}

// matchEstimate scans the built-in table in order and returns the first entry
// whose name contains, or is contained by, the normalized query.
func matchEstimate(foodName string) (Nutrition, bool, string) {
	normalized := strings.TrimRight(strings.TrimSpace(strings.ToLower(foodName)), ".")
	if normalized == "" {
		return Nutrition{}, false, ""
	}
	for _, entry := range builtinEstimates {
		if strings.Contains(normalized, entry.name) || strings.Contains(entry.name, normalized) {
			return entry.per100g, true, entry.name
		}
	}
	return Nutrition{}, false, ""
}
