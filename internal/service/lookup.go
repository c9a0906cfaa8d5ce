package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/provider/openfoodfacts"
	"github.com/aazoaer/health-manager/internal/provider/usda"
)

const (
	ProviderOpenFoodFacts = "openfoodfacts"
	ProviderUSDA          = "usda"

	defaultLookupTTL = 24 * time.Hour
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// FoodResult is a food found by a provider, with nutrients per 100 g or ml.
type FoodResult struct {
	Provider      string          `json:"provider"`
	Barcode       string          `json:"barcode,omitempty"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	ServingAmount float64         `json:"serving_amount"`
	ServingUnit   string          `json:"serving_unit"`
	Per100        model.Nutrients `json:"per_100"`
	Completeness  string          `json:"completeness"`
	LookupTrail   []string        `json:"lookup_trail,omitempty"`
	FromCache     bool            `json:"from_cache,omitempty"`
}

// MealInput turns the result into a meal of amount unit.
func (r FoodResult) MealInput(amount float64, unit string) MealInput {
	refUnit := "g"
	if r.ServingUnit == "ml" {
		refUnit = "ml"
	}
	return MealInput{
		Name:      strings.TrimSpace(r.Brand + " " + r.Name),
		Amount:    amount,
		Unit:      unit,
		Nutrients: r.Per100,
		RefAmount: 100,
		RefUnit:   refUnit,
		Barcode:   r.Barcode,
	}
}

// FoodSource is one food database.
type FoodSource interface {
	Name() string
	LookupBarcode(ctx context.Context, barcode string) (FoodResult, error)
	SearchFoods(ctx context.Context, query string, limit int) ([]FoodResult, error)
}

type offSource struct{ client *openfoodfacts.Client }

func NewOpenFoodFactsSource(c *openfoodfacts.Client) FoodSource { return &offSource{client: c} }

func (s *offSource) Name() string { return ProviderOpenFoodFacts }

func (s *offSource) LookupBarcode(ctx context.Context, barcode string) (FoodResult, error) {
	p, err := s.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return FoodResult{}, err
	}
	return offResult(p), nil
}

func (s *offSource) SearchFoods(ctx context.Context, query string, limit int) ([]FoodResult, error) {
	items, err := s.client.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]FoodResult, 0, len(items))
	for _, p := range items {
		out = append(out, offResult(p))
	}
	return out, nil
}

func offResult(p openfoodfacts.Product) FoodResult {
	return FoodResult{
		Provider:      ProviderOpenFoodFacts,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Brand:         p.Brand,
		ServingAmount: p.ServingAmount,
		ServingUnit:   p.ServingUnit,
		Per100:        model.Nutrients(p.Per100),
	}
}

type usdaSource struct{ client *usda.Client }

func NewUSDASource(c *usda.Client) FoodSource { return &usdaSource{client: c} }

func (s *usdaSource) Name() string { return ProviderUSDA }

func (s *usdaSource) LookupBarcode(ctx context.Context, barcode string) (FoodResult, error) {
	f, err := s.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return FoodResult{}, err
	}
	return usdaResult(f), nil
}

func (s *usdaSource) SearchFoods(ctx context.Context, query string, limit int) ([]FoodResult, error) {
	items, err := s.client.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]FoodResult, 0, len(items))
	for _, f := range items {
		out = append(out, usdaResult(f))
	}
	return out, nil
}

func usdaResult(f usda.Food) FoodResult {
	return FoodResult{
		Provider:      ProviderUSDA,
		Barcode:       f.Barcode,
		Name:          f.Name,
		Brand:         f.Brand,
		ServingAmount: f.ServingAmount,
		ServingUnit:   f.ServingUnit,
		Per100:        model.Nutrients(f.Per100),
	}
}

type cachedFood struct {
	result  FoodResult
	expires time.Time
}

// FoodFinder queries sources in order. Barcode hits are cached in memory and
// concurrent lookups of one barcode share a single request.
type FoodFinder struct {
	sources []FoodSource
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	mu    sync.Mutex
	cache map[string]cachedFood
}

func NewFoodFinder(sources ...FoodSource) *FoodFinder {
	return &FoodFinder{sources: sources, ttl: defaultLookupTTL, now: time.Now, cache: map[string]cachedFood{}}
}

func (f *FoodFinder) LookupBarcode(ctx context.Context, barcode string) (FoodResult, error) {
	barcode = strings.TrimSpace(barcode)
	if !barcodePattern.MatchString(barcode) {
		return FoodResult{}, invalidf("invalid barcode %q (expected 8-14 digits)", barcode)
	}
	if len(f.sources) == 0 {
		return FoodResult{}, fmt.Errorf("no lookup providers configured")
	}

	f.mu.Lock()
	hit, ok := f.cache[barcode]
	f.mu.Unlock()
	if ok && f.now().Before(hit.expires) {
		hit.result.FromCache = true
		return hit.result, nil
	}

	v, err, _ := f.group.Do(barcode, func() (any, error) {
		return f.lookupUncached(ctx, barcode)
	})
	if err != nil {
		return FoodResult{}, err
	}
	return v.(FoodResult), nil
}

func (f *FoodFinder) lookupUncached(ctx context.Context, barcode string) (FoodResult, error) {
	trail := make([]string, 0, len(f.sources))
	errs := make([]string, 0, len(f.sources))
	for _, src := range f.sources {
		trail = append(trail, src.Name())
		result, err := src.LookupBarcode(ctx, barcode)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return FoodResult{}, err
			}
			errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		result.LookupTrail = trail
		result.Completeness = completeness(result.Per100)
		f.mu.Lock()
		f.cache[barcode] = cachedFood{result: result, expires: f.now().Add(f.ttl)}
		f.mu.Unlock()
		return result, nil
	}
	return FoodResult{}, fmt.Errorf("lookup failed for %q across providers [%s]: %w", barcode, strings.Join(errs, "; "), ErrNotFound)
}

// MaxSearchLimit bounds how many results one search may return.
const MaxSearchLimit = 50

// Completeness labels for a food's per-100 g nutrients.
const (
	CompletenessComplete = "complete"
	CompletenessPartial  = "partial"
	CompletenessMinimal  = "minimal"
)

// SearchFoods merges results from every source, dropping repeats of a
// barcode or of a brand and name seen earlier, and ranks complete nutrition
// first.
func (f *FoodFinder) SearchFoods(ctx context.Context, query string, limit int) ([]FoodResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxSearchLimit {
		return nil, invalidf("search limit must be at most %d", MaxSearchLimit)
	}
	seen := map[string]bool{}
	all := make([]FoodResult, 0, limit)
	for _, src := range f.sources {
		items, err := src.SearchFoods(ctx, query, limit)
		if err != nil {
			continue
		}
		for _, item := range items {
			name := "name:" + strings.ToLower(strings.TrimSpace(item.Brand)+"|"+strings.TrimSpace(item.Name))
			code := strings.TrimSpace(item.Barcode)
			if seen[name] || (code != "" && seen["code:"+code]) {
				continue
			}
			seen[name] = true
			if code != "" {
				seen["code:"+code] = true
			}
			item.Completeness = completeness(item.Per100)
			all = append(all, item)
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("search failed for %q across providers: %w", query, ErrNotFound)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return completenessRank(all[i].Completeness) > completenessRank(all[j].Completeness)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// completeness is complete when energy and all three macros are known,
// partial when some nutrient is, and minimal otherwise.
func completeness(n model.Nutrients) string {
	if len(n) == 0 {
		return CompletenessMinimal
	}
	for _, key := range []string{health.NutrientCalories, health.NutrientProtein, health.NutrientFat, health.NutrientCarbs} {
		if _, ok := n[key]; !ok {
			return CompletenessPartial
		}
	}
	return CompletenessComplete
}

func completenessRank(v string) int {
	switch v {
	case CompletenessComplete:
		return 2
	case CompletenessPartial:
		return 1
	default:
		return 0
	}
}
