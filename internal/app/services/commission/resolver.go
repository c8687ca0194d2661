package commission

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	catalogsvc "github.com/linkcart/affiliate_backend/internal/app/services/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// DefaultFraction is the commission fraction applied when no category rule
// matches a click.
const DefaultFraction = 0.02

// Resolution is the outcome of the category/rate chain. Source names the
// step that produced it, for explainability.
type Resolution struct {
	Category string
	Fraction float64
	Source   string
}

const (
	sourceExplicit = "explicit"
	sourceSmartMap = "smart_map"
	sourceTermHint = "term_hint"
	sourceKeyword  = "keyword_sweep"
	sourceDefault  = "default"
)

// resolveInput carries the click fields the matchers inspect, plus the
// canonical name remembered from a zero-percentage explicit match.
type resolveInput struct {
	inputCategory string
	productName   string
	fallbackName  string
}

// matcher is one step of the precedence chain. A nil result means the step
// found nothing and the chain falls through; matchers never fail the chain.
type matcher func(ctx context.Context, in *resolveInput) *Resolution

// Resolver determines canonical category and commission fraction for a click
// through a layered matching strategy in strict precedence order.
type Resolver struct {
	categories storage.CategoryStore
	log        *logger.Logger
	chain      []matcher
}

// NewResolver constructs the resolution chain over the category store.
func NewResolver(categories storage.CategoryStore, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewDefault("commission-resolver")
	}
	r := &Resolver{categories: categories, log: log}
	r.chain = []matcher{
		r.matchExplicit,
		r.matchSmartMap,
		r.matchTermHint,
		r.matchKeywordSweep,
	}
	return r
}

// Resolve runs the chain, first confident match wins. It never fails: store
// errors are logged and treated as a non-match, and the chain always
// degrades to the default category and fraction.
func (r *Resolver) Resolve(ctx context.Context, inputCategory, productName string) Resolution {
	in := &resolveInput{
		inputCategory: strings.TrimSpace(inputCategory),
		productName:   strings.TrimSpace(productName),
	}

	for _, step := range r.chain {
		if res := step(ctx, in); res != nil {
			return *res
		}
	}

	name := click.Uncategorized
	if in.fallbackName != "" {
		name = in.fallbackName
	}
	return Resolution{Category: name, Fraction: DefaultFraction, Source: sourceDefault}
}

// isPlaceholder reports whether the input category carries no signal.
func isPlaceholder(text string) bool {
	switch strings.ToLower(text) {
	case "", "uncategorized", "unknown":
		return true
	}
	return false
}

// matchExplicit honors an administratively assigned category: exact
// case-insensitive match on rule name, search index or any keyword. A match
// with a zero percentage contributes only its canonical name.
func (r *Resolver) matchExplicit(ctx context.Context, in *resolveInput) *Resolution {
	if isPlaceholder(in.inputCategory) {
		return nil
	}
	rule, found, err := r.categories.FindCategoryByText(ctx, in.inputCategory)
	if err != nil {
		r.log.WithError(err).Warn("explicit category lookup failed")
		return nil
	}
	if !found {
		return nil
	}
	if rule.Percent <= 0 {
		in.fallbackName = rule.Name
		return nil
	}
	return &Resolution{Category: rule.Name, Fraction: rule.Fraction(), Source: sourceExplicit}
}

// matchSmartMap resolves the input category to a search index and looks for
// a rule carrying that index.
func (r *Resolver) matchSmartMap(ctx context.Context, in *resolveInput) *Resolution {
	if isPlaceholder(in.inputCategory) {
		return nil
	}
	index := catalogsvc.ResolveSearchIndex(in.inputCategory)
	if index == catalogsvc.SearchIndexAll {
		return nil
	}
	rule, ok := r.findActiveByIndex(ctx, index)
	if !ok || rule.Percent <= 0 {
		return nil
	}
	return &Resolution{Category: rule.Name, Fraction: rule.Fraction(), Source: sourceSmartMap}
}

// matchTermHint sniffs the product name for known terms and maps their hints
// to active rules.
func (r *Resolver) matchTermHint(ctx context.Context, in *resolveInput) *Resolution {
	if in.productName == "" {
		return nil
	}
	rules, err := r.categories.ListActiveCategories(ctx)
	if err != nil {
		r.log.WithError(err).Warn("active category listing failed")
		return nil
	}
	for _, hint := range termHints {
		if !wordBoundaryMatch(in.productName, hint.Term) {
			continue
		}
		for _, rule := range rules {
			if rule.Percent <= 0 {
				continue
			}
			if containsFold(rule.Name, hint.Hint) || containsFold(rule.SearchIndex, hint.Hint) {
				return &Resolution{Category: rule.Name, Fraction: rule.Fraction(), Source: sourceTermHint}
			}
		}
	}
	return nil
}

// matchKeywordSweep is the last resort: every active rule's own name and
// keywords are tested against the product name. Keywords shorter than three
// characters are skipped to avoid noise.
func (r *Resolver) matchKeywordSweep(ctx context.Context, in *resolveInput) *Resolution {
	if in.productName == "" {
		return nil
	}
	rules, err := r.categories.ListActiveCategories(ctx)
	if err != nil {
		r.log.WithError(err).Warn("active category listing failed")
		return nil
	}
	for _, rule := range rules {
		candidates := append([]string{rule.Name}, rule.Keywords...)
		for _, kw := range candidates {
			kw = strings.TrimSpace(kw)
			if len(kw) < 3 {
				continue
			}
			if wordBoundaryMatch(in.productName, kw) {
				return &Resolution{Category: rule.Name, Fraction: rule.Fraction(), Source: sourceKeyword}
			}
		}
	}
	return nil
}

func (r *Resolver) findActiveByIndex(ctx context.Context, index string) (category.Rule, bool) {
	rules, err := r.categories.ListActiveCategories(ctx)
	if err != nil {
		r.log.WithError(err).Warn("active category listing failed")
		return category.Rule{}, false
	}
	for _, rule := range rules {
		if strings.EqualFold(rule.SearchIndex, index) {
			return rule, true
		}
	}
	return category.Rule{}, false
}

// boundaryPatterns caches compiled word-boundary patterns keyed by the
// lowercased term. Terms come from the hint table and category keywords, a
// small stable set, so the cache stays bounded.
var boundaryPatterns sync.Map

// wordBoundaryMatch tests term against text anchored on word boundaries,
// with regex metacharacters escaped. The sweep calls this for every keyword
// of every rule on every click, so patterns compile once per distinct term.
func wordBoundaryMatch(text, term string) bool {
	if term == "" {
		return false
	}
	key := strings.ToLower(term)
	if cached, ok := boundaryPatterns.Load(key); ok {
		return cached.(*regexp.Regexp).MatchString(text)
	}
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(key) + `\b`)
	if err != nil {
		return false
	}
	actual, _ := boundaryPatterns.LoadOrStore(key, pattern)
	return actual.(*regexp.Regexp).MatchString(text)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
