// Package categories manages the commission category rules that the
// resolution engine matches clicks against.
package categories

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	catalogsvc "github.com/linkcart/affiliate_backend/internal/app/services/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Input is the mutable portion of a category rule.
type Input struct {
	Name        string   `json:"name"`
	SearchIndex string   `json:"search_index,omitempty"`
	Percent     int      `json:"percent"`
	Keywords    []string `json:"keywords,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// Service exposes category rule CRUD with validation.
type Service struct {
	store storage.CategoryStore
	log   *logger.Logger
}

func New(store storage.CategoryStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("categories")
	}
	return &Service{store: store, log: log}
}

func (s *Service) validate(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, errors.Validation("name is required")
	}
	if in.Percent < 0 || in.Percent > 100 {
		return in, errors.Validation("percent must be between 0 and 100")
	}
	in.SearchIndex = strings.TrimSpace(in.SearchIndex)
	if in.SearchIndex == "" {
		// Derive a search index from the rule name so catalog searches for
		// this category land in a sensible index.
		in.SearchIndex = catalogsvc.ResolveSearchIndex(in.Name)
	} else if !catalogsvc.ValidSearchIndex(in.SearchIndex) {
		return in, errors.Validation("unknown search index: " + in.SearchIndex)
	}
	keywords := make([]string, 0, len(in.Keywords))
	for _, kw := range in.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	in.Keywords = keywords
	return in, nil
}

// Create adds a new category rule. Rules default to active.
func (s *Service) Create(ctx context.Context, in Input) (category.Rule, error) {
	in, err := s.validate(in)
	if err != nil {
		return category.Rule{}, err
	}
	rule := category.Rule{
		Name:        in.Name,
		SearchIndex: in.SearchIndex,
		Percent:     in.Percent,
		Keywords:    in.Keywords,
		Active:      true,
	}
	if in.Active != nil {
		rule.Active = *in.Active
	}
	rule, err = s.store.CreateCategory(ctx, rule)
	if err != nil {
		if stderrors.Is(err, storage.ErrConflict) {
			return category.Rule{}, errors.Conflict("category name already exists")
		}
		return category.Rule{}, errors.Internal("create category", err)
	}
	s.log.WithField("category_id", rule.ID).WithField("name", rule.Name).Info("category created")
	return rule, nil
}

// Update overwrites an existing rule.
func (s *Service) Update(ctx context.Context, id string, in Input) (category.Rule, error) {
	in, err := s.validate(in)
	if err != nil {
		return category.Rule{}, err
	}
	rule, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return category.Rule{}, translateStoreErr(err)
	}
	rule.Name = in.Name
	rule.SearchIndex = in.SearchIndex
	rule.Percent = in.Percent
	rule.Keywords = in.Keywords
	if in.Active != nil {
		rule.Active = *in.Active
	}
	rule, err = s.store.UpdateCategory(ctx, rule)
	if err != nil {
		return category.Rule{}, translateStoreErr(err)
	}
	return rule, nil
}

// Get returns one rule.
func (s *Service) Get(ctx context.Context, id string) (category.Rule, error) {
	rule, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return category.Rule{}, translateStoreErr(err)
	}
	return rule, nil
}

// Delete removes a rule. Clicks already resolved against it keep their rate.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// List returns all rules, including inactive ones.
func (s *Service) List(ctx context.Context) ([]category.Rule, error) {
	return s.store.ListCategories(ctx)
}

func translateStoreErr(err error) error {
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound("category")
	case stderrors.Is(err, storage.ErrConflict):
		return errors.Conflict("category name already exists")
	default:
		return errors.Internal("category storage", err)
	}
}
