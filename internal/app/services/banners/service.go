// Package banners manages storefront promotional banners.
package banners

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/linkcart/affiliate_backend/internal/app/domain/banner"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Input is the mutable portion of a banner.
type Input struct {
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	TargetURL string `json:"target_url,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}

// Service exposes banner CRUD.
type Service struct {
	store storage.BannerStore
	log   *logger.Logger
}

func New(store storage.BannerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("banners")
	}
	return &Service{store: store, log: log}
}

func validate(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Title == "" {
		return in, errors.Validation("title is required")
	}
	if in.ImageURL == "" {
		return in, errors.Validation("image_url is required")
	}
	return in, nil
}

// Create adds a banner. Banners default to active.
func (s *Service) Create(ctx context.Context, in Input) (banner.Banner, error) {
	in, err := validate(in)
	if err != nil {
		return banner.Banner{}, err
	}
	b := banner.Banner{
		Title:     in.Title,
		ImageURL:  in.ImageURL,
		TargetURL: strings.TrimSpace(in.TargetURL),
		Active:    true,
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	b, err = s.store.CreateBanner(ctx, b)
	if err != nil {
		return banner.Banner{}, errors.Internal("create banner", err)
	}
	return b, nil
}

// Update overwrites a banner.
func (s *Service) Update(ctx context.Context, id string, in Input) (banner.Banner, error) {
	in, err := validate(in)
	if err != nil {
		return banner.Banner{}, err
	}
	b, err := s.store.GetBanner(ctx, id)
	if err != nil {
		return banner.Banner{}, translateStoreErr(err)
	}
	b.Title = in.Title
	b.ImageURL = in.ImageURL
	b.TargetURL = strings.TrimSpace(in.TargetURL)
	if in.Active != nil {
		b.Active = *in.Active
	}
	b, err = s.store.UpdateBanner(ctx, b)
	if err != nil {
		return banner.Banner{}, translateStoreErr(err)
	}
	return b, nil
}

// Get returns one banner.
func (s *Service) Get(ctx context.Context, id string) (banner.Banner, error) {
	b, err := s.store.GetBanner(ctx, id)
	if err != nil {
		return banner.Banner{}, translateStoreErr(err)
	}
	return b, nil
}

// Delete removes a banner.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBanner(ctx, id); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// List returns banners, optionally only active ones for the public
// storefront.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]banner.Banner, error) {
	return s.store.ListBanners(ctx, activeOnly)
}

func translateStoreErr(err error) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound("banner")
	}
	return errors.Internal("banner storage", err)
}
