package app

import (
	"context"
	"fmt"

	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/services/accounts"
	"github.com/linkcart/affiliate_backend/internal/app/services/banners"
	catalogsvc "github.com/linkcart/affiliate_backend/internal/app/services/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/services/categories"
	"github.com/linkcart/affiliate_backend/internal/app/services/commission"
	"github.com/linkcart/affiliate_backend/internal/app/services/withdrawals"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/app/storage/memory"
	"github.com/linkcart/affiliate_backend/internal/app/system"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Categories   storage.CategoryStore
	Users        storage.UserStore
	Clicks       storage.ClickStore
	Transactions storage.TransactionStore
	Banners      storage.BannerStore
	Withdrawals  storage.WithdrawalStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Accounts    *accounts.Service
	Categories  *categories.Service
	Commission  *commission.Service
	Banners     *banners.Service
	Withdrawals *withdrawals.Service
	Catalog     *catalogsvc.Client
}

// New builds a fully initialised application with the provided stores and
// product catalog credentials.
func New(stores Stores, creds catalog.Credentials, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Categories == nil {
		stores.Categories = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Clicks == nil {
		stores.Clicks = mem
	}
	if stores.Transactions == nil {
		stores.Transactions = mem
	}
	if stores.Banners == nil {
		stores.Banners = mem
	}
	if stores.Withdrawals == nil {
		stores.Withdrawals = mem
	}

	manager := system.NewManager()

	acctService := accounts.New(stores.Users, log)
	categoryService := categories.New(stores.Categories, log)
	commissionService := commission.New(stores.Categories, stores.Users, stores.Clicks, stores.Transactions, log)
	bannerService := banners.New(stores.Banners, log)
	withdrawalService := withdrawals.New(stores.Withdrawals, stores.Users, stores.Transactions, log)
	catalogClient := catalogsvc.New(creds, log)

	for _, name := range []string{"accounts", "categories", "commission", "banners", "withdrawals", "catalog"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:     manager,
		log:         log,
		Accounts:    acctService,
		Categories:  categoryService,
		Commission:  commissionService,
		Banners:     bannerService,
		Withdrawals: withdrawalService,
		Catalog:     catalogClient,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
