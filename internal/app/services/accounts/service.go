// Package accounts manages storefront users, agents and their credentials.
package accounts

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// RegisterInput is a new account request.
type RegisterInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// Service handles registration, authentication and role management.
type Service struct {
	users storage.UserStore
	log   *logger.Logger
}

func New(users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{users: users, log: log}
}

// newReferralCode mints a short shareable code. Collisions are caught by the
// store's uniqueness guarantee at creation time.
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Register creates a new user account. A valid referral code links the new
// user to the referring agent permanently.
func (s *Service) Register(ctx context.Context, in RegisterInput) (account.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return account.User{}, errors.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return account.User{}, errors.Validation("password must be at least 8 characters")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return account.User{}, errors.Validation("name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return account.User{}, errors.Internal("hash password", err)
	}

	u := account.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         account.RoleUser,
		ReferralCode: newReferralCode(),
	}
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		referrer, err := s.users.GetUserByReferralCode(ctx, code)
		if err != nil || !referrer.CanSelfAttribute() {
			return account.User{}, errors.Validation("unknown referral code")
		}
		u.ReferrerID = referrer.ID
	}

	u, err = s.users.CreateUser(ctx, u)
	if err != nil {
		if stderrors.Is(err, storage.ErrConflict) {
			return account.User{}, errors.Conflict("email already registered")
		}
		return account.User{}, errors.Internal("create user", err)
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords produce the same error so login cannot probe for accounts.
func (s *Service) Login(ctx context.Context, email, password string) (account.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return account.User{}, errors.Unauthorized("invalid email or password")
		}
		return account.User{}, errors.Internal("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return account.User{}, errors.Unauthorized("invalid email or password")
	}
	return u, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (account.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return account.User{}, errors.NotFound("user")
		}
		return account.User{}, errors.Internal("load user", err)
	}
	return u, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]account.User, error) {
	return s.users.ListUsers(ctx)
}

// SetRole changes a user's role. Promoting to agent enables commission
// attribution for that user's referral code.
func (s *Service) SetRole(ctx context.Context, id string, role account.Role) (account.User, error) {
	switch role {
	case account.RoleUser, account.RoleAgent, account.RoleAdmin:
	default:
		return account.User{}, errors.Validation("unknown role: " + string(role))
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return account.User{}, err
	}
	u.Role = role
	u, err = s.users.UpdateUser(ctx, u)
	if err != nil {
		return account.User{}, errors.Internal("update user", err)
	}
	s.log.WithField("user_id", u.ID).WithField("role", string(role)).Info("role changed")
	return u, nil
}
