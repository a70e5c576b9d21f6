package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/utils"
)

// AuthConfig holds token and hashing parameters.
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// AuthService registers users and issues token pairs.
type AuthService struct {
	store *repository.Store
	cfg   AuthConfig
}

func NewAuthService(store *repository.Store, cfg AuthConfig) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// TokenPair is an access token plus the raw refresh token.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput is the self-service sign-up form.  The role is never taken
// from the caller.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (in RegisterInput) validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		v.Add("email", "must be a valid address")
	}
	if len(in.Password) < utils.MinPasswordLength {
		v.Add("password", "must have at least 8 characters")
	}
	return v.Err()
}

// Register creates a cliente and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, TokenPair, error) {
	u, err := s.createUser(ctx, in, model.RoleCustomer)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issue(ctx, s.store.Tokens, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// CreateAdmin bootstraps an administrador account.  It is only reachable
// from the command line.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.createUser(ctx, in, model.RoleAdministrator)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("email", "is already registered")
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a fresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	u, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issue(ctx, s.store.Tokens, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*model.User, TokenPair, error) {
	var (
		u    *model.User
		pair TokenPair
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
		uid, err := tx.Tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			return s.refreshErr(err)
		}
		if err := tx.Tokens.RevokeByHash(ctx, hash); err != nil {
			return err
		}
		if u, err = tx.Users.GetByID(ctx, uid); err != nil {
			return s.refreshErr(err)
		}
		pair, err = s.issue(ctx, tx.Tokens, u)
		return err
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// RefreshAccess issues a new access token without rotating raw.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	uid, err := s.store.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw)))
	if err != nil {
		return utils.AccessToken{}, s.refreshErr(err)
	}
	u, err := s.store.Users.GetByID(ctx, uid)
	if err != nil {
		return utils.AccessToken{}, s.refreshErr(err)
	}
	return utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL)
}

// Logout revokes raw when given, otherwise every token of the actor.
func (s *AuthService) Logout(ctx context.Context, a Actor, raw string) error {
	if raw = strings.TrimSpace(raw); raw != "" {
		return s.store.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	}
	if err := a.requireUser(); err != nil {
		return err
	}
	return s.store.Tokens.RevokeAllForUser(ctx, a.ID)
}

// Me loads the actor's own account.
func (s *AuthService) Me(ctx context.Context, a Actor) (*model.User, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, a.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user")
	}
	return u, err
}

func (s *AuthService) refreshErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

func (s *AuthService) issue(ctx context.Context, tokens *repository.TokenRepo, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
