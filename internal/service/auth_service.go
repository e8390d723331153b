package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/repository"
	"github.com/iliyamo/leadbook/internal/utils"
)

// AuthConfig holds the signing secret and hashing parameters.
type AuthConfig struct {
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
}

// Session is an issued session token for one user.
type Session struct {
	User  *model.User
	Token utils.SessionToken
}

// AuthService registers users, verifies credentials and turns session
// tokens back into identities.  It keeps no session state.
type AuthService struct {
	users UserStore
	cfg   AuthConfig
	log   logrus.FieldLogger
	// dummyHash is compared against when the email is unknown so a login
	// for a missing user costs the same bcrypt work.
	dummyHash string
}

func NewAuthService(users UserStore, cfg AuthConfig, log logrus.FieldLogger) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	dummy, err := utils.HashPassword("dummy-password-for-timing", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: bcrypt cost %d: %w", cfg.BcryptCost, err)
	}
	return &AuthService{users: users, cfg: cfg, log: log, dummyHash: dummy}, nil
}

// SessionTTL is the lifetime of issued tokens, used for the cookie Max-Age.
func (s *AuthService) SessionTTL() time.Duration { return s.cfg.SessionTTL }

// Register validates in, stores the user with a bcrypt hash of the password
// and issues a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: in.Email, PasswordHash: hash, FirstName: in.FirstName, LastName: in.LastName}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID}).Info("user registered")
	return s.issue(u)
}

// Login checks the credentials and issues a session.  Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(s.dummyHash, in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*Session, error) {
	tok, err := utils.NewSessionToken(s.cfg.Secret, u.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{User: u, Token: tok}, nil
}

// Authenticate verifies token and resolves it to the stored user.  Tokens
// of deleted users are rejected like any other invalid token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrUnauthenticated
	}
	sub, err := utils.ParseSessionToken(s.cfg.Secret, token)
	if err != nil {
		return model.Identity{}, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Identity{}, ErrUnauthenticated
		}
		return model.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	return model.Identity{UserID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}, nil
}

// EnsureUser creates the account described by in unless its email is
// already registered.  It reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, in RegisterInput) (bool, error) {
	in.normalize()
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if _, err := s.Register(ctx, in); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
