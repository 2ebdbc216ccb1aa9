package users

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserStore is the slice of the Users repository the authenticator needs
type UserStore interface {
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Register(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// AuthResult is the outcome of a successful registration or login
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	User        *PublicUser `json:"user"`
}

// Auther orchestrates the credential lifecycle: registration and login
type Auther struct {
	store        UserStore
	tokenService TokenService
	hashCost     int
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenLifetime(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	cost := opts.GetHashCost()
	if cost == 0 {
		cost = DefaultHashCost
	}

	return &Auther{
		store:        store,
		tokenService: tokenService,
		hashCost:     cost,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new user: uniqueness check, hash, persist, issue token.
// Both the pre-check and a late unique violation from the store surface as
// the same generic conflict; the caller never learns which field collided.
func (s *Auther) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	taken, err := s.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.logger.Error("Register uniqueness check error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check user uniqueness")
	}

	if taken {
		return nil, ErrUserTaken
	}

	hash, err := HashPasswordCost(password, s.hashCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Register(ctx, &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if IsUniqueViolation(err) || IsConflict(err) {
			// lost the check-then-act race; same outcome as the pre-check
			return nil, ErrUserTaken
		}
		s.logger.Error("Register create user error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user")
	}

	token, err := s.tokenService.Generate(IdentityFromUser(user))
	if err != nil {
		s.logger.Error("Register token generation error", "error", err)
		return nil, err
	}

	return &AuthResult{
		AccessToken: token,
		User:        user.Public(),
	}, nil
}

// Login verifies a username/password pair and issues a fresh token. Unknown
// usernames, wrong passwords, and inactive accounts all return
// ErrInvalidCredentials so the response cannot be used to enumerate accounts.
func (s *Auther) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.IsActive {
		s.logger.Warn("Login blocked for inactive user", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login password comparison error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify credentials")
	}

	token, err := s.tokenService.Generate(IdentityFromUser(user))
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return nil, err
	}

	return &AuthResult{
		AccessToken: token,
		User:        user.Public(),
	}, nil
}

var _ Authenticator = (*Auther)(nil)
