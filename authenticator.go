package userapi

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// Authenticator exchanges credentials for signed tokens
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
}

// LoginResult is the token pair handed out on successful login
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Auther struct {
	users      *UserService
	tokens     TokenService
	tokenTTL   time.Duration
	refreshTTL time.Duration
	logger     Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users *UserService, tokens TokenService, tokenTTL, refreshTTL time.Duration) *Auther {
	return &Auther{
		users:      users,
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
		logger:     defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// Login verifies credentials and issues an access and refresh token pair.
// Missing accounts and wrong passwords collapse into the same credentials
// error; anything else propagates as is.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.users.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.IsNotFound(err) || HasTextCode(err, TextCodeInvalidPassword) {
			s.logger.Info("login rejected", "identifier", identifier)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login verify identity error", "error", err)
		return nil, err
	}

	subject := strconv.FormatInt(user.ID, 10)
	roles := []string{user.Role}

	access, err := s.tokens.Issue(subject, roles, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(subject, roles, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("issued token pair", "user_id", user.ID)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokenTTL / time.Second),
	}, nil
}
