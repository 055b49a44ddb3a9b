package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

const (
	loginFailed    = "Login failed. Please try again."
	registerFailed = "Registration failed. Please try again."
	googleFailed   = "Google login failed. Please try again."
)

// AuthRemote is the part of the store service that issues tokens.
type AuthRemote interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error)
	GoogleLogin(ctx context.Context, credential string) (*model.AuthResult, error)
}

// Sessions opens and closes workspaces.
type Sessions interface {
	Start(ctx context.Context, identity session.Identity) (*session.Workspace, error)
	End(ctx context.Context, sessionID string) error
}

// AuthError is a rejected sign-in. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type authService struct {
	remote   AuthRemote
	sessions Sessions
	logger   zerolog.Logger
}

// NewAuthService creates an authentication service.
func NewAuthService(remote AuthRemote, sessions Sessions, logger zerolog.Logger) AuthService {
	return &authService{
		remote:   remote,
		sessions: sessions,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, creds model.Credentials) (*SignedIn, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, model.NewValidationError("All fields are required")
	}
	if !checkout.ValidEmail(creds.Email) {
		return nil, model.NewValidationError("Please enter a valid email")
	}

	result, err := s.remote.Login(ctx, creds)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rejected")
		return nil, &AuthError{Message: remote.Message(err, loginFailed), Err: err}
	}
	return s.start(ctx, result)
}

func (s *authService) Register(ctx context.Context, reg model.Registration) (*SignedIn, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	result, err := s.remote.Register(ctx, reg)
	if err != nil {
		s.logger.Warn().Err(err).Msg("registration rejected")
		return nil, &AuthError{Message: remote.Message(err, registerFailed), Err: err}
	}
	if result.Token == "" {
		s.logger.Info().Str("email", reg.Email).Msg("account registered, login required")
		return &SignedIn{User: account(*result, reg)}, nil
	}
	return s.start(ctx, result)
}

func (s *authService) GoogleLogin(ctx context.Context, credential string) (*SignedIn, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, model.NewValidationError(googleFailed)
	}

	result, err := s.remote.GoogleLogin(ctx, credential)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google login rejected")
		return nil, &AuthError{Message: googleFailed, Err: err}
	}
	return s.start(ctx, result)
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return model.ErrAuthRequired
	}
	if err := s.sessions.End(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Msg("failed to end session")
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (s *authService) start(ctx context.Context, result *model.AuthResult) (*SignedIn, error) {
	identity := session.NewIdentity(*result)
	ws, err := s.sessions.Start(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", identity.UserID).Bool("is_admin", identity.IsAdmin).Msg("user signed in")
	return &SignedIn{
		SessionID: ws.ID,
		User: model.Account{
			ID:      identity.UserID,
			Name:    identity.Name,
			Email:   identity.Email,
			IsAdmin: identity.IsAdmin,
		},
	}, nil
}

func validateRegistration(reg model.Registration) error {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" || reg.ConfirmPassword == "" {
		return model.NewValidationError("All fields are required")
	}
	if len([]rune(reg.Name)) < 2 {
		return model.NewValidationError("Name must be at least 2 characters")
	}
	if !checkout.ValidEmail(reg.Email) {
		return model.NewValidationError("Please enter a valid email")
	}
	if len(reg.Password) < 6 {
		return model.NewValidationError("Password must be at least 6 characters")
	}
	if reg.Password != reg.ConfirmPassword {
		return model.NewValidationError("Passwords do not match")
	}
	return nil
}

func account(result model.AuthResult, reg model.Registration) model.Account {
	out := model.Account{ID: result.UserID, Name: result.Name, Email: result.Email, IsAdmin: result.IsAdmin}
	if out.Name == "" {
		out.Name = reg.Name
	}
	if out.Email == "" {
		out.Email = reg.Email
	}
	return out
}
