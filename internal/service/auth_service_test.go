package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthRemote is a mock implementation of AuthRemote.
type MockAuthRemote struct {
	mock.Mock
}

func (m *MockAuthRemote) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

func (m *MockAuthRemote) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

func (m *MockAuthRemote) GoogleLogin(ctx context.Context, credential string) (*model.AuthResult, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

// MockSessions is a mock implementation of Sessions.
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Start(ctx context.Context, identity session.Identity) (*session.Workspace, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Workspace), args.Error(1)
}

func (m *MockSessions) End(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func TestAuthService_LoginValidation(t *testing.T) {
	tests := []struct {
		name    string
		creds   model.Credentials
		wantMsg string
	}{
		{name: "missing password", creds: model.Credentials{Email: "asha@example.in"}, wantMsg: "All fields are required"},
		{name: "blank email", creds: model.Credentials{Email: "  ", Password: "secret1"}, wantMsg: "All fields are required"},
		{name: "malformed email", creds: model.Credentials{Email: "asha.example.in", Password: "secret1"}, wantMsg: "Please enter a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remoteMock := new(MockAuthRemote)
			svc := NewAuthService(remoteMock, new(MockSessions), zerolog.Nop())

			_, err := svc.Login(context.Background(), tt.creds)

			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
			remoteMock.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_LoginStartsSession(t *testing.T) {
	ctx := context.Background()
	remoteMock := new(MockAuthRemote)
	sessions := new(MockSessions)
	creds := model.Credentials{Email: "asha@example.in", Password: "secret1"}

	remoteMock.On("Login", ctx, creds).
		Return(&model.AuthResult{Token: "opaque", UserID: "u1", Name: "Asha", Email: "asha@example.in", IsAdmin: true}, nil)
	sessions.On("Start", ctx, mock.MatchedBy(func(id session.Identity) bool {
		return id.Token == "opaque" && id.UserID == "u1" && id.IsAdmin
	})).Return(&session.Workspace{ID: "sid-1"}, nil)

	got, err := NewAuthService(remoteMock, sessions, zerolog.Nop()).Login(ctx, creds)

	require.NoError(t, err)
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, model.Account{ID: "u1", Name: "Asha", Email: "asha@example.in", IsAdmin: true}, got.User)
}

func TestAuthService_LoginRejected(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "server message", err: &remote.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}, wantMsg: "Invalid email or password"},
		{name: "transport failure", err: errors.New("connection refused"), wantMsg: "Login failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remoteMock := new(MockAuthRemote)
			remoteMock.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := NewAuthService(remoteMock, new(MockSessions), zerolog.Nop()).
				Login(context.Background(), model.Credentials{Email: "asha@example.in", Password: "wrong1"})

			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.wantMsg, authErr.Message)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	valid := model.Registration{Name: "Asha", Email: "asha@example.in", Password: "secret1", ConfirmPassword: "secret1"}

	tests := []struct {
		name    string
		mutate  func(r *model.Registration)
		wantMsg string
	}{
		{name: "missing confirmation", mutate: func(r *model.Registration) { r.ConfirmPassword = "" }, wantMsg: "All fields are required"},
		{name: "short name", mutate: func(r *model.Registration) { r.Name = "A" }, wantMsg: "Name must be at least 2 characters"},
		{name: "bad email", mutate: func(r *model.Registration) { r.Email = "asha@" }, wantMsg: "Please enter a valid email"},
		{name: "short password", mutate: func(r *model.Registration) { r.Password, r.ConfirmPassword = "abc", "abc" }, wantMsg: "Password must be at least 6 characters"},
		{name: "mismatch", mutate: func(r *model.Registration) { r.ConfirmPassword = "secret2" }, wantMsg: "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.mutate(&reg)

			_, err := NewAuthService(new(MockAuthRemote), new(MockSessions), zerolog.Nop()).Register(context.Background(), reg)

			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestAuthService_RegisterWithoutToken(t *testing.T) {
	ctx := context.Background()
	reg := model.Registration{Name: "Asha", Email: "asha@example.in", Password: "secret1", ConfirmPassword: "secret1"}
	remoteMock := new(MockAuthRemote)
	sessions := new(MockSessions)
	remoteMock.On("Register", ctx, reg).Return(&model.AuthResult{UserID: "u1"}, nil)

	got, err := NewAuthService(remoteMock, sessions, zerolog.Nop()).Register(ctx, reg)

	require.NoError(t, err)
	assert.Empty(t, got.SessionID)
	assert.Equal(t, "Asha", got.User.Name)
	sessions.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestAuthService_GoogleLoginFailureUsesFixedMessage(t *testing.T) {
	remoteMock := new(MockAuthRemote)
	remoteMock.On("GoogleLogin", mock.Anything, "cred").
		Return(nil, &remote.APIError{Status: http.StatusBadRequest, Message: "audience mismatch"})

	_, err := NewAuthService(remoteMock, new(MockSessions), zerolog.Nop()).GoogleLogin(context.Background(), "cred")

	require.Error(t, err)
	assert.Equal(t, "Google login failed. Please try again.", err.Error())
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessions)
	sessions.On("End", ctx, "sid-1").Return(nil).Once()
	svc := NewAuthService(new(MockAuthRemote), sessions, zerolog.Nop())

	require.NoError(t, svc.Logout(ctx, "sid-1"))
	assert.ErrorIs(t, svc.Logout(ctx, ""), model.ErrAuthRequired)
	sessions.AssertExpectations(t)
}
