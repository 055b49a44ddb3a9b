package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, creds model.Credentials) (*service.SignedIn, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedIn), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, reg model.Registration) (*service.SignedIn, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedIn), args.Error(1)
}

func (m *MockAuthService) GoogleLogin(ctx context.Context, credential string) (*service.SignedIn, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedIn), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	creds := model.Credentials{Email: "asha@example.in", Password: "secret1"}

	tests := []struct {
		name           string
		mockReturn     *service.SignedIn
		mockError      error
		expectedStatus int
		expectCookie   bool
	}{
		{
			name:           "Signed in",
			mockReturn:     &service.SignedIn{SessionID: "sid-1", User: model.Account{ID: "u1", Name: "Asha"}},
			expectedStatus: http.StatusOK,
			expectCookie:   true,
		},
		{
			name:           "Rejected credentials",
			mockError:      &service.AuthError{Message: "Invalid email or password", Err: &remote.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Local validation",
			mockError:      model.NewValidationError("Please enter a valid email"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.mockReturn != nil {
				svc.On("Login", mock.Anything, creds).Return(tt.mockReturn, nil)
			} else {
				svc.On("Login", mock.Anything, creds).Return(nil, tt.mockError)
			}

			w := httptest.NewRecorder()
			NewAuthHandler(svc, time.Hour, zerolog.Nop()).Login(w,
				request(http.MethodPost, "/api/auth/login", `{"email":"asha@example.in","password":"secret1"}`, nil, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			cookie := sessionCookie(w)
			if tt.expectCookie {
				require.NotNil(t, cookie)
				assert.Equal(t, "sid-1", cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.Equal(t, 3600, cookie.MaxAge)
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}

func TestAuthHandler_RegisterWithoutSession(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Register", mock.Anything, mock.AnythingOfType("model.Registration")).
		Return(&service.SignedIn{User: model.Account{ID: "u1", Name: "Asha"}}, nil)

	w := httptest.NewRecorder()
	NewAuthHandler(svc, time.Hour, zerolog.Nop()).Register(w, request(http.MethodPost, "/api/auth/register",
		`{"name":"Asha","email":"asha@example.in","password":"secret1","confirmPassword":"secret1"}`, nil, nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, sessionCookie(w))
	assert.NotContains(t, w.Body.String(), "sessionId")
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, "sid-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer sid-1")
	w := httptest.NewRecorder()

	NewAuthHandler(svc, time.Hour, zerolog.Nop()).Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	svc.AssertExpectations(t)
}
