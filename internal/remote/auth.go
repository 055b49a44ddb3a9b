package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/internal/model"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	return c.authCall(ctx, "auth/login", creds, true)
}

// Register creates an account. Some deployments sign the account in straight away; otherwise
// the result carries no token and the caller has to log in.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	reg.ConfirmPassword = ""
	return c.authCall(ctx, "auth/register", reg, false)
}

// GoogleLogin exchanges a Google identity credential for a token.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*model.AuthResult, error) {
	body := struct {
		Credential string `json:"credential"`
	}{Credential: credential}
	return c.authCall(ctx, "auth/google", body, true)
}

// authCall accepts the user fields at the top level or nested under "user".
func (c *Client) authCall(ctx context.Context, path string, in interface{}, requireToken bool) (*model.AuthResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, nil, "", in, &raw); err != nil {
		return nil, err
	}

	var env struct {
		model.AuthResult
		User *model.AuthResult `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	result := env.AuthResult
	if env.User != nil {
		token := result.Token
		result = *env.User
		if requireToken && result.Token == "" {
			result.Token = token
		}
	}
	if requireToken && result.Token == "" {
		return nil, fmt.Errorf("auth response carried no token")
	}
	return &result, nil
}
