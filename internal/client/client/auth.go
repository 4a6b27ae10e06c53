package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
)

type registerResponse struct {
	User   models.User `json:"user"`
	Tokens tokens.Pair `json:"tokens"`
}

// Login exchanges credentials for a token pair. Rejected credentials come
// back as *ValidationError.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (tokens.Pair, error) {
	var pair tokens.Pair
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/api/auth/login/",
		Body:      models.LoginRequest{Email: email, Password: password},
		Anonymous: true,
	}, &pair)
	return pair, err
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (models.User, tokens.Pair, error) {
	var resp registerResponse
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/api/auth/register/",
		Body:      req,
		Anonymous: true,
	}, &resp)
	return resp.User, resp.Tokens, err
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/auth/user/"}, &u)
	return u, err
}

func (c *HTTPClient) SendVerification(ctx context.Context, email string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/send-verification/",
		Body:   map[string]string{"email": email},
	}, nil)
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, email, code string) error {
	return c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/api/auth/verify-email/",
		Body:      map[string]string{"email": email, "code": code},
		Anonymous: true,
	}, nil)
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/api/auth/request-password-reset/",
		Body:      map[string]string{"email": email},
		Anonymous: true,
	}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, code, password, password2 string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/reset-password/",
		Body: map[string]string{
			"email":     email,
			"code":      code,
			"password":  password,
			"password2": password2,
		},
		Anonymous: true,
	}, nil)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := c.Do(ctx, Request{Method: http.MethodPatch, Path: "/api/profiles/", Body: upd}, &p)
	return p, err
}
