package omnidesk

import (
	"context"
	"net/http"
)

// LoginRequest is the request body for /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response from /auth/login.
type LoginResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

type meResponse struct {
	User Identity `json:"user"`
}

// AuthAPI drives the session lifecycle against the /auth backend.
type AuthAPI struct {
	gw *Gateway
}

// NewAuthAPI builds the API on a gateway rooted at /auth.
func NewAuthAPI(gw *Gateway) *AuthAPI {
	return &AuthAPI{gw: gw}
}

// Login exchanges credentials for a token and stores it with the identity.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.gw.Do(ctx, http.MethodPost, "/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}

	a.gw.Session().Login(resp.Token, resp.User)
	return &resp, nil
}

// Me re-fetches the identity and replaces the stored one wholesale.
func (a *AuthAPI) Me(ctx context.Context) (*Identity, error) {
	if !a.gw.Session().IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var resp meResponse
	if err := a.gw.Do(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return nil, err
	}

	if !a.gw.Session().ReplaceIdentity(resp.User) {
		return nil, ErrNotAuthenticated
	}
	return &resp.User, nil
}

// Logout tells the backend to revoke the token and clears the session even
// when that call fails. The backend error, if any, is returned.
func (a *AuthAPI) Logout(ctx context.Context) error {
	if !a.gw.Session().IsAuthenticated() {
		a.gw.Session().Logout()
		return nil
	}

	err := a.gw.Do(ctx, http.MethodPost, "/logout", nil, nil)
	a.gw.Session().Logout()
	return err
}
