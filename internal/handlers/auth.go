package handlers

import (
	"net/http"
	"strings"

	"github.com/eldtechnologies/omnidesk/internal/api/middleware"
	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/metrics"
	"github.com/eldtechnologies/omnidesk/internal/models"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an operator.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Email: u.Email, Name: u.Name, Role: u.Role}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.ds.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("login: user lookup failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil || !crypto.CheckPassword(user.PasswordHash, req.Password) {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		h.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := crypto.NewToken()
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	if err := h.tokens.SaveToken(r.Context(), token, user.ID, h.tokenTTL); err != nil {
		h.logger.Error().Err(err).Msg("login: save token failed")
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	h.logger.Info().Str("user_id", user.ID.String()).Msg("operator logged in")

	h.JSON(w, http.StatusOK, LoginResponse{Token: token, User: userResponse(user)})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"user": userResponse(user)})
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenFromContext(r.Context())
	if err := h.tokens.RevokeToken(r.Context(), token); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
