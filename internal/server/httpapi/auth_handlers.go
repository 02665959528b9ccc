package httpapi

import (
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type loginResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    loginUser `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, tokens, err := s.users.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "Logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
		User: loginUser{
			ID:          user.ID,
			Email:       user.Email,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			Role:        user.Role,
			Permissions: user.Permissions,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := s.users.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{Access: tokens.AccessToken, Refresh: tokens.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	if err := s.users.Logout(r.Context(), c.UserID); err != nil {
		s.handleServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
