package api

import (
	"context"
	"net/http"

	"carrental/internal/auth"
	"carrental/internal/db"
	"carrental/internal/entities"
	apperrors "carrental/internal/errors"
)

type Authenticator interface {
	Register(ctx context.Context, req *entities.RegisterRequest) (*entities.AuthResponse, error)
	Login(ctx context.Context, req *entities.LoginRequest) (*entities.AuthResponse, error)
	Profile(ctx context.Context, userID int64) (*db.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *entities.UpdateProfileRequest) (*db.User, error)
	ChangePassword(ctx context.Context, userID int64, req *entities.ChangePasswordRequest) error
}

type AuthHandler struct {
	Service Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{Service: svc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "User registered successfully", resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile retrieved successfully", map[string]any{"user": user})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), claims.UserID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req entities.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), claims.UserID, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// currentUser returns the claims Authenticate stored on the request.
func currentUser(r *http.Request) (*auth.Claims, error) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, apperrors.ErrUnauthorized("Access token required")
	}
	return claims, nil
}
