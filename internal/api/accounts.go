package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/linkup/internal/storage"
	"github.com/louisbranch/linkup/internal/token"
)

type signupRequest struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type authResponse struct {
	Profile profilePayload `json:"profile"`
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Username == "" || req.PhoneNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, phone number and password are required")
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetUserByUsername(ctx, req.Username); err == nil {
		writeError(w, http.StatusBadRequest, "Username already taken")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}
	if _, err := h.store.GetUserByPhoneNumber(ctx, req.PhoneNumber); err == nil {
		writeError(w, http.StatusBadRequest, "Phone number already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}
	user, err := h.store.CreateUser(ctx, storage.User{
		Username:     req.Username,
		PhoneNumber:  req.PhoneNumber,
		Email:        strings.TrimSpace(req.Email),
		Bio:          req.Bio,
		PasswordHash: string(hash),
	})
	if err != nil {
		log.Printf("api: create user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		log.Printf("api: issue tokens for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Profile: newProfilePayload(user),
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	// The login identifier matches either a username or a phone number.
	ctx := r.Context()
	user, err := h.store.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = h.store.GetUserByPhoneNumber(ctx, req.Username)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login details.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid login details.")
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		log.Printf("api: issue tokens for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Profile: newProfilePayload(user),
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pair, err := h.tokens.Refresh(strings.TrimSpace(req.Refresh))
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}
