package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"daylog-backend/internal/middleware"
	"daylog-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

type updateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	PushToken *string `json:"push_token,omitempty"`
	// ClearPushToken removes the registered device token
	ClearPushToken bool `json:"clear_push_token,omitempty"`
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, authResponse{User: user, Token: token}, http.StatusCreated)
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, authResponse{User: user, Token: token}, http.StatusOK)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, user, http.StatusOK)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != nil {
		if err := h.userService.UpdateUsername(ctx, userID, *req.Username); err != nil {
			respondError(w, err.Error(), statusForError(err))
			return
		}
	}

	if req.PushToken != nil || req.ClearPushToken {
		token := req.PushToken
		if req.ClearPushToken {
			token = nil
		}
		if err := h.userService.UpdatePushToken(ctx, userID, token); err != nil {
			respondError(w, err.Error(), statusForError(err))
			return
		}
	}

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, user, http.StatusOK)
}

// UploadAvatar handles POST /api/v1/users/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "photo is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read photo", http.StatusBadRequest)
		return
	}

	url, err := h.userService.SetProfileImage(ctx, userID, imageBytes)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to set profile image")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	respondJSON(w, map[string]string{"profile_image_url": url}, http.StatusOK)
}

// DeleteMe handles DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.userService.DeleteAccount(ctx, userID); err != nil {
		respondError(w, err.Error(), statusForError(err))
		return
	}

	log.Info().Str("user_id", userID).Msg("Account deleted")
	w.WriteHeader(http.StatusNoContent)
}
