package http

import (
	"log/slog"
	"net/http"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
	"github.com/mayyinandprojects/Movie-API/pkg/httputil"
	"github.com/mayyinandprojects/Movie-API/pkg/validator"
)

// UserHandler handles HTTP requests for user endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// RegisterRequest is the JSON request body for creating an account.
type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=5,alphanum"`
	Password string  `json:"password" validate:"required,max=72"`
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required,max=100"`
	Birthday *string `json:"birthday" validate:"omitnil,datetime=2006-01-02"`
}

// UpdateUserRequest is the JSON request body for changing one's own record.
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=5,alphanum"`
	Password *string `json:"password" validate:"omitnil,min=1,max=72"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
	Birthday *string `json:"birthday" validate:"omitnil,datetime=2006-01-02"`
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Name:     req.Name,
		Birthday: birthday,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user)
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, users)
}

// Get handles GET /users/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByUsername(r.Context(), pathParam(r, "username"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// Update handles PUT /users/{username}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	actor, _ := auth.IdentityFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor, pathParam(r, "username"), service.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Name:     req.Name,
		Birthday: birthday,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{username}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := pathParam(r, "username")
	actor, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Delete(r.Context(), actor, username); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, username+" was deleted.")
}

// AddFavorite handles POST /users/{username}/movies/{movieID}
func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	user, err := h.service.AddFavorite(r.Context(), actor, pathParam(r, "username"), pathParam(r, "movieID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// RemoveFavorite handles DELETE /users/{username}/movies/{movieID}
func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	user, err := h.service.RemoveFavorite(r.Context(), actor, pathParam(r, "username"), pathParam(r, "movieID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

func parseBirthday(s *string) (*domain.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, apperrors.InvalidInput("birthday must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}
