package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	"github.com/mayyinandprojects/Movie-API/pkg/httputil"
	"github.com/mayyinandprojects/Movie-API/pkg/validator"
)

// LoginFailedMessage is the only body a failed login ever gets.
const LoginFailedMessage = "Incorrect username or password."

// AuthHandler handles POST /login.
type AuthHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.Decode(r, &req); err != nil {
		h.logger.DebugContext(r.Context(), "login rejected", slog.String("reason", "undecodable body"))
		auth.ObserveLogin(auth.LoginInvalidCredentials)
		httputil.WriteMessage(w, http.StatusBadRequest, LoginFailedMessage)
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.WriteMessage(w, http.StatusBadRequest, LoginFailedMessage)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{User: res.User, Token: res.Token})
}
