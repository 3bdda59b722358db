package http

import (
	"log/slog"
	"net/http"

	"github.com/mayyinandprojects/Movie-API/internal/service"
	"github.com/mayyinandprojects/Movie-API/pkg/httputil"
)

// MovieHandler handles the catalog endpoints.
type MovieHandler struct {
	service *service.MovieService
	logger  *slog.Logger
}

// NewMovieHandler creates a new movie HTTP handler.
func NewMovieHandler(svc *service.MovieService, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{service: svc, logger: logger}
}

// List handles GET /movies
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, movies)
}

// GetByTitle handles GET /movies/{title}
func (h *MovieHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	movie, err := h.service.GetByTitle(r.Context(), pathParam(r, "title"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, movie)
}

// GetGenre handles GET /movies/genre/{name}
func (h *MovieHandler) GetGenre(w http.ResponseWriter, r *http.Request) {
	genre, err := h.service.GetGenre(r.Context(), pathParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, genre)
}

// GetDirector handles GET /director/{name}
func (h *MovieHandler) GetDirector(w http.ResponseWriter, r *http.Request) {
	director, err := h.service.GetDirector(r.Context(), pathParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, director)
}
