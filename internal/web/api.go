package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Count   int             `json:"count"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	recipes, err := s.recipes.Top(r.Context(), limit)
	s.writeList(w, "top", recipes, err)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	recipes, err := s.recipes.Recent(r.Context(), limit)
	s.writeList(w, "recent", recipes, err)
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	author := chi.URLParam(r, "author")
	recipes, err := s.recipes.ByAuthor(r.Context(), author, limit)
	s.writeList(w, "author", recipes, err)
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	recipe, err := s.recipes.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	recipe, err := s.recipes.Like(r.Context(), id)
	if err != nil {
		s.writeError(w, "like", err)
		return
	}
	s.log.Info("Recipe liked from web", zap.Int64("recipe_id", id), zap.Int64("likes", recipe.Likes))
	writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) writeList(w http.ResponseWriter, op string, recipes []models.Recipe, err error) {
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	writeJSON(w, http.StatusOK, listResponse{Recipes: recipes, Count: len(recipes)})
}

// writeError maps store errors to statuses. Unknown ids are an expected
// outcome and are not logged as errors.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "recipe not found"})
	case errors.Is(err, storage.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("Request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid recipe id"})
		return 0, false
	}
	return id, true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive number"})
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
