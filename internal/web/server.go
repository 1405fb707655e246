// Package web serves the recipe catalog page, a small JSON API and a webhook
// that feeds chat events into the dispatcher.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultLimit    = 10
	maxLimit        = 100
	shutdownTimeout = 10 * time.Second
	defaultPrefix   = "!"
)

// Recipes is the read and like side of the catalog
type Recipes interface {
	Recent(ctx context.Context, limit int) ([]models.Recipe, error)
	Top(ctx context.Context, limit int) ([]models.Recipe, error)
	ByAuthor(ctx context.Context, author string, limit int) ([]models.Recipe, error)
	Get(ctx context.Context, id int64) (*models.Recipe, error)
	Like(ctx context.Context, id int64) (*models.Recipe, error)
}

// Submitter accepts events posted to the webhook
type Submitter interface {
	Submit(ctx context.Context, ev models.Event) error
}

// Options configures a Server
type Options struct {
	Addr          string
	WebhookToken  string
	CommandPrefix string
	PageLimit     int
}

// Server is the HTTP front of CookNet
type Server struct {
	recipes Recipes
	events  Submitter
	opts    Options
	page    *template.Template
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Server. events may be nil, which disables the webhook.
func New(recipes Recipes, events Submitter, opts Options, log *zap.Logger) (*Server, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultLimit
	}
	if opts.CommandPrefix == "" {
		opts.CommandPrefix = defaultPrefix
	}

	return &Server{
		recipes: recipes,
		events:  events,
		opts:    opts,
		page:    page,
		log:     log.Named("web"),
		now:     time.Now,
	}, nil
}

// Handler returns the routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recipes/top", s.handleTop)
		r.Get("/recipes/recent", s.handleRecent)
		r.Get("/recipes/{id}", s.handleRecipe)
		r.Post("/recipes/{id}/like", s.handleLike)
		r.Get("/authors/{author}/recipes", s.handleAuthor)
	})

	r.Post("/webhook/{token}", s.handleWebhook)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

type indexData struct {
	Recipes     []models.Recipe
	GeneratedAt time.Time
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.recipes.Top(r.Context(), s.opts.PageLimit)
	if err != nil {
		s.log.Error("Failed to load top recipes", zap.Error(err))
		http.Error(w, "recipes are unavailable right now", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Recipes: recipes, GeneratedAt: s.now().UTC()}
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error("Failed to render page", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
