// Package api exposes the card collection over HTTP/JSON using chi.
//
// Three scopes share one card surface: /cards runs with the service scope of
// the configured backend, /user/cards with the scope of the bearer user
// (row-level authorization on the hosted backend), and /admin requires the
// service key.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/cards"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// UserRepositories vends repositories bound to a user token.
type UserRepositories interface {
	CardsForUser(token string) (cards.Repository, error)
}

// LookupClient is the part of the lookup client the API uses.
type LookupClient interface {
	services.Validator
	Search(ctx context.Context, query string, limit int) ([]lookup.CardInfo, error)
	Details(ctx context.Context, name string) (*lookup.CardInfo, error)
	HealthCheck(ctx context.Context) (bool, string)
}

// Exporter writes a backup of src and returns where it went.
type Exporter interface {
	Export(ctx context.Context, src backup.Source, backend string) (string, error)
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Cards      *services.CardService
	Repo       cards.Repository
	Users      UserRepositories
	Auth       *services.AuthService
	Lookup     LookupClient
	Backup     Exporter
	Backend    string
	ServiceKey string
	Logger     logging.Logger
}

// Options tune the middleware chain.
type Options struct {
	AllowedOrigins []string
	RateLimit      int
	RequestTimeout time.Duration
}

type Server struct {
	Deps
	logger logging.Logger
	opts   Options
}

func NewServer(d Deps, opts Options) *Server {
	return &Server{
		Deps:   d,
		logger: d.Logger.With("module", "api"),
		opts:   opts,
	}
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// requestLogger logs every request through logging.Logger once the handler
// has finished.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"uri", r.RequestURI,
				"remote", r.RemoteAddr,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Router builds the full handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
	r.Use(s.cors().Handler)
	if s.opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
	}

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Get("/health/lookup", s.lookupHealth)

	r.Route("/lookup", func(r chi.Router) {
		r.Get("/search", s.lookupSearch)
		r.Get("/details", s.lookupDetails)
	})

	r.Route("/cards", func(r chi.Router) {
		s.cardRoutes(r, s.serviceScope)
	})

	r.Route("/user/cards", func(r chi.Router) {
		r.Use(s.requireUser)
		s.cardRoutes(r, s.userScope)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.signUp)
		r.Post("/signin", s.signIn)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/me", s.me)
			r.Post("/signout", s.signOut)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireServiceKey)
		r.Get("/users", s.adminUsers)
		r.Delete("/users/{userID}", s.adminDeleteUser)
		r.Get("/cards/all", s.adminAllCards)
		r.Get("/cards/user/{userID}", s.adminUserCards)
		r.Delete("/cards/clear", s.adminClear)
		r.Get("/stats/all", s.adminStats)
		r.Post("/backup", s.adminBackup)
	})

	return r
}
