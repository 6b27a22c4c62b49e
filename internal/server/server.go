// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: handlers, services, repositories, and
// middleware are all wired together here, so the rest of the codebase stays
// free of construction logic. main.go stays minimal — load config, build the
// server, start it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/sakif/lms-server/internal/auth"
	"github.com/sakif/lms-server/internal/config"
	"github.com/sakif/lms-server/internal/handler"
	"github.com/sakif/lms-server/internal/middleware"
	"github.com/sakif/lms-server/internal/model"
	sqliteRepo "github.com/sakif/lms-server/internal/repository/sqlite"
	"github.com/sakif/lms-server/internal/service"
)

// Server owns the router, the database connection, and the configuration.
// The DB is closed during graceful shutdown so the WAL is flushed and the
// file lock released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → TokenService/PasswordService → AuthService/CourseService
//	          → AuthHandler/CourseHandler → routes
//
// Each layer only receives what it needs — services get repository
// interfaces, handlers get services, and nothing below the handler layer
// knows HTTP exists.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST /auth/register           → create account, issue token (rate limited)
//	POST /auth/login              → verify credentials, issue token (rate limited)
//	POST /auth/logout             → clear token cookie
//	GET  /auth/me                 → profile of the authenticated user
//	GET  /courses                 → full catalog (public)
//	GET  /courses/enrolled        → the caller's enrolled courses
//	POST /courses/enroll/{id}     → idempotent enrollment
//	POST /courses                 → create course (instructor only)
//	GET  /health                  → liveness probe
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	courseService := service.NewCourseService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		TTL:    s.config.TokenTTL,
		Secure: s.config.IsProduction(),
	}, s.logger)
	courseHandler := handler.NewCourseHandler(courseService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db, s.logger)

	secureHeaders := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        s.config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	// Global middleware, in order: request ID for tracing, real client IP
	// from proxy headers, panic recovery, security headers, request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(secureHeaders.Handler)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Route("/auth", func(r chi.Router) {
		// Credential endpoints are the brute-force surface; keep them on a
		// tight per-IP budget.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})
		r.Post("/logout", authHandler.HandleLogout)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	s.router.Route("/courses", func(r chi.Router) {
		r.Get("/", courseHandler.HandleList)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/enrolled", courseHandler.HandleListEnrolled)
			r.Post("/enroll/{courseID}", courseHandler.HandleEnroll)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireRole(model.RoleInstructor))
			r.Post("/", courseHandler.HandleCreate)
		})
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	})

	return nil
}

// Router exposes the configured router, mainly for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.AppReadTimeout,
		WriteTimeout: s.config.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("env", s.config.AppEnv),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
