// Package server is the composition root: it selects the storage backends,
// wires repositories into services into handlers, and owns the route table
// and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mkaye/memorybox/internal/auth"
	"github.com/mkaye/memorybox/internal/handler"
	"github.com/mkaye/memorybox/internal/middleware"
	"github.com/mkaye/memorybox/internal/repository"
	sqliteRepo "github.com/mkaye/memorybox/internal/repository/sqlite"
	supabaseRepo "github.com/mkaye/memorybox/internal/repository/supabase"
	"github.com/mkaye/memorybox/internal/service"
	"github.com/mkaye/memorybox/internal/storage"
	"github.com/mkaye/memorybox/internal/upload"
)

// Backend names accepted in Config.
const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"

	StorageLocal    = "local"
	StorageSupabase = "supabase"
)

// Config holds server configuration. Store and object storage are selected
// independently: sqlite+local needs nothing external, supabase backends
// need the project URL and keys.
type Config struct {
	Port    int
	BaseURL string

	StoreBackend string // "sqlite" or "supabase"
	DBPath       string // sqlite only

	StorageBackend string // "local" or "supabase"
	MediaDir       string // local storage only
	StorageBucket  string // supabase storage only

	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
}

// Server holds the router and the resources it owns. The closer releases
// the embedded database on shutdown; it is nil for the supabase store.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	closer io.Closer
}

// New assembles the full dependency chain for the configured backends.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	memories, lores, err := s.buildRepositories()
	if err != nil {
		return nil, err
	}
	store, err := s.buildObjectStore()
	if err != nil {
		s.closeResources()
		return nil, err
	}

	memoryService := service.NewMemoryService(memories, auth.NewPasswordService(), logger)
	loreService := service.NewLoreService(lores, logger)
	gateway := upload.NewGateway(store, logger)

	s.setupRoutes(
		handler.NewMemoryHandler(memoryService, logger),
		handler.NewLoreHandler(loreService, logger),
		handler.NewUploadHandler(gateway, logger),
		handler.NewPageHandler(memoryService, logger),
		store,
	)
	return s, nil
}

func (s *Server) buildRepositories() (repository.MemoryRepository, repository.LoreRepository, error) {
	switch s.config.StoreBackend {
	case StoreSQLite:
		db, err := sqliteRepo.New(s.config.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		s.closer = db
		return db, db.Lores(), nil
	case StoreSupabase:
		client, err := supabaseRepo.New(s.config.SupabaseURL, s.config.SupabaseAnonKey)
		if err != nil {
			return nil, nil, fmt.Errorf("creating supabase client: %w", err)
		}
		return client, client.Lores(), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", s.config.StoreBackend)
	}
}

func (s *Server) buildObjectStore() (storage.ObjectStore, error) {
	switch s.config.StorageBackend {
	case StorageLocal:
		store, err := storage.NewLocalStore(s.config.MediaDir, s.config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating media directory: %w", err)
		}
		return store, nil
	case StorageSupabase:
		return storage.NewSupabaseStore(s.config.SupabaseURL, s.config.SupabaseServiceRoleKey, s.config.StorageBucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.config.StorageBackend)
	}
}

func (s *Server) closeResources() {
	if s.closer != nil {
		s.closer.Close()
	}
}

// setupRoutes configures middleware and the route table.
//
// Middleware order: RequestID and RealIP first so the logger sees them,
// Recoverer before anything that can panic, then our request logger.
func (s *Server) setupRoutes(
	memories *handler.MemoryHandler,
	lores *handler.LoreHandler,
	uploads *handler.UploadHandler,
	pages *handler.PageHandler,
	store storage.ObjectStore,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Locally stored media is served straight off disk. The supabase
	// backend serves media from its own CDN, so no route is needed.
	if local, ok := store.(*storage.LocalStore); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))
	}

	s.router.Get("/memories/{slug}/view", pages.HandleMemoryView)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/memories", memories.HandleList)
		r.Post("/memories", memories.HandleCreate)
		r.Get("/memories/on-this-day", memories.HandleOnThisDay)
		r.Post("/memories/verify-password", memories.HandleVerifyPassword)
		r.Get("/memories/{slug}", memories.HandleGet)
		r.Delete("/memories/{id}", memories.HandleDelete)

		r.Get("/lores/all", lores.HandleAll)
		r.Get("/lores/random", lores.HandleRandom)
		r.Post("/lores/submit", lores.HandleSubmit)

		r.Post("/upload", uploads.HandleUpload)
	})
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, release the database.
func (s *Server) Start() error {
	defer s.closeResources()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("base_url", s.config.BaseURL),
			slog.String("store", s.config.StoreBackend),
			slog.String("storage", s.config.StorageBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
