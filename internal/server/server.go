// Package server exposes the SOF extraction pipeline over HTTP: a process
// endpoint for uploaded documents, a call-history endpoint, and the embedded
// frontend pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/portledger/sofextract/internal/config"
	"github.com/portledger/sofextract/internal/llmcall"
	"github.com/portledger/sofextract/internal/providers"
	"github.com/portledger/sofextract/internal/sof"
)

// Processor runs the full dual-pass pipeline for one document.
type Processor interface {
	Process(ctx context.Context, documentText string) (*sof.Record, error)
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// UploadDir is where uploaded documents are staged (default: uploads)
	UploadDir string
	// OutputFile is the results snapshot path (default: output.json)
	OutputFile string
	// Processor runs extraction for uploaded documents. Required.
	Processor Processor
	// Calls is the LLM call history store. Optional.
	Calls *llmcall.Store
	// Registry is reloaded when the config file changes. Optional.
	Registry *providers.Registry
	// ConfigManager provides configuration with hot-reload support. Optional.
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// Server is the SOF extraction HTTP server.
type Server struct {
	httpServer *http.Server
	processor  Processor
	calls      *llmcall.Store
	uploadDir  string
	outputFile string
	logger     *slog.Logger

	// snapshotWG tracks background output-file wipes so shutdown and tests
	// can wait for them.
	snapshotWG sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Processor == nil {
		return nil, errors.New("server: processor is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Config file values fill in anything not set explicitly.
	if cfg.ConfigManager != nil {
		sc := cfg.ConfigManager.Get().Server
		if cfg.Host == "" {
			cfg.Host = sc.Host
		}
		if cfg.Port == "" {
			cfg.Port = sc.Port
		}
		if cfg.UploadDir == "" {
			cfg.UploadDir = sc.UploadDir
		}
		if cfg.OutputFile == "" {
			cfg.OutputFile = sc.OutputFile
		}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "output.json"
	}

	// Wire config hot reload into the provider registry.
	if cfg.ConfigManager != nil && cfg.Registry != nil {
		registry := cfg.Registry
		logger := cfg.Logger
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToRegistryConfig())
			logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		processor:  cfg.Processor,
		calls:      cfg.Calls,
		uploadDir:  cfg.UploadDir,
		outputFile: cfg.OutputFile,
		logger:     cfg.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      withCORS(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.snapshotWG.Wait()

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withCORS allows cross-origin requests from the frontend.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
