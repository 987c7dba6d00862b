// Package server composes the messenger process: SQLite store, token
// manager, realtime hub and REST surface behind one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/linkup/internal/api"
	"github.com/louisbranch/linkup/internal/chat"
	"github.com/louisbranch/linkup/internal/platform/timeouts"
	"github.com/louisbranch/linkup/internal/storage/sqlite"
	"github.com/louisbranch/linkup/internal/token"
)

// Config defines the inputs for the messenger server.
type Config struct {
	HTTPAddr          string
	DBPath            string
	TokenSecret       string
	TokenIssuer       string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the messenger HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *sqlite.Store
}

// tokenAuthenticator adapts the token manager to the websocket auth contract.
type tokenAuthenticator struct {
	tokens *token.Manager
}

func (a tokenAuthenticator) Authenticate(_ context.Context, raw string) (int64, error) {
	return a.tokens.Verify(raw)
}

// NewServer builds a configured server, opening the store and running
// migrations.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.DBPath) == "" {
		return nil, errors.New("database path is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	if strings.TrimSpace(config.TokenIssuer) == "" {
		config.TokenIssuer = "linkup"
	}

	tokens, err := token.NewManager(config.TokenSecret, config.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}
	store, err := sqlite.Open(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           newMux(store, tokens),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           store,
	}, nil
}

func newMux(store *sqlite.Store, tokens *token.Manager) *http.ServeMux {
	hub := chat.NewHub(store, tokenAuthenticator{tokens: tokens})

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/ws", hub.Handler())
	api.New(store, tokens, hub).Register(mux)
	return mux
}

// Run creates and serves a messenger server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}
