package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mordilloSan/go_logger/logger"

	"github.com/mordilloSan/staticserver/listing"
	"github.com/mordilloSan/staticserver/serving"
	"github.com/mordilloSan/staticserver/storage"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 8080
	DefaultRoot = "static"

	accessBufferSize = 4096
	shutdownTimeout  = 10 * time.Second
)

// ServerConfig controls the file server. It is fixed once NewServer returns.
type ServerConfig struct {
	Host          string
	Port          int
	Root          string
	TemplatePath  string // empty selects the embedded listing template
	WatchTemplate bool
	HideDotfiles  bool
	AccessDBPath  string // empty disables the access log
	AccessMaxAge  time.Duration
}

// DefaultServerConfig returns localhost:8080 serving ./static.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host: DefaultHost,
		Port: DefaultPort,
		Root: DefaultRoot,
	}
}

// Server serves a directory tree over HTTP.
type Server struct {
	cfg      ServerConfig
	resolver *serving.Resolver
	renderer *listing.Renderer // nil when the template failed to compile
	db       *sql.DB
	access   *storage.StreamingWriter
	srv      *http.Server
}

// NewServer validates cfg and prepares the server without binding a socket.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = root

	resolver, err := serving.NewResolver(cfg.Root)
	if err != nil {
		return nil, err
	}
	if _, err := resolver.Resolve("/"); err != nil {
		logger.Warnf("Root %s is not readable yet: %v", cfg.Root, err)
	}

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
	}

	renderer, err := listing.Load(cfg.TemplatePath)
	if err != nil {
		logger.Errorf("Listing template unavailable, directory listings disabled: %v", err)
	} else {
		s.renderer = renderer
	}

	if cfg.AccessDBPath != "" {
		if err := s.openAccessLog(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Server) openAccessLog() error {
	db, err := storage.Open(s.cfg.AccessDBPath)
	if err != nil {
		return fmt.Errorf("open access log %s: %w", s.cfg.AccessDBPath, err)
	}
	logger.Infof("Access log opened: %s", s.cfg.AccessDBPath)

	if s.cfg.AccessMaxAge > 0 {
		ps, err := storage.PruneAccessLog(context.Background(), db, s.cfg.AccessMaxAge)
		if err != nil {
			logger.Warnf("Access log prune failed: %v", err)
		} else if ps.DeletedRecords > 0 {
			logger.Infof("Pruned %d access records older than %v in %v", ps.DeletedRecords, s.cfg.AccessMaxAge, ps.Duration)
		}
	}

	s.db = db
	s.access = storage.NewStreamingWriter(context.Background(), db, accessBufferSize)
	return nil
}

// Config returns the effective configuration.
func (s *Server) Config() ServerConfig {
	return s.cfg
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Handler returns the request pipeline, wrapped with the access log when enabled.
func (s *Server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(s.handle)
	if s.access != nil {
		h = s.recordAccess(h)
	}
	return h
}

// Run listens on Addr and serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	if s.cfg.WatchTemplate && s.renderer != nil && s.renderer.Path() != "" {
		go func() {
			if err := s.renderer.Watch(ctx); err != nil {
				logger.Warnf("Template watcher stopped: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	logger.Infof("Serving %s on http://%s", s.cfg.Root, l.Addr())
	go func() {
		errCh <- s.srv.Serve(l)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Server shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		_ = s.srv.Shutdown(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close flushes the access log and releases the database. Call it after Run returns.
func (s *Server) Close() {
	logger.Infof("Shutting down server...")

	if s.access != nil {
		if err := s.access.Close(); err != nil {
			logger.Warnf("Access log flush error: %v", err)
		} else {
			logger.Infof("Access log flushed (%d records)", s.access.Written())
		}
	}

	if s.db != nil {
		if stats, err := storage.WALCheckpointTruncate(context.Background(), s.db); err != nil {
			logger.Warnf("WAL checkpoint failed on shutdown: %v", err)
		} else {
			logger.Debugf("WAL checkpoint complete in %v (busy=%d log=%d checkpointed=%d)", stats.Duration, stats.Busy, stats.Log, stats.Checkpointed)
		}
		if err := s.db.Close(); err != nil {
			logger.Warnf("Database close error: %v", err)
		}
	}

	logger.Infof("Server shutdown complete")
}
