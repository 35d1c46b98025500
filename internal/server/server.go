// Package server exposes the import service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/metrics"
)

// Config controls the HTTP listener.
type Config struct {
	Addr string

	// Mode is a gin mode (debug, release, test). Empty leaves gin's
	// global mode untouched.
	Mode string

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	// RateLimitRPS is the per-client request rate. Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultConfig returns the standard listener settings.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		MaxUploadBytes:  5 << 20,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    5,
		RateLimitBurst:  10,
	}
}

// Pinger reports database reachability. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the HTTP API.
type Server struct {
	cfg      Config
	importer *importer.Service
	db       Pinger
	metrics  *metrics.Metrics
	log      *zap.Logger
	engine   *gin.Engine
}

// New builds the router. db and m may be nil.
func New(cfg Config, svc *importer.Service, db Pinger, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s := &Server{
		cfg:      cfg,
		importer: svc,
		db:       db,
		metrics:  m,
		log:      log,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	if s.metrics != nil {
		r.Use(metricsMiddleware(s.metrics))
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	r.GET("/healthz", s.healthz)

	api := r.Group("/api/v1")
	api.Use(rateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
	{
		uploads := api.Group("/imports")
		uploads.POST("/preview", maxBody(s.cfg.MaxUploadBytes), s.preview)
		uploads.POST("", maxBody(s.cfg.MaxUploadBytes), s.createImport)
		uploads.GET("", s.listImports)
		uploads.GET("/:id", s.getImport)
		uploads.GET("/:id/raw", s.getRawUpload)

		api.GET("/skill-tests/:id/questions", s.listQuestions)
	}
	return r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
