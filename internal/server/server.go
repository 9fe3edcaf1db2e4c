package server

// HTTP surface: snapshot API, leaderboard view, summary card, dashboard page
// Identical concurrent snapshot requests for one mint share a single build

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gpu-snapshot/internal/features/card"
	"gpu-snapshot/internal/features/epoch"
	"gpu-snapshot/internal/features/snapshot"
	"gpu-snapshot/internal/infra/config"
	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/infra/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const shutdownTimeout = 10 * time.Second

type Builder interface {
	Build(ctx context.Context, mint string) (*snapshot.Payload, error)
}

type Server struct {
	cfg      *config.Config
	builder  Builder
	renderer card.Renderer
	group    singleflight.Group
	engine   *gin.Engine
	now      func() time.Time
}

func New(cfg *config.Config, b Builder) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		builder:  b,
		renderer: card.Renderer{Cycle: epoch.RewardCycle{Period: cfg.RewardCycle()}},
		engine:   gin.New(),
		now:      time.Now,
	}

	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ExposeHeaders:   []string{requestIDHeader, regionHeader},
		MaxAge:          12 * time.Hour,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.index)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api")
	api.GET("/snapshot", s.getSnapshot)
	api.GET("/holders", s.getHolders)

	s.engine.GET("/card.png", s.getCard)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.LogInfo("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.LogInfo("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// snapshot builds the payload for mint, sharing the build with concurrent callers.
// The build outlives a single caller's disconnect so other waiters still get a result.
func (s *Server) snapshot(ctx context.Context, mint string) (*snapshot.Payload, error) {
	if err := s.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	v, err, shared := s.group.Do(mint, func() (any, error) {
		return s.builder.Build(context.WithoutCancel(ctx), mint)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.LogDebug("Snapshot build shared", zap.String("mint", mint))
	}
	return v.(*snapshot.Payload), nil
}
