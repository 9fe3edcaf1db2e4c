package server

import (
	"bytes"
	_ "embed"
	"errors"
	"net/http"
	"strconv"

	"gpu-snapshot/internal/features/leaderboard"
	"gpu-snapshot/internal/infra/config"
	"gpu-snapshot/internal/infra/log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPageSize = 100

//go:embed web/index.html
var indexHTML []byte

// resolveMint returns the requested mint when it looks like a base-58 address, else the default.
func resolveMint(requested, fallback string) string {
	if config.IsMint(requested) {
		return requested
	}
	return fallback
}

func (s *Server) mint(c *gin.Context) string {
	return resolveMint(c.Query("mint"), s.cfg.Token.Mint)
}

func (s *Server) setRegion(c *gin.Context) {
	if s.cfg.Snapshot.Region != "" {
		c.Header(regionHeader, s.cfg.Snapshot.Region)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		log.LogError("Configuration error", zap.String("key", cfgErr.Key), zap.Error(err))
	} else {
		log.LogError("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) getSnapshot(c *gin.Context) {
	s.setRegion(c)
	p, err := s.snapshot(c.Request.Context(), s.mint(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", s.cfg.CacheControl())
	c.JSON(http.StatusOK, p)
}

func (s *Server) getHolders(c *gin.Context) {
	s.setRegion(c)
	p, err := s.snapshot(c.Request.Context(), s.mint(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	size := min(queryInt(c, "pageSize", leaderboard.DefaultPageSize), maxPageSize)

	rows := leaderboard.Search(leaderboard.Rank(p.Holders), c.Query("q"))
	c.Header("Cache-Control", s.cfg.CacheControl())
	c.JSON(http.StatusOK, leaderboard.Paginate(rows, page, size))
}

func (s *Server) getCard(c *gin.Context) {
	s.setRegion(c)
	p, err := s.snapshot(c.Request.Context(), s.mint(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.EncodePNG(&buf, p, s.now()); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", s.cfg.CacheControl())
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}
