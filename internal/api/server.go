package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"histvault/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server 提供最小化的回补触发与巡检 HTTP 服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 API 服务依赖。
type ServerConfig struct {
	Addr     string
	Backfill BackfillRunner
	Runs     RunLister
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Backfill == nil {
		return nil, errors.New("api server requires a backfill runner")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	registerRoutes(router.Group("/api/v1"), cfg.Backfill, cfg.Runs)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Router 暴露底层 gin 引擎，httptest 场景使用。
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// requestLogger 记录接口调用，便于追踪人工触发的回补。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), client, time.Since(start))
	}
}
