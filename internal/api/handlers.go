package api

import (
	"context"
	"net/http"
	"time"

	"histvault/internal/market"
	"histvault/internal/store"

	"github.com/gin-gonic/gin"
)

// BackfillRunner 触发一次历史行情回补。
type BackfillRunner interface {
	Run(ctx context.Context, symbols []string, years, concurrency int, writerWait time.Duration) (map[string]*market.DownloadResult, error)
	ResetTruncateGate()
}

// RunLister 查询最近的回补审计记录。
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]store.RunModel, error)
}

type backfillRequest struct {
	Symbols           []string `json:"symbols" binding:"required,min=1"`
	Years             int      `json:"years"`
	Concurrency       int      `json:"concurrency"`
	WriterWaitSeconds int      `json:"writer_wait_seconds"`
}

func registerRoutes(group *gin.RouterGroup, backfill BackfillRunner, runs RunLister) {
	group.POST("/backfill", func(c *gin.Context) {
		var req backfillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		wait := 300 * time.Second
		if req.WriterWaitSeconds > 0 {
			wait = time.Duration(req.WriterWaitSeconds) * time.Second
		}
		results, err := backfill.Run(c.Request.Context(), req.Symbols, req.Years, req.Concurrency, wait)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "results": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	group.POST("/truncate/reset", func(c *gin.Context) {
		backfill.ResetTruncateGate()
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	})

	group.GET("/runs", func(c *gin.Context) {
		if runs == nil {
			c.JSON(http.StatusOK, gin.H{"runs": []store.RunModel{}})
			return
		}
		list, err := runs.RecentRuns(c.Request.Context(), 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": list})
	})
}
