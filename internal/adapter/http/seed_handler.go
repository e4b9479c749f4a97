package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/aq2208/gorder-seed/internal/usecase"
	"github.com/gin-gonic/gin"
)

type SeedRunner interface {
	Execute(ctx context.Context, p usecase.Params) (usecase.RunReport, error)
}

type StatsReader interface {
	Stats(ctx context.Context) ([]usecase.TableStat, error)
}

type SeedHandler struct {
	runner     SeedRunner
	stats      StatsReader
	history    usecase.RunHistory // optional
	defaults   usecase.Params
	runTimeout time.Duration
}

func NewSeedHandler(runner SeedRunner, stats StatsReader, defaults usecase.Params, runTimeout time.Duration) *SeedHandler {
	return &SeedHandler{runner: runner, stats: stats, defaults: defaults, runTimeout: runTimeout}
}

// WithHistory enables GET /v1/runs/last.
func (h *SeedHandler) WithHistory(rh usecase.RunHistory) *SeedHandler {
	h.history = rh
	return h
}

type runResp struct {
	Report usecase.RunReport `json:"report"`
	Error  string            `json:"error,omitempty"`
}

// POST /v1/runs
// Body is optional; absent fields use the configured defaults.
func (h *SeedHandler) CreateRun(c *gin.Context) {
	var req usecase.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "detail": err.Error()})
		return
	}
	p, err := req.Params(h.defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	rep, err := h.runner.Execute(ctx, p)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, runResp{Report: rep})
	case errors.Is(err, usecase.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "run_in_progress"})
	case usecase.IsPrecondition(err):
		// customers and products from this run are committed
		c.JSON(http.StatusUnprocessableEntity, runResp{Report: rep, Error: err.Error()})
	default:
		logging.From(c).Error("seed run failed", "error", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, runResp{Report: rep, Error: "run_failed"})
	}
}

// GET /v1/stats
func (h *SeedHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": stats})
}

// GET /v1/runs/last
func (h *SeedHandler) GetLastRun(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history_disabled"})
		return
	}
	msg, err := h.history.Last(c.Request.Context())
	switch {
	case errors.Is(err, usecase.ErrNoRunRecorded):
		c.JSON(http.StatusNotFound, gin.H{"error": "no_run"})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_unavailable"})
	default:
		c.JSON(http.StatusOK, msg)
	}
}
