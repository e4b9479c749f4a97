package http

import (
	"log/slog"

	"github.com/aq2208/gorder-seed/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/aq2208/gorder-seed/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *SeedHandler, th *TokenHandler, authz *middleware.Authz, l *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(l, "/healthz", "/metrics"))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/token", th.IssueToken)
		v1.POST("/runs", authz.Require(security.PermSeedWrite), h.CreateRun)
		v1.GET("/runs/last", authz.Require(security.PermSeedRead), h.GetLastRun)
		v1.GET("/stats", authz.Require(security.PermSeedRead), h.GetStats)
	}

	return r
}
