// Package httpapi serves the review workflow over HTTP: locating packets,
// browsing page images, extracting and approving J294 forms, and exporting
// provenance archives.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/validation"
	"github.com/ersonp/provpack/internal/infrastructure/logger"
)

// RouterConfig holds the dependencies of the API routes.
type RouterConfig struct {
	Packets   *handlers.PacketHandler
	Reviews   *handlers.ReviewHandler
	Exports   *handlers.ExportHandler
	Cases     *handlers.CaseHandler
	Validator *validation.Validator
	Logger    *logger.Logger

	AllowOrigins []string
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Logger))
	if len(cfg.AllowOrigins) > 0 {
		router.Use(CORS(cfg.AllowOrigins))
	}

	a := &api{
		packets:   cfg.Packets,
		reviews:   cfg.Reviews,
		exports:   cfg.Exports,
		cases:     cfg.Cases,
		validator: cfg.Validator,
	}

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	group := router.Group("/api")
	{
		group.POST("/locator", a.locate)
		group.GET("/images", a.listImages)
		group.GET("/images/:packetId/:page", a.image)
		group.POST("/extract/j294", a.extract)
		group.POST("/review/approve", a.approve)
		group.POST("/export", a.export)
		group.GET("/cases", a.listCases)
		group.GET("/cases/:caseId", a.showCase)
		group.GET("/audit", a.listAudit)
	}

	return router
}
