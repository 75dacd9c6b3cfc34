package httpapi

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/incident_triage/backend/internal/config"
	"github.com/incident_triage/backend/internal/http/handlers"
	"github.com/incident_triage/backend/internal/http/middleware"

	_ "github.com/incident_triage/backend/docs"
)

func engine(cfg config.Config, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.IngestKeyHeader, middleware.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

// IngestRouter serves the log-consumer's HTTP ingestion endpoints.
func IngestRouter(cfg config.Config, h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	r := engine(cfg, logger)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	ingest := r.Group("/ingest")
	ingest.Use(middleware.IngestKey(cfg.IngestAPIKey))
	{
		ingest.POST("", h.Ingest)
		ingest.POST("/batch", h.IngestBatch)
	}
	return r
}

// TriageRouter serves search and triage, plus the frontend when h.FrontendDir is set.
func TriageRouter(cfg config.Config, h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	r := engine(cfg, logger)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/", h.Index)
	r.POST("/search", h.Search)
	r.POST("/triage", h.Triage)

	if h.FrontendDir != "" {
		r.Static("/app", h.FrontendDir)
	}
	return r
}

// FrontendDir returns dir or dir/dist, whichever holds an index.html.
func FrontendDir(dir string) string {
	if dir == "" {
		return ""
	}
	for _, candidate := range []string{dir, filepath.Join(dir, "dist")} {
		if _, err := os.Stat(filepath.Join(candidate, "index.html")); err == nil {
			return candidate
		}
	}
	return ""
}
