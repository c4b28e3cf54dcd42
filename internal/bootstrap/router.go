package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/tztw/projectmap/internal/api/http"
	"github.com/tztw/projectmap/internal/api/http/middleware"
	"github.com/tztw/projectmap/internal/api/http/routes"
	cataloghttp "github.com/tztw/projectmap/internal/catalog/http"
	"github.com/tztw/projectmap/internal/catalog/service"
	"github.com/tztw/projectmap/internal/metrics"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Service        *service.Service
	Metrics        *metrics.Metrics
	DB             *sql.DB
	AllowedOrigins []string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	if dep.Metrics != nil {
		r.Use(dep.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}

	var db httpapi.Pinger
	if dep.DB != nil {
		db = dep.DB.PingContext
	}
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Service.Store().Ping, db)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{Service: dep.Service})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			middleware.HeaderRequestID, cataloghttp.HeaderSessionToken, cataloghttp.HeaderSessionID,
		},
		ExposeHeaders: []string{
			middleware.HeaderRequestID, cataloghttp.HeaderSessionToken, cataloghttp.HeaderSessionID,
			cataloghttp.HeaderExportFilename, cataloghttp.HeaderArchiveKey, "Content-Disposition",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
