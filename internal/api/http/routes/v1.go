package routes

import (
	"github.com/gin-gonic/gin"

	cataloghttp "github.com/tztw/projectmap/internal/catalog/http"
	"github.com/tztw/projectmap/internal/catalog/service"
)

type V1Deps struct {
	Service *service.Service
}

// RegisterV1 mounts the catalog API under /api/v1 and its browser module
// under /static.
func RegisterV1(r *gin.Engine, dep V1Deps) {
	h := cataloghttp.New(dep.Service)
	h.RegisterStatic(r)
	h.Register(r.Group("/api/v1"))
}
