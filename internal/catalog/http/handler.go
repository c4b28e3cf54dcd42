// Package http exposes the catalog service over gin.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the catalog routes on rg. Every route runs behind
// WithViewer, so handlers can read the viewer and the client session.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.Use(h.WithViewer())

	auth := rg.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.me)

	rg.GET("/projects", h.listProjects)
	rg.POST("/projects", h.createProject)
	rg.POST("/projects/reorder", h.reorderProjects)
	rg.GET("/projects/:id", h.getProject)
	rg.PUT("/projects/:id", h.updateProject)
	rg.DELETE("/projects/:id", h.deleteProject)
	rg.POST("/cities", h.addCity)
	rg.DELETE("/cities/:city", h.deleteCity)
	rg.POST("/labels/rename", h.renameLabel)
	rg.PUT("/settings/label-field", h.setLabelFieldName)
	rg.GET("/types", h.listTypes)
	rg.POST("/types", h.addType)

	sel := rg.Group("/selection")
	sel.GET("", h.getSelection)
	sel.POST("/toggle", h.toggleProject)
	sel.POST("/city", h.toggleCity)
	sel.POST("/visible", h.toggleVisible)
	sel.POST("/reset", h.resetSelection)

	rg.POST("/commands", h.dispatch)
	rg.GET("/events", h.streamEvents)
	rg.GET("/geocode", h.geocode)

	rg.GET("/exports", h.listArchive)
	rg.GET("/exports/archive/*key", h.getArchived)
	rg.GET("/exports/audit", h.listAudit)
	rg.GET("/exports/json", h.exportJSON)
	rg.POST("/exports/pdf", h.exportDocument)
	rg.POST("/exports/html", h.exportStandalone)
	rg.POST("/import", h.importProjects)
	rg.POST("/guide", h.guide)

	rg.GET("/users", h.listUsers)
	rg.POST("/users", h.addUser)
	rg.DELETE("/users/:id", h.deleteUser)
	rg.GET("/overview", h.overview)
}

// RegisterStatic serves the shared browser module.
func (h *Handler) RegisterStatic(r gin.IRouter) {
	r.GET("/static/catalog.js", serveCatalogJS)
}
