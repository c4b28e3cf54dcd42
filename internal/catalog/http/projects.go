package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/service"
)

// criteriaFrom reads filter criteria from the query string. Dimensions may
// be repeated (city=a&city=b) or comma separated.
func criteriaFrom(c *gin.Context) filter.Criteria {
	return filter.Criteria{
		Search:  c.Query("q"),
		Cities:  queryList(c, "city"),
		Types:   queryList(c, "type"),
		Labels:  queryList(c, "label"),
		Creator: c.Query("creator"),
	}
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) listProjects(c *gin.Context) {
	view, err := h.svc.ListProjects(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), criteriaFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) getProject(c *gin.Context) {
	p, err := h.svc.GetProject(c.Request.Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) createProject(c *gin.Context) {
	var req service.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.CreateProject(c.Request.Context(), viewerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *Handler) updateProject(c *gin.Context) {
	var req service.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), viewerFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) deleteProject(c *gin.Context) {
	if err := h.svc.DeleteProject(c.Request.Context(), viewerFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type reorderReq struct {
	IDs []string `json:"ids"`
}

func (h *Handler) reorderProjects(c *gin.Context) {
	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.svc.Reorder(c.Request.Context(), viewerFrom(c), req.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type addCityReq struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (h *Handler) addCity(c *gin.Context) {
	var req addCityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.AddCity(c.Request.Context(), viewerFrom(c), req.City, req.Lat, req.Lng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *Handler) deleteCity(c *gin.Context) {
	ids, err := h.svc.DeleteCity(c.Request.Context(), viewerFrom(c), c.Param("city"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": ids})
}

type renameLabelReq struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) renameLabel(c *gin.Context) {
	var req renameLabelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	n, err := h.svc.RenameLabel(c.Request.Context(), viewerFrom(c), req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

type labelFieldReq struct {
	Name string `json:"name"`
}

func (h *Handler) setLabelFieldName(c *gin.Context) {
	var req labelFieldReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.svc.SetLabelFieldName(c.Request.Context(), viewerFrom(c), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listTypes(c *gin.Context) {
	types, err := h.svc.ListTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

type addTypeReq struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

func (h *Handler) addType(c *gin.Context) {
	var req addTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	def, err := h.svc.AddType(c.Request.Context(), viewerFrom(c), req.Label, req.Color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"type": def})
}

func (h *Handler) dispatch(c *gin.Context) {
	var cmd service.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.svc.Dispatch(c.Request.Context(), viewerFrom(c), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) geocode(c *gin.Context) {
	res, err := h.svc.Geocode(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}
