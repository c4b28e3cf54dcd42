package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/filter"
)

type toggleReq struct {
	ID string `json:"id"`
}

type toggleGroupReq struct {
	City     string          `json:"city"`
	Criteria filter.Criteria `json:"criteria"`
}

func (h *Handler) getSelection(c *gin.Context) {
	view, err := h.svc.GetSelection(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), criteriaFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) toggleProject(c *gin.Context) {
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		badRequest(c, "id is required")
		return
	}
	view, err := h.svc.ToggleProject(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) toggleCity(c *gin.Context) {
	var req toggleGroupReq
	if err := c.ShouldBindJSON(&req); err != nil || req.City == "" {
		badRequest(c, "city is required")
		return
	}
	view, err := h.svc.ToggleCity(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req.City, req.Criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) toggleVisible(c *gin.Context) {
	var req toggleGroupReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	view, err := h.svc.ToggleVisible(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req.Criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) resetSelection(c *gin.Context) {
	view, err := h.svc.ResetSelection(c.Request.Context(), viewerFrom(c), sessionIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
