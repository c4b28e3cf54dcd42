package http

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/service"
)

const (
	HeaderExportFilename = "X-Export-Filename"
	HeaderArchiveKey     = "X-Archive-Key"

	maxImportBytes = 64 << 20
)

func writeArtifact(c *gin.Context, a *service.Artifact, disposition string) {
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename}))
	c.Header(HeaderExportFilename, url.PathEscape(a.Filename))
	if a.ArchiveKey != "" {
		c.Header(HeaderArchiveKey, a.ArchiveKey)
	}
	c.Data(http.StatusOK, a.ContentType, a.Body)
}

func (h *Handler) exportJSON(c *gin.Context) {
	a, err := h.svc.ExportJSON(c.Request.Context(), viewerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifact(c, a, "attachment")
}

func bindExportRequest(c *gin.Context) (service.ExportRequest, bool) {
	var req service.ExportRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return req, false
	}
	return req, true
}

// exportDocument returns the printable HTML inline; the browser rasterizes
// it to a PDF named after X-Export-Filename.
func (h *Handler) exportDocument(c *gin.Context) {
	req, ok := bindExportRequest(c)
	if !ok {
		return
	}
	a, err := h.svc.ExportDocument(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifact(c, a, "inline")
}

func (h *Handler) exportStandalone(c *gin.Context) {
	req, ok := bindExportRequest(c)
	if !ok {
		return
	}
	a, err := h.svc.ExportStandalone(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeArtifact(c, a, "attachment")
}

// importProjects accepts the JSON file either as the raw body or as the
// "file" field of a multipart form.
func (h *Handler) importProjects(c *gin.Context) {
	var body io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "file is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "cannot read uploaded file")
			return
		}
		defer f.Close()
		body = f
	}

	res, err := h.svc.Import(c.Request.Context(), viewerFrom(c), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listArchive(c *gin.Context) {
	items, err := h.svc.ListArchive(c.Request.Context(), viewerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": items})
}

func (h *Handler) getArchived(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	info, rc, err := h.svc.OpenArchived(c.Request.Context(), viewerFrom(c), key)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := key[strings.LastIndex(key, "/")+1:]
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}

func (h *Handler) listAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.svc.ListAudit(c.Request.Context(), viewerFrom(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) guide(c *gin.Context) {
	var req service.GuideRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	g, err := h.svc.Guide(c.Request.Context(), viewerFrom(c), sessionIDFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
