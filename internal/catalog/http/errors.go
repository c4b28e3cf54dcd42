package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/geocode"
	"github.com/tztw/projectmap/internal/logging"
)

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported without detail.
func writeError(c *gin.Context, err error) {
	var fallback *geocode.FallbackError
	switch {
	case errors.As(err, &fallback):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":       "geocoding service unavailable",
			"externalUrl": fallback.ExternalURL,
			"hint":        fallback.Hint,
		})
	case errors.Is(err, domain.ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrImportFormat), errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTypeKeyTaken), errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNetwork):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
