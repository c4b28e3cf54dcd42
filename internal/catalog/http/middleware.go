package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

const (
	HeaderSessionToken = "X-Session-Token"
	HeaderSessionID    = "X-Session-Id"
	CookieSession      = "tztw_session"

	ctxViewer    = "viewer"
	ctxSessionID = "session_id"
	ctxToken     = "session_token"
)

// WithViewer resolves the login token (header or cookie) to a viewer and
// assigns every client a session id for its selection. Anonymous clients
// without an id get a fresh one echoed in X-Session-Id.
func (h *Handler) WithViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		viewer, err := h.svc.Viewer(c.Request.Context(), token)
		if errors.Is(err, domain.ErrAuth) {
			// a stale token is dropped; the client continues as a guest
			// and is told to sign in again on routes that need it
			token = ""
			viewer = nil
		} else if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		sid := strings.TrimSpace(c.GetHeader(HeaderSessionID))
		if sid == "" && token != "" {
			sid = token
		}
		if sid == "" {
			sid = uuid.New().String()
		}
		c.Header(HeaderSessionID, sid)

		c.Set(ctxToken, token)
		c.Set(ctxSessionID, sid)
		if viewer != nil {
			c.Set(ctxViewer, viewer)
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(HeaderSessionToken)); t != "" {
		return t
	}
	if t, err := c.Cookie(CookieSession); err == nil {
		return strings.TrimSpace(t)
	}
	return ""
}

// viewerFrom returns the signed-in user, or nil for a guest.
func viewerFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxViewer); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
