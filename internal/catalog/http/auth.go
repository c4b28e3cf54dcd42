package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// userView is a user without credentials.
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

func newUserView(u *domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role, Name: u.Name}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sess, u, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header(HeaderSessionToken, sess.Token)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieSession, sess.Token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": newUserView(u)})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		writeError(c, err)
		return
	}
	c.SetCookie(CookieSession, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	u := viewerFrom(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(u)})
}
