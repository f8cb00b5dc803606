package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
)

const (
	adminPath = "/admin"
	loginPath = "/admin/login"
)

// Register attaches the gallery pages and the /api/v1 routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.galleryPage)
	r.GET(loginPath, h.loginPage)
	r.GET(adminPath, auth.RequireSession(h.Sessions, loginPath), h.adminPage)

	api := r.Group("/api/v1")
	api.GET("/projects", h.list)
	api.POST("/admin/login", h.login)

	admin := api.Group("/admin")
	admin.Use(auth.RequireSession(h.Sessions, loginPath))
	admin.POST("/logout", h.logout)
	admin.POST("/uploads", h.upload)
	admin.POST("/projects", h.create)
	admin.DELETE("/projects/:id", h.delete)
	admin.POST("/projects/:id/delete", h.delete)
	admin.GET("/notices", h.notices)
	admin.POST("/refresh", h.refresh)
}
