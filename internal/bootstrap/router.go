package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/Ntuthuko-dev/Web-Solution/internal/api/http"
	"github.com/Ntuthuko-dev/Web-Solution/internal/api/http/middleware"
	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
	projectshttp "github.com/Ntuthuko-dev/Web-Solution/internal/projects/http"
)

func BuildRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(app.Logger))

	if c, ok := corsConfig(app.Config.Server.AllowedOrigins); ok {
		r.Use(cors.New(c))
	}

	healthHandler := httpapi.NewHealthHandler(app.Config.App.ServiceName, app.Config.App.Version, app.Projects, app.DB, app.Redis)
	healthHandler.RegisterRoutes(r)

	projectsHandler := projectshttp.New(projectshttp.Deps{
		Projects:      app.Projects,
		Presenter:     app.Presenter,
		Uploader:      app.Uploader,
		Gate:          app.Gate,
		Sessions:      app.Sessions,
		Limiter:       app.Limiter,
		SessionTTL:    app.Config.Admin.SessionTTL,
		SecureCookies: app.Config.App.Environment == "production",
		Logger:        app.Logger,
	})
	projectsHandler.Register(r)

	return r
}

// corsConfig returns false when no origins are configured, leaving the
// router same-origin only.
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", auth.SessionHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c, true
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c, true
}
