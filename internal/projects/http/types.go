package http

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
	"github.com/Ntuthuko-dev/Web-Solution/internal/gallery"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/assets"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// ProjectService is the part of the project service the handlers use.
type ProjectService interface {
	Projects() domain.Snapshot
	Mode() string
	Load(ctx context.Context) error
	AddProject(ctx context.Context, draft domain.Draft) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// Deps bundles the dependencies for the portfolio HTTP endpoints.
type Deps struct {
	Projects      ProjectService
	Presenter     *gallery.Presenter
	Uploader      assets.Uploader
	Gate          *auth.Gate
	Sessions      auth.SessionStore
	Limiter       *auth.LoginLimiter
	SessionTTL    time.Duration
	SecureCookies bool
	Logger        *zap.Logger
}

// Handler serves the public gallery and the operator endpoints.
type Handler struct {
	Deps
}

func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Limiter == nil {
		deps.Limiter = auth.NewLoginLimiter(0, 0)
	}
	return &Handler{Deps: deps}
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type projectReq struct {
	Title       string `json:"title" form:"title"`
	Category    string `json:"category" form:"category"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"image"`
	Link        string `json:"link" form:"link"`
}

func (r projectReq) draft() domain.Draft {
	return domain.Draft{
		Title:       r.Title,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
		Link:        r.Link,
	}
}
