package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
	"github.com/Ntuthuko-dev/Web-Solution/internal/gallery"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/assets"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/repository"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/service"
)

type switchableBackend struct {
	repository.Backend
	failPersist bool
}

func (b *switchableBackend) Persist(ctx context.Context, s domain.Snapshot) error {
	if b.failPersist {
		return fmt.Errorf("%w: jsonbin returned status 500", domain.ErrRemoteUnavailable)
	}
	return b.Backend.Persist(ctx, s)
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, []byte) (string, error) {
	return "", domain.ErrUploadFailed
}
func (failingUploader) Durable() bool { return true }

type testEnv struct {
	router    *gin.Engine
	svc       *service.ProjectService
	backend   *switchableBackend
	presenter *gallery.Presenter
	token     string
	handler   *Handler
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := repository.NewFileCache(filepath.Join(t.TempDir(), "portfolio.json"), nil)
	backend := &switchableBackend{Backend: repository.SelectBackend(nil, cache)}

	presenter, err := gallery.NewPresenter("Web Solution", nil)
	require.NoError(t, err)

	svc := service.NewProjectService(backend, presenter, domain.NewClockIDs(nil), nil)
	require.NoError(t, svc.Load(context.Background()))

	sessions := auth.NewMemorySessions(time.Hour)
	token, err := sessions.Create(context.Background())
	require.NoError(t, err)

	h := New(Deps{
		Projects:   svc,
		Presenter:  presenter,
		Uploader:   assets.DataURIEncoder{},
		Gate:       auth.NewGate("admin", "WebSolution2025!"),
		Sessions:   sessions,
		Limiter:    auth.NewLoginLimiter(60, 3),
		SessionTTL: time.Hour,
	})

	router := gin.New()
	h.Register(router)

	return &testEnv{router: router, svc: svc, backend: backend, presenter: presenter, token: token, handler: h}
}

func (e *testEnv) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.Header.Set(auth.SessionHeader, e.token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "shot.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPublicRoutes(t *testing.T) {
	env := setupTestRouter(t)

	t.Run("gallery page shows the empty state", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil), false)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rr.Body.String(), "No projects available yet. Check back soon!")
		assert.Contains(t, rr.Body.String(), "0 Projects")
	})

	t.Run("project list", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil), false)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true,"projects":[],"count":0,"mode":"local"}`, rr.Body.String())
	})

	t.Run("admin routes need a session", func(t *testing.T) {
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", projectReq{Title: "x", Image: "y"}), false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, env.svc.Projects())
	})
}

func TestLogin(t *testing.T) {
	env := setupTestRouter(t)

	t.Run("valid credentials issue a session", func(t *testing.T) {
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/login", loginReq{Username: "admin", Password: "WebSolution2025!"}), false)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			OK    bool   `json:"ok"`
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.NotEmpty(t, resp.Token)
		assert.Contains(t, rr.Header().Get("Set-Cookie"), auth.SessionCookie+"="+resp.Token)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(auth.SessionHeader, resp.Token)
		assert.Equal(t, http.StatusOK, env.do(req, false).Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/login", loginReq{Username: "admin", Password: "nope"}), false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("attempts are rate limited", func(t *testing.T) {
		var last int
		for i := 0; i < 5; i++ {
			last = env.do(jsonRequest(http.MethodPost, "/api/v1/admin/login", loginReq{Username: "admin", Password: "nope"}), false).Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})
}

func TestLogout(t *testing.T) {
	env := setupTestRouter(t)

	rr := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil), true)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/notices", nil), true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "token no longer valid")
}

func TestCreateProject(t *testing.T) {
	t.Run("json draft", func(t *testing.T) {
		env := setupTestRouter(t)
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", projectReq{
			Title:       " Bakery ",
			Category:    "Web",
			Description: "Landing page",
			Image:       "https://img.example/1.png",
		}), true)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		got := env.svc.Projects()
		require.Len(t, got, 1)
		assert.Equal(t, "Bakery", got[0].Title)
		assert.Contains(t, string(env.presenter.GalleryHTML()), "Bakery")
		assert.Equal(t, "1 Project", env.presenter.CountLabel())
	})

	t.Run("multipart with file uses the uploaded image", func(t *testing.T) {
		env := setupTestRouter(t)
		req := multipartRequest(t, "/api/v1/admin/projects", map[string]string{
			"title":    "Salon",
			"category": "Branding",
			"image":    "https://ignored.example/x.png",
		}, []byte("\x89PNG\r\n\x1a\nrest"))

		rr := env.do(req, true)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		got := env.svc.Projects()
		require.Len(t, got, 1)
		assert.True(t, strings.HasPrefix(got[0].Image, "data:image/png;base64,"))
	})

	t.Run("upload failure falls back to the image URL", func(t *testing.T) {
		env := setupTestRouter(t)
		env.handler.Uploader = failingUploader{}
		req := multipartRequest(t, "/api/v1/admin/projects", map[string]string{
			"title": "Gym",
			"image": "https://img.example/gym.png",
		}, []byte("bytes"))

		rr := env.do(req, true)
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "https://img.example/gym.png", env.svc.Projects()[0].Image)
	})

	t.Run("upload failure without URL", func(t *testing.T) {
		env := setupTestRouter(t)
		env.handler.Uploader = failingUploader{}
		req := multipartRequest(t, "/api/v1/admin/projects", map[string]string{"title": "Gym"}, []byte("bytes"))

		rr := env.do(req, true)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), msgUploadFailed)
		assert.Empty(t, env.svc.Projects())
	})

	t.Run("missing image is a validation error", func(t *testing.T) {
		env := setupTestRouter(t)
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", projectReq{Title: "No image"}), true)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), service.MsgImageRequired)
	})

	t.Run("persistence failure rolls back", func(t *testing.T) {
		env := setupTestRouter(t)
		env.backend.failPersist = true
		rr := env.do(jsonRequest(http.MethodPost, "/api/v1/admin/projects", projectReq{Title: "x", Image: "https://i/x.png"}), true)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), service.MsgAddFailed)
		assert.Empty(t, env.svc.Projects())
	})
}

func TestDeleteProject(t *testing.T) {
	env := setupTestRouter(t)
	p, err := env.svc.AddProject(context.Background(), domain.Draft{Title: "Bakery", Image: "https://i/1.png"})
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/projects/nope", nil), true)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("persistence failure keeps the project", func(t *testing.T) {
		env.backend.failPersist = true
		defer func() { env.backend.failPersist = false }()

		rr := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/projects/"+p.ID, nil), true)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), service.MsgDeleteFailed)
		assert.Len(t, env.svc.Projects(), 1)
	})

	t.Run("success", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/projects/"+p.ID, nil), true)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, env.svc.Projects())

		rr = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/notices", nil), true)
		assert.Contains(t, rr.Body.String(), service.MsgDeleted)
	})
}

func TestUploadEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	rr := env.do(multipartRequest(t, "/api/v1/admin/uploads", nil, []byte("\x89PNG\r\n\x1a\nrest")), true)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		URL     string `json:"url"`
		Durable bool   `json:"durable"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "data:image/png;base64,"))
	assert.False(t, resp.Durable)

	rr = env.do(multipartRequest(t, "/api/v1/admin/uploads", nil, nil), true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefresh(t *testing.T) {
	env := setupTestRouter(t)
	rr := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil), true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"count":0}`, rr.Body.String())
}

type countingUploader struct {
	calls int
}

func (u *countingUploader) Upload(context.Context, string, []byte) (string, error) {
	u.calls++
	return "https://res.example/uploaded.png", nil
}
func (u *countingUploader) Durable() bool { return true }

func browser(req *http.Request) *http.Request {
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func latestNotice(t *testing.T, p *gallery.Presenter) gallery.Notice {
	t.Helper()
	notices := p.Notices()
	require.NotEmpty(t, notices)
	return notices[0]
}

func TestCreateProject_RejectsBeforeUpload(t *testing.T) {
	env := setupTestRouter(t)
	uploader := &countingUploader{}
	env.handler.Uploader = uploader

	req := multipartRequest(t, "/api/v1/admin/projects", map[string]string{"title": "   "}, []byte("\x89PNG\r\n\x1a\nrest"))
	rr := env.do(req, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), service.MsgTitleRequired)
	assert.Zero(t, uploader.calls, "nothing is uploaded for a draft that cannot be saved")
	assert.Empty(t, env.svc.Projects())
}

func TestBrowserForms(t *testing.T) {
	t.Run("add without image returns to the admin page", func(t *testing.T) {
		env := setupTestRouter(t)
		req := browser(multipartRequest(t, "/api/v1/admin/projects", map[string]string{"title": "Bakery"}, nil))

		rr := env.do(req, true)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, adminPath, rr.Header().Get("Location"))
		assert.Equal(t, service.MsgImageRequired, latestNotice(t, env.presenter).Message)
		assert.Empty(t, env.svc.Projects())
	})

	t.Run("add rolled back returns to the admin page", func(t *testing.T) {
		env := setupTestRouter(t)
		env.backend.failPersist = true
		req := browser(multipartRequest(t, "/api/v1/admin/projects", map[string]string{"title": "Bakery", "image": "https://i/1.png"}, nil))

		rr := env.do(req, true)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, adminPath, rr.Header().Get("Location"))
		assert.Equal(t, service.MsgAddFailed, latestNotice(t, env.presenter).Message)
	})

	t.Run("upload failure without URL returns to the admin page", func(t *testing.T) {
		env := setupTestRouter(t)
		env.handler.Uploader = failingUploader{}
		req := browser(multipartRequest(t, "/api/v1/admin/projects", map[string]string{"title": "Gym"}, []byte("bytes")))

		rr := env.do(req, true)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, msgUploadFailed, latestNotice(t, env.presenter).Message)
		assert.Empty(t, env.svc.Projects())
	})

	t.Run("delete form", func(t *testing.T) {
		env := setupTestRouter(t)
		p, err := env.svc.AddProject(context.Background(), domain.Draft{Title: "Bakery", Image: "https://i/1.png"})
		require.NoError(t, err)

		env.backend.failPersist = true
		rr := env.do(browser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/projects/"+p.ID+"/delete", nil)), true)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, adminPath, rr.Header().Get("Location"))
		assert.Equal(t, service.MsgDeleteFailed, latestNotice(t, env.presenter).Message)
		assert.Len(t, env.svc.Projects(), 1)

		env.backend.failPersist = false
		rr = env.do(browser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/projects/"+p.ID+"/delete", nil)), true)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, service.MsgDeleted, latestNotice(t, env.presenter).Message)
		assert.Empty(t, env.svc.Projects())
	})

	t.Run("delete of unknown project", func(t *testing.T) {
		env := setupTestRouter(t)
		rr := env.do(browser(httptest.NewRequest(http.MethodPost, "/api/v1/admin/projects/nope/delete", nil)), true)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, service.MsgProjectNotFound, latestNotice(t, env.presenter).Message)
	})
}
