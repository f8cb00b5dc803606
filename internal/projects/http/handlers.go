package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
	"github.com/Ntuthuko-dev/Web-Solution/internal/logging"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/assets"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/service"
)

const msgUploadFailed = "Upload failed. Please try a URL instead."

func (h *Handler) galleryPage(c *gin.Context) {
	h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error { return h.Presenter.WritePage(buf) })
}

func (h *Handler) adminPage(c *gin.Context) {
	h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error { return h.Presenter.WriteAdminPage(buf) })
}

func (h *Handler) loginPage(c *gin.Context) {
	h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error { return h.Presenter.WriteLoginPage(buf, "") })
}

func (h *Handler) list(c *gin.Context) {
	items := h.Projects.Projects()
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"projects": items,
		"count":    len(items),
		"mode":     h.Projects.Mode(),
	})
}

func (h *Handler) login(c *gin.Context) {
	if !h.Limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many login attempts"})
		return
	}

	var req loginReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := h.Gate.Check(strings.TrimSpace(req.Username), req.Password); err != nil {
		logging.FromContext(c.Request.Context(), h.Logger).Warn("rejected admin login", zap.String("client_ip", c.ClientIP()))
		if wantsHTML(c) {
			h.writeHTML(c, http.StatusUnauthorized, func(buf *bytes.Buffer) error {
				return h.Presenter.WriteLoginPage(buf, "Invalid username or password")
			})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
		return
	}

	token, err := h.Sessions.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "session store unavailable"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.SessionTTL.Seconds()), "/", "", h.SecureCookies, true)

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, adminPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Sessions.Destroy(c.Request.Context(), auth.SessionToken(c)); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "session store unavailable"})
		return
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.SecureCookies, true)

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, loginPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}

	url, err := h.uploadFile(c, fh)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, assets.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"ok": false, "error": msgUploadFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url, "durable": h.Uploader.Durable()})
}

// create accepts a JSON draft, or a multipart form whose optional "file" is
// uploaded first. An uploaded image takes precedence over the image field.
func (h *Handler) create(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	draft := req.draft()

	if fh, err := c.FormFile("file"); err == nil {
		// Reject before uploading so a bad draft leaves no orphan asset behind.
		if err := draft.Normalize().ValidateTitle(); err != nil {
			h.Presenter.Notify(service.MsgTitleRequired, domain.SeverityError)
			h.fail(c, err)
			return
		}

		url, err := h.uploadFile(c, fh)
		switch {
		case err == nil:
			draft.Image = url
		case strings.TrimSpace(draft.Image) == "":
			h.Presenter.Notify(msgUploadFailed, domain.SeverityError)
			if wantsHTML(c) {
				c.Redirect(http.StatusSeeOther, adminPath)
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": msgUploadFailed})
			return
		default:
			logging.FromContext(c.Request.Context(), h.Logger).Warn("upload failed, using image URL instead", zap.Error(err))
		}
	}

	p, err := h.Projects.AddProject(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, adminPath)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.Projects.DeleteProject(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, adminPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) notices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "notices": h.Presenter.Notices()})
}

func (h *Handler) refresh(c *gin.Context) {
	if err := h.Projects.Load(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(h.Projects.Projects())})
}

func (h *Handler) uploadFile(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := assets.ReadLimited(f, assets.MaxImageBytes)
	if err != nil {
		return "", err
	}

	url, err := h.Uploader.Upload(c.Request.Context(), fh.Filename, data)
	if err != nil {
		logging.FromContext(c.Request.Context(), h.Logger).Error("image upload failed", zap.String("filename", fh.Filename), zap.Error(err))
		return "", err
	}
	return url, nil
}

// fail maps service errors onto status codes and operator-facing messages.
// Browsers are sent back to the management page, where the notice recorded
// for the failure is shown.
func (h *Handler) fail(c *gin.Context, err error) {
	if wantsHTML(c) {
		if errors.Is(err, domain.ErrProjectNotFound) {
			h.Presenter.Notify(service.MsgProjectNotFound, domain.SeverityError)
		}
		c.Redirect(http.StatusSeeOther, adminPath)
		return
	}

	status, msg := http.StatusInternalServerError, err.Error()

	switch {
	case errors.Is(err, domain.ErrImageRequired):
		status, msg = http.StatusBadRequest, service.MsgImageRequired
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, service.MsgTitleRequired
	case errors.Is(err, domain.ErrProjectNotFound):
		status, msg = http.StatusNotFound, service.MsgProjectNotFound
	case errors.Is(err, domain.ErrLoadFailed):
		status, msg = http.StatusBadGateway, service.MsgLoadFailed
	case errors.Is(err, domain.ErrPersistenceFailed):
		status = http.StatusBadGateway
		msg = service.MsgAddFailed
		if c.Request.Method == http.MethodDelete || strings.HasSuffix(c.FullPath(), "/delete") {
			msg = service.MsgDeleteFailed
		}
	}

	c.JSON(status, gin.H{"ok": false, "error": msg})
}

func (h *Handler) writeHTML(c *gin.Context, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		logging.FromContext(c.Request.Context(), h.Logger).Error("failed to render page", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
