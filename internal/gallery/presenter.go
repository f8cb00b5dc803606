package gallery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	galleryPlaceholderBase = "https://placehold.co/400x280/e0f2fe/3b82f6?text="
	adminPlaceholderURL    = "https://placehold.co/100x100/e0f2fe/3b82f6?text=Img"

	noticeCapacity = 20
)

// Notice is one operator notification.
type Notice struct {
	Message  string          `json:"message"`
	Severity domain.Severity `json:"severity"`
	At       time.Time       `json:"at"`
}

// Presenter renders the gallery and the management list into HTML fragments
// and keeps the most recent ones for the HTTP layer to serve.
type Presenter struct {
	siteTitle string
	tmpl      *template.Template
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	gallery template.HTML
	admin   template.HTML
	count   int
	notices []Notice
}

func NewPresenter(siteTitle string, logger *zap.Logger) (*Presenter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("portfolio").Funcs(template.FuncMap{
		"imageURL":           imageURL,
		"galleryPlaceholder": GalleryPlaceholder,
		"adminPlaceholder":   func() string { return adminPlaceholderURL },
		"truncate":           Truncate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	p := &Presenter{
		siteTitle: siteTitle,
		tmpl:      tmpl,
		logger:    logger,
		now:       time.Now,
	}
	// Nothing loaded yet renders as the empty state.
	p.Render(nil)
	p.RenderManagementList(nil)
	return p, nil
}

func (p *Presenter) Render(projects domain.Snapshot) {
	html, err := p.execute("gallery", projects)
	if err != nil {
		p.logger.Error("failed to render gallery", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.gallery = html
	p.count = len(projects)
	p.mu.Unlock()
}

func (p *Presenter) RenderManagementList(projects domain.Snapshot) {
	html, err := p.execute("admin", projects)
	if err != nil {
		p.logger.Error("failed to render management list", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.admin = html
	p.mu.Unlock()
}

// RenderLoadError replaces the gallery with an error message.
func (p *Presenter) RenderLoadError(message string) {
	html, err := p.execute("load_error", message)
	if err != nil {
		p.logger.Error("failed to render load error", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.gallery = html
	p.count = 0
	p.mu.Unlock()
}

func (p *Presenter) Notify(message string, severity domain.Severity) {
	if severity == domain.SeverityError {
		p.logger.Warn("notice", zap.String("message", message), zap.String("severity", string(severity)))
	} else {
		p.logger.Info("notice", zap.String("message", message), zap.String("severity", string(severity)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, Notice{Message: message, Severity: severity, At: p.now()})
	if len(p.notices) > noticeCapacity {
		p.notices = p.notices[len(p.notices)-noticeCapacity:]
	}
}

// Notices returns recent notices, newest first.
func (p *Presenter) Notices() []Notice {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Notice, len(p.notices))
	for i, n := range p.notices {
		out[len(p.notices)-1-i] = n
	}
	return out
}

func (p *Presenter) GalleryHTML() template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gallery
}

func (p *Presenter) AdminHTML() template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.admin
}

func (p *Presenter) CountLabel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return CountLabel(p.count)
}

type pageData struct {
	Title      string
	CountLabel string
	Gallery    template.HTML
	Admin      template.HTML
	Notices    []Notice
	Error      string
}

// WritePage writes the public gallery page.
func (p *Presenter) WritePage(w io.Writer) error {
	return p.tmpl.ExecuteTemplate(w, "page", pageData{
		Title:      p.siteTitle,
		CountLabel: p.CountLabel(),
		Gallery:    p.GalleryHTML(),
	})
}

// WriteAdminPage writes the management page with the latest notices.
func (p *Presenter) WriteAdminPage(w io.Writer) error {
	notices := p.Notices()
	if len(notices) > 5 {
		notices = notices[:5]
	}
	return p.tmpl.ExecuteTemplate(w, "admin_page", pageData{
		Title:      p.siteTitle,
		CountLabel: p.CountLabel(),
		Admin:      p.AdminHTML(),
		Notices:    notices,
	})
}

func (p *Presenter) WriteLoginPage(w io.Writer, errMsg string) error {
	return p.tmpl.ExecuteTemplate(w, "login_page", pageData{Title: p.siteTitle, Error: errMsg})
}

func (p *Presenter) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// CountLabel renders "1 Project", "3 Projects".
func CountLabel(n int) string {
	if n == 1 {
		return "1 Project"
	}
	return fmt.Sprintf("%d Projects", n)
}

// GalleryPlaceholder is the stand-in image for a project whose image fails to load.
func GalleryPlaceholder(title string) string {
	return galleryPlaceholderBase + strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// imageURL lets hosted images and inline image data through to src
// attributes; anything else is swapped for the placeholder.
func imageURL(src string) template.URL {
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return template.URL(src)
	case strings.HasPrefix(lower, "data:image/"):
		return template.URL(src)
	}
	if u, err := url.Parse(src); err == nil && u.Scheme == "" && src != "" {
		return template.URL(src)
	}
	return template.URL(adminPlaceholderURL)
}
