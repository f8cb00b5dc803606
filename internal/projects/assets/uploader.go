package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/metrics"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// MaxImageBytes bounds what the HTTP layer and CLI will read from an upload.
const MaxImageBytes = 10 << 20

// Uploader turns raw image bytes into something a gallery <img> can point at.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	// Durable is false when the returned value is an inline data URI rather
	// than a hosted URL.
	Durable() bool
}

// NewUploader picks the asset host when it is configured and inline
// encoding otherwise.
func NewUploader(cfg config.AssetsConfig) Uploader {
	if cfg.Configured() {
		return NewCloudinaryUploader(cfg)
	}
	return DataURIEncoder{}
}

// CloudinaryUploader posts images to an unsigned upload preset.
type CloudinaryUploader struct {
	endpoint   string
	preset     string
	httpClient *http.Client
}

func NewCloudinaryUploader(cfg config.AssetsConfig) *CloudinaryUploader {
	return &CloudinaryUploader{
		endpoint: fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(cfg.BaseURL, "/"), cfg.CloudName),
		preset:   cfg.UploadPreset,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (u *CloudinaryUploader) Durable() bool { return true }

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, data []byte) (url string, err error) {
	defer func() { metrics.RecordUpload("cloudinary", err) }()

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrUploadFailed)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create form file: %v", domain.ErrUploadFailed, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: failed to write form file: %v", domain.ErrUploadFailed, err)
	}
	if err := mw.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("%w: failed to write upload_preset: %v", domain.ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close multipart writer: %v", domain.ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", domain.ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to call cloudinary: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", domain.ErrUploadFailed, err)
	}

	var out uploadResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: cloudinary returned status %d: %s", domain.ErrUploadFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: cloudinary response has no secure_url: %v", domain.ErrUploadFailed, decodeErr)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("%w: cloudinary response has no secure_url", domain.ErrUploadFailed)
	}

	return out.SecureURL, nil
}

// DataURIEncoder inlines the image as a base64 data URI. The result only
// lives as long as wherever the collection is stored.
type DataURIEncoder struct{}

func (DataURIEncoder) Durable() bool { return false }

func (DataURIEncoder) Upload(ctx context.Context, _ string, data []byte) (uri string, err error) {
	defer func() { metrics.RecordUpload("data_uri", err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrUploadFailed)
	}
	return EncodeDataURI(data), nil
}

// EncodeDataURI returns data:<mime>;base64,<payload> with the mime type
// sniffed from the content.
func EncodeDataURI(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var ErrTooLarge = errors.New("file exceeds upload limit")

// ReadLimited reads at most max bytes from r and fails if there is more.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return data, nil
}
