package assets

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func cloudinaryConfig(baseURL string) config.AssetsConfig {
	return config.AssetsConfig{CloudName: "demo", UploadPreset: "portfolio_unsigned", BaseURL: baseURL}
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/demo/image/upload", r.URL.Path)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "portfolio_unsigned", r.FormValue("upload_preset"))

		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer f.Close()
			assert.Equal(t, "logo.png", hdr.Filename)
			got, _ := io.ReadAll(f)
			assert.Equal(t, pngBytes, got)
		}

		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/logo.png","public_id":"logo"}`))
	}))
	defer server.Close()

	u := NewCloudinaryUploader(cloudinaryConfig(server.URL))
	url, err := u.Upload(context.Background(), "logo.png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/logo.png", url)
	assert.True(t, u.Durable())
}

func TestCloudinaryUploader_Failures(t *testing.T) {
	t.Run("error status carries the host message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
		}))
		defer server.Close()

		_, err := NewCloudinaryUploader(cloudinaryConfig(server.URL)).Upload(context.Background(), "a.png", pngBytes)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
		assert.Contains(t, err.Error(), "Upload preset not found")
	})

	t.Run("missing secure_url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewCloudinaryUploader(cloudinaryConfig(server.URL)).Upload(context.Background(), "a.png", pngBytes)
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewCloudinaryUploader(cloudinaryConfig("http://unused")).Upload(context.Background(), "a.png", nil)
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
	})

	t.Run("undecodable success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		_, err := NewCloudinaryUploader(cloudinaryConfig(server.URL)).Upload(context.Background(), "a.png", pngBytes)
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
		assert.Contains(t, err.Error(), "secure_url")
	})

	t.Run("request cannot be built", func(t *testing.T) {
		_, err := NewCloudinaryUploader(cloudinaryConfig("http://bad\x7fhost")).Upload(context.Background(), "a.png", pngBytes)
		assert.ErrorIs(t, err, domain.ErrUploadFailed)
	})
}

func TestDataURIEncoder(t *testing.T) {
	uri, err := DataURIEncoder{}.Upload(context.Background(), "logo.png", pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,iVBORw0KGgo"), uri)
	assert.False(t, DataURIEncoder{}.Durable())

	_, err = DataURIEncoder{}.Upload(context.Background(), "x", nil)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestEncodeDataURI_Text(t *testing.T) {
	uri := EncodeDataURI([]byte("hello"))
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", uri)
}

func TestNewUploader(t *testing.T) {
	_, ok := NewUploader(config.AssetsConfig{
		CloudName:    config.PlaceholderCloudName,
		UploadPreset: config.PlaceholderUploadPreset,
	}).(DataURIEncoder)
	assert.True(t, ok)

	_, ok = NewUploader(cloudinaryConfig("http://x")).(*CloudinaryUploader)
	assert.True(t, ok)
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(bytes.NewReader([]byte("12345")), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = ReadLimited(bytes.NewReader([]byte("123456")), 5)
	assert.ErrorIs(t, err, ErrTooLarge)
}
