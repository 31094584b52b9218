package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/storage/local"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, err := config.Parse([]byte("http:\n  burst: 1\n  rate_limit: 0.001\n"))
	require.NoError(t, err)
	e := gin.New()
	initRouter(e, c)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	require.Equal(t, stdhttp.StatusOK, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/v1/task", nil))
	require.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/v1/task", nil))
	require.Equal(t, stdhttp.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil))
	require.Equal(t, stdhttp.StatusOK, w.Code)
}

func TestRouterServesLocalFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	c, err := config.Parse([]byte(fmt.Sprintf("storage_enabled: true\nlocal_dir: %s\n", dir)))
	require.NoError(t, err)
	e := gin.New()
	initRouter(e, c)

	png := []byte("\x89PNG\r\n\x1a\nbody")
	disk := local.NewDisk(dir)
	key, err := disk.UploadImage(context.Background(), png)
	require.NoError(t, err)
	url, err := disk.URL(context.Background(), key, 0)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(stdhttp.MethodGet, url, nil))
	require.Equal(t, stdhttp.StatusOK, w.Code)
	require.Equal(t, png, w.Body.Bytes())
}
