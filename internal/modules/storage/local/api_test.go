package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiskUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	d := NewDisk(dir)
	png := []byte("\x89PNG\r\n\x1a\nrest")
	key, err := d.UploadImage(context.Background(), png)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(key, ".png"), key)

	got, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	require.Equal(t, png, got)

	url, err := d.URL(context.Background(), key, time.Hour)
	require.NoError(t, err)
	require.Equal(t, RoutePrefix+"/"+key, url)
	require.NotContains(t, url, dir)
}
