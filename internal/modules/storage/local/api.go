package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/reusedev/draw-studio/tools"
)

func SaveFile(f io.Reader, filePath string) error {
	dir := filepath.Dir(filePath)
	err := os.MkdirAll(dir, 0770)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, f)
	if err != nil {
		return err
	}
	return nil
}

// RoutePrefix is where the HTTP server exposes Disk.Dir.
const RoutePrefix = "/v1/files"

// Disk keeps generated images under one directory.
type Disk struct {
	Dir string
}

func NewDisk(dir string) *Disk {
	return &Disk{Dir: dir}
}

func (d *Disk) UploadImage(_ context.Context, b []byte) (string, error) {
	key := uuid.New().String() + "." + tools.DetectImageType(b).String()
	return key, SaveFile(bytes.NewReader(b), filepath.Join(d.Dir, key))
}

// URL is the server relative link under RoutePrefix; local files do not expire.
func (d *Disk) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	return path.Join(RoutePrefix, path.Base(key)), nil
}

func (d *Disk) Name() string {
	return "local"
}
