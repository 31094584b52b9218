package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/storage/ali"
	"github.com/reusedev/draw-studio/internal/modules/storage/local"
)

// Uploader persists generated images and hands out links to them.
type Uploader interface {
	UploadImage(ctx context.Context, b []byte) (key string, err error)
	URL(ctx context.Context, key string, expire time.Duration) (string, error)
	Name() string
}

// New returns nil when storage is disabled.
func New(c *config.Config) (Uploader, error) {
	if !c.StorageEnabled {
		return nil, nil
	}
	switch c.StorageSupplier {
	case config.StorageLocal:
		return local.NewDisk(c.LocalDir), nil
	case config.StorageAliOss:
		ali.InitOSS(c.AliOss)
		return ali.OssClient, nil
	}
	return nil, fmt.Errorf("unknown storage supplier: %s", c.StorageSupplier)
}
