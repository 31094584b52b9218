package handler

import (
	"time"

	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/cache"
	"github.com/reusedev/draw-studio/internal/modules/draw"
	"github.com/reusedev/draw-studio/internal/modules/queue"
	"github.com/reusedev/draw-studio/internal/modules/storage"
	"gorm.io/gorm"
)

var (
	tasks     *draw.Store
	taskQ     *queue.TaskQueue
	uploader  storage.Uploader
	historyDB *gorm.DB // nil when mysql is disabled

	imageCache = cache.NewManager[cachedImage](10*time.Minute, 10*time.Minute)

	newDispatcher = func(c *config.Config) image.Dispatch {
		return draw.NewDispatcher(c)
	}
)

// Init wires the handlers to the task store, the queue batches run on, the
// optional image storage and the optional invocation history.
func Init(store *draw.Store, q *queue.TaskQueue, u storage.Uploader, db *gorm.DB) {
	tasks = store
	taskQ = q
	uploader = u
	historyDB = db
}

type cachedImage struct {
	Data     []byte
	MimeType string
}
