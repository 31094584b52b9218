package draw

import (
	"context"
	"time"

	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/storage"
)

// BatchTask runs one Task on the queue.
type BatchTask struct {
	Task       *Task
	Payloads   []image.Payload
	Dispatcher image.Dispatch
	Options    image.BatchOptions
	Store      *Store
	Uploader   storage.Uploader // optional
	URLExpires time.Duration
}

func (b *BatchTask) Execute(ctx context.Context) {
	b.Task.start()
	opts := b.Options
	opts.OnSlotDone = func(i int, o image.Outcome) {
		b.Task.finishSlot(i, o, Persist(ctx, b.Uploader, o, b.URLExpires))
	}
	image.RunBatch(ctx, b.Dispatcher, b.Payloads, opts)
	b.Task.finish()
	if b.Store != nil {
		if err := b.Store.Put(b.Task); err != nil {
			logs.Logger.Err(err).Str("task_id", b.Task.Id()).Msg("refresh task failed")
		}
	}
	view := b.Task.View()
	logs.Logger.Info().
		Str("task_id", view.Id).
		Str("status", view.Status.String()).
		Int("slots", len(view.Slots)).
		Msg("batch task finished")
}

// Persist uploads a successful outcome and returns its link, or "" when
// storage is off or the upload fails.
func Persist(ctx context.Context, u storage.Uploader, o image.Outcome, expire time.Duration) string {
	if u == nil || !o.Succeed() {
		return ""
	}
	key, err := u.UploadImage(ctx, o.Result.Data)
	if err != nil {
		logs.Logger.Err(err).Str("dispatch_id", o.ID).Str("storage", u.Name()).Msg("upload image failed")
		return ""
	}
	url, err := u.URL(ctx, key, expire)
	if err != nil {
		logs.Logger.Err(err).Str("dispatch_id", o.ID).Str("key", key).Msg("sign image url failed")
		return ""
	}
	return url
}
