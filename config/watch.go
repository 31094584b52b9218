package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads filePath whenever it changes on disk. A file that fails to
// parse or verify leaves the active config untouched; onReload receives the
// outcome of every attempt. The directory is watched rather than the file so
// editors that replace the file on save are still picked up.
func Watch(ctx context.Context, filePath string, onReload func(c *Config, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		watcher.Close()
		return err
	}
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				c, err := Load(abs)
				if err == nil {
					Set(c)
				}
				if onReload != nil {
					onReload(c, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onReload != nil {
					onReload(nil, err)
				}
			}
		}
	}()
	return nil
}
