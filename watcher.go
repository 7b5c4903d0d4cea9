package main

import (
	"context"
	"path/filepath"

	"cmsbe/models"

	"github.com/fsnotify/fsnotify"
)

// startUploadWatcher reconciles file metadata with the upload directory: a
// stored blob removed behind the API's back marks its record missing, and a
// blob reappearing clears the flag. Runs until the context is cancelled.
func startUploadWatcher(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(cfg.UploadDir); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				handleUploadEvent(ev)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("upload watcher error", "err", err)
			}
		}
	}()
	return nil
}

func handleUploadEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		res := db.Model(&models.File{}).Where("store_path = ?", name).Update("missing", true)
		if res.Error == nil && res.RowsAffected > 0 {
			logger.Info("upload gone from disk", "store_path", name)
		}
	case ev.Has(fsnotify.Create):
		res := db.Model(&models.File{}).Where("store_path = ? AND missing = ?", name, true).Update("missing", false)
		if res.Error == nil && res.RowsAffected > 0 {
			logger.Info("upload restored on disk", "store_path", name)
		}
	}
}
