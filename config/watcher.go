package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig watches the config file and sends SIGHUP on the given
// channel whenever it changes, so an edit on disk (by hand or through
// the HTTP API) behaves exactly like an external reload signal. The
// parent directory is watched rather than the file itself because most
// editors replace the file on save. The returned function stops the
// watcher.
func WatchConfig(cfile string, ossignal chan<- os.Signal) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	absfile, err := filepath.Abs(cfile)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(absfile)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absfile {
					continue
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					slog.Info("Config file changed on disk, triggering reload", "file", cfile)
					ossignal <- syscall.SIGHUP
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config file watcher error", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
