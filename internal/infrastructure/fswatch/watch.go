package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes below a project folder. Hidden entries and editor
// backup files are ignored. Directories created later are watched too.
type Watcher struct {
	log      *zap.Logger
	root     string
	w        *fsnotify.Watcher
	onChange func(path string)
}

func New(l *zap.Logger, root string, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{log: l.Named("fswatch"), root: filepath.Clean(root), w: fw, onChange: onChange}
	if err := w.addTree(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers events until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.w.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ignored(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Warn("fsnotify add dir failed", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.log.Debug("change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				w.onChange(ev.Name)
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.w.Add(p)
	})
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
