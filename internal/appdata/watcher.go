package appdata

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watch 监听配置目录和语言目录，文件变化后（合并 delay 内的多次变化）调用 Init。
// 定时刷新仍然生效，这里只是让修改更快生效。ctx 取消后退出
func (a *AppData) Watch(ctx context.Context, delay time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	for _, dir := range []string{a.dirs.ConfigDir, a.dirs.LangDir} {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return errors.Wrapf(err, "watch %s", dir)
		}
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSettingsEvent(event) {
					continue
				}
				logger.Debug(ctx, "Settings file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				if pending == nil {
					pending = time.After(delay)
				}
			case <-pending:
				pending = nil
				if err := a.Init(ctx); err != nil {
					logger.Warn(ctx, "Refresh after file change finished with errors", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error(ctx, "File watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// isSettingsEvent 只关心配置文件的写入、创建和重命名
func isSettingsEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".xml", ".toml", ".yml", ".yaml":
		return true
	}
	return false
}
