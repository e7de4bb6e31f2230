package settings

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// LoadFunc 从指定文件加载配置
type LoadFunc func(path string) error

// Refresh 仅当文件修改时间与 *stored 不同时调用 load。
// 文件不存在时修改时间为零值。加载成功后更新 *stored，失败时保持不变，下次调用会重试。
func Refresh(load LoadFunc, path string, stored *time.Time) (reloaded bool, err error) {
	if load == nil {
		return false, ErrNoLoader
	}
	if stored == nil {
		return false, errors.New("stored modification time is nil")
	}

	modTime := FileModTime(path)
	if modTime.Equal(*stored) {
		return false, nil
	}

	if err := load(path); err != nil {
		return false, err
	}
	*stored = modTime
	return true, nil
}

// FileModTime 返回文件修改时间，无法读取时返回零值
func FileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
