package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Settings 基于文件的配置
type Settings interface {
	// DefaultFileName 配置目录下的文件名
	DefaultFileName() string
	LoadFromFile(path string) error
	SaveToFile(path string) error
}

// FileBinding 配置文件路径及最近一次成功加载时的修改时间
type FileBinding struct {
	Path    string
	ModTime time.Time

	// 首次刷新总是加载一次，文件缺失时能报告出来
	checked bool
}

// NewFileBinding 绑定 dir 下的配置文件
func NewFileBinding(dir, fileName string) *FileBinding {
	return &FileBinding{Path: filepath.Join(dir, fileName)}
}

// Refresh 文件变化时通过 load 重新加载
func (b *FileBinding) Refresh(load LoadFunc) (bool, error) {
	if !b.checked {
		if load == nil {
			return false, ErrNoLoader
		}
		b.checked = true
		modTime := FileModTime(b.Path)
		if err := load(b.Path); err != nil {
			return false, err
		}
		b.ModTime = modTime
		return true, nil
	}
	return Refresh(load, b.Path, &b.ModTime)
}

// RefreshSettings 文件变化时原地重新加载 s
func RefreshSettings(s Settings, dir string, b *FileBinding) (bool, error) {
	if b.Path == "" {
		b.Path = filepath.Join(dir, s.DefaultFileName())
	}
	return b.Refresh(s.LoadFromFile)
}

// readSettingsFile 读取配置文件，文件不存在时返回 *FileNotFoundError
func readSettingsFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: path}
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// writeFileAtomic 先写同目录临时文件再重命名覆盖，失败时原文件不受影响
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temporary file")
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temporary file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replace %s", path)
	}
	return nil
}
