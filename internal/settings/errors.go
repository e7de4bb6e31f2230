package settings

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoLoader 未指定加载函数
	ErrNoLoader = errors.New("settings loader is not specified")
	// ErrFileNotFound 配置文件不存在
	ErrFileNotFound = errors.New("settings file not found")
)

// FileNotFoundError 配置文件缺失，配置保持默认值
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %s not found, please configure the application", e.Path)
}

func (e *FileNotFoundError) Unwrap() error {
	return ErrFileNotFound
}

// ParseError 参数值解析失败，Field 为参数名
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("incorrect value %q of parameter %s", e.Value, e.Field)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
