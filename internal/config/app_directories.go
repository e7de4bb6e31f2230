package config

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// AppDirectories Web 应用的目录结构，均位于应用目录之下
type AppDirectories struct {
	WebAppDir string
	BinDir    string
	ConfigDir string
	LangDir   string
	LogDir    string
}

// NewAppDirectories 根据应用目录计算各子目录
func NewAppDirectories(webAppDir string) AppDirectories {
	if webAppDir == "" {
		webAppDir = "."
	}
	webAppDir = filepath.Clean(webAppDir)
	return AppDirectories{
		WebAppDir: webAppDir,
		BinDir:    filepath.Join(webAppDir, "bin"),
		ConfigDir: filepath.Join(webAppDir, "config"),
		LangDir:   filepath.Join(webAppDir, "lang"),
		LogDir:    filepath.Join(webAppDir, "log"),
	}
}

// Create 创建缺失的目录
func (d AppDirectories) Create() error {
	var result error
	for _, dir := range []string{d.BinDir, d.ConfigDir, d.LangDir, d.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// AppDirs 根据当前配置返回目录结构
func AppDirs() AppDirectories {
	if config == nil {
		return NewAppDirectories("")
	}
	return NewAppDirectories(config.Web.AppDir)
}
