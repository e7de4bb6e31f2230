package utils

import (
	"os"
	"path/filepath"
)

// GetAbsPath 相对路径先按工作目录查找，不存在时按可执行文件所在目录查找。
// 两处都不存在时返回工作目录下的路径，由调用方报告文件缺失
func GetAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	wd, err := os.Getwd()
	if err == nil {
		candidate := filepath.Join(wd, path)
		if fileExists(candidate) {
			return candidate
		}
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), path)
		if fileExists(candidate) {
			return candidate
		}
	}

	if err != nil {
		return path
	}
	return filepath.Join(wd, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
