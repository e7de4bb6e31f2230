package plugin

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// LoadErrorKind 插件加载失败的原因
type LoadErrorKind int

const (
	UnknownPlugin LoadErrorKind = iota
	ConstructFailed
)

func (k LoadErrorKind) String() string {
	if k == UnknownPlugin {
		return "unknown plugin"
	}
	return "construct failed"
}

// LoadError 插件加载错误
type LoadError struct {
	Kind     LoadErrorKind
	FileName string
	Name     string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error loading plugin %s from %s: %s", e.Name, e.FileName, e.Kind)
	}
	return fmt.Sprintf("error loading plugin %s from %s: %s: %v", e.Name, e.FileName, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Factory 创建插件实例
type Factory func() (Plugin, error)

// Registry 插件工厂注册表，键为插件名
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register 注册插件工厂，同名覆盖
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Names 已注册的插件名
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameFromFileName 插件名为文件名去掉目录和扩展名，如 PlgChart.dll -> PlgChart
func NameFromFileName(fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Create 根据 WebSettings 中的插件文件名创建插件
func (r *Registry) Create(fileName string) (p Plugin, err error) {
	name := NameFromFileName(fileName)

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &LoadError{Kind: UnknownPlugin, FileName: fileName, Name: name}
	}

	defer func() {
		if rec := recover(); rec != nil {
			p = nil
			err = &LoadError{Kind: ConstructFailed, FileName: fileName, Name: name, Err: errors.Errorf("panic: %v", rec)}
		}
	}()

	p, err = factory()
	if err == nil && p == nil {
		err = errors.New("factory returned nil plugin")
	}
	if err != nil {
		return nil, &LoadError{Kind: ConstructFailed, FileName: fileName, Name: name, Err: err}
	}
	return p, nil
}
