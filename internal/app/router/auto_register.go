package router

import (
	"context"
	"reflect"
	"strings"

	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ettle/strcase"
	"go.uber.org/zap"
)

// AutoRouterRegister 按方法名推断路由：GetMenu -> GET /menu，PostLogin -> POST /login
type AutoRouterRegister struct {
	PathFormatStrategy PathFormatStrategy
	routers            []*Router
}

// NewAutoRouterRegister 创建基于方法名的路由注册器
func NewAutoRouterRegister() *AutoRouterRegister {
	return &AutoRouterRegister{
		PathFormatStrategy: SlashCase,
	}
}

// RegisterRouters 注册多个路由
func (r *AutoRouterRegister) RegisterRouters(group *RouterGroup, routers ...*Router) {
	for _, router := range routers {
		r.register(group, router)
	}
}

// RegisterStruct 扫描结构体的导出方法，第一个参数为 *mycontext.Context 的方法注册为路由
func (r *AutoRouterRegister) RegisterStruct(group *RouterGroup, instanceList ...any) {
	for _, instance := range instanceList {
		r.registerStruct(group, instance)
	}
}

func (r *AutoRouterRegister) registerStruct(group *RouterGroup, instance any) {
	v := reflect.ValueOf(instance)
	t := v.Type()
	if t.Kind() != reflect.Ptr {
		logger.Warn(context.Background(), "Handler must be a pointer", zap.String("type", t.String()))
		return
	}

	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		// 接收者是第 0 个参数
		if method.Type.NumIn() < 2 || method.Type.In(1) != reflect.TypeOf(&mycontext.Context{}) {
			continue
		}
		router := r.inferRouter(v.Method(i).Interface(), method.Name)
		if router.IsValid() {
			r.register(group, router)
		}
	}
}

// GetRouters 获取已注册的路由
func (r *AutoRouterRegister) GetRouters() []*Router {
	return r.routers
}

func (r *AutoRouterRegister) register(group *RouterGroup, router *Router) {
	if !router.IsValid() {
		panic("invalid router: " + router.path)
	}
	if group == nil {
		panic("group is nil")
	}

	switch router.method {
	case GET:
		group.GET(router.path, router.handlerFunc)
	case POST:
		group.POST(router.path, router.handlerFunc)
	case PUT:
		group.PUT(router.path, router.handlerFunc)
	case DELETE:
		group.DELETE(router.path, router.handlerFunc)
	default:
		panic("unsupported router method")
	}
	r.routers = append(r.routers, router)
}

func (r *AutoRouterRegister) inferRouter(handlerFunc any, funcName string) *Router {
	method, pathBase := inferMethodAndPathBase(funcName)
	return &Router{
		path:        r.formatPath(pathBase),
		method:      method,
		handlerFunc: handlerFunc,
	}
}

// inferMethodAndPathBase 推断HTTP方法和基础路径
func inferMethodAndPathBase(funcName string) (RouterMethod, string) {
	prefixes := []struct {
		prefix string
		method RouterMethod
	}{
		{"Get", GET},
		{"Post", POST},
		{"Create", POST},
		{"Put", PUT},
		{"Update", PUT},
		{"Delete", DELETE},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(funcName, p.prefix) {
			return p.method, strings.TrimPrefix(funcName, p.prefix)
		}
	}
	return POST, funcName
}

func (r *AutoRouterRegister) formatPath(name string) string {
	if base, ok := strings.CutSuffix(name, "List"); ok && base != "" {
		return r.applyFormatStrategy(base) + "/list"
	}
	return r.applyFormatStrategy(name)
}

func (r *AutoRouterRegister) applyFormatStrategy(name string) string {
	if r.PathFormatStrategy == SlashCase {
		return "/" + strcase.ToCase(name, strcase.LowerCase, '/')
	}
	return "/" + strcase.ToSnake(name)
}
