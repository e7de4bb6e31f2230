package router

import (
	"context"
	"reflect"

	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RouterGroup 对 Hertz 路由组的封装，处理函数形如
// func(*mycontext.Context) *mycontext.Response 或 func(*mycontext.Context, *Param) *mycontext.Response
type RouterGroup struct {
	group   *route.RouterGroup
	routers []*Router
}

func NewRouterGroup(group *route.RouterGroup) *RouterGroup {
	return &RouterGroup{group: group}
}

// Group 创建子路由组，继承当前组的中间件
func (rg *RouterGroup) Group(path string, middlewares ...app.HandlerFunc) *RouterGroup {
	return &RouterGroup{group: rg.group.Group(path, middlewares...)}
}

// Use 添加中间件
func (rg *RouterGroup) Use(middlewares ...app.HandlerFunc) {
	rg.group.Use(middlewares...)
}

// Handle 注册路由，middlewares 只作用于这一条路由
func (rg *RouterGroup) Handle(method, path string, handler any, middlewares ...app.HandlerFunc) {
	rg.routers = append(rg.routers, NewRouter(method, path, handler))
	logger.Debug(context.Background(), "Register route",
		zap.String("method", method), zap.String("path", rg.group.BasePath()+path))
	rg.group.Handle(method, path, append(middlewares, adapt(handler))...)
}

func (rg *RouterGroup) GetRouter() []*Router {
	return rg.routers
}

func (rg *RouterGroup) FindRouter(method, path string) (*Router, bool) {
	router := lo.Filter(rg.routers, func(r *Router, _ int) bool {
		return r.GetMethod().Value() == method && r.GetPath() == path
	})
	if len(router) != 1 {
		return nil, false
	}
	return router[0], true
}

func (rg *RouterGroup) GET(path string, handler any, middlewares ...app.HandlerFunc) {
	rg.Handle(consts.MethodGet, path, handler, middlewares...)
}

func (rg *RouterGroup) POST(path string, handler any, middlewares ...app.HandlerFunc) {
	rg.Handle(consts.MethodPost, path, handler, middlewares...)
}

func (rg *RouterGroup) PUT(path string, handler any, middlewares ...app.HandlerFunc) {
	rg.Handle(consts.MethodPut, path, handler, middlewares...)
}

func (rg *RouterGroup) DELETE(path string, handler any, middlewares ...app.HandlerFunc) {
	rg.Handle(consts.MethodDelete, path, handler, middlewares...)
}

var (
	contextType  = reflect.TypeOf(&mycontext.Context{})
	responseType = reflect.TypeOf(&mycontext.Response{})
)

// adapt 把处理函数适配为 Hertz 的 HandlerFunc。
// 第二个参数存在时先绑定并校验请求参数；返回的 *Response 写入响应
func adapt(handler any) app.HandlerFunc {
	if h, ok := handler.(app.HandlerFunc); ok {
		return h
	}
	if h, ok := handler.(func(context.Context, *app.RequestContext)); ok {
		return h
	}

	handlerValue := reflect.ValueOf(handler)
	handlerType := handlerValue.Type()
	if handlerType.Kind() != reflect.Func || handlerType.NumIn() < 1 || handlerType.NumIn() > 2 ||
		handlerType.In(0) != contextType {
		panic("invalid handler function: " + handlerType.String())
	}

	return func(ctx context.Context, c *app.RequestContext) {
		myCtx := mycontext.NewContext(ctx, c)
		args := []reflect.Value{reflect.ValueOf(myCtx)}

		if handlerType.NumIn() == 2 {
			param := reflect.New(handlerType.In(1).Elem())
			if err := c.BindAndValidate(param.Interface()); err != nil {
				mycontext.ParamError(err).Write(myCtx)
				return
			}
			args = append(args, param)
		}

		handleResults(myCtx, handlerValue.Call(args))
	}
}

// handleResults 处理处理函数的返回值
func handleResults(c *mycontext.Context, results []reflect.Value) {
	if len(results) == 0 || results[0].IsNil() {
		return
	}
	switch v := results[0].Interface().(type) {
	case *mycontext.Response:
		v.Write(c)
	case error:
		mycontext.InternalError(v).Write(c)
	}
}
