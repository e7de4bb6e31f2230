package handler

import (
	"fmt"
	"reflect"

	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/session"
)

// Deps 处理器依赖
type Deps struct {
	AppData  *appdata.AppData
	Sessions *session.Manager
	Scada    ScadaPinger
	// DBPing 为空时不检查数据库
	DBPing func() error
}

var (
	// AllHandlerInstance 需要登录的处理器，按方法名自动注册路由
	AllHandlerInstance      []any
	AuthHandlerInstance     *AuthHandler
	HealthHandlerInstance   *HealthHandler
	UserHandlerInstance     IUserHandler
	ViewHandlerInstance     IViewHandler
	SettingsHandlerInstance ISettingsHandler
)

// Init 创建所有处理器实例
func Init(deps Deps) {
	AllHandlerInstance = nil
	AuthHandlerInstance = NewAuthHandler(deps.AppData, deps.Sessions)
	HealthHandlerInstance = NewHealthHandler(deps)

	createAndRegister(&UserHandlerInstance, &UserHandler{})
	createAndRegister(&ViewHandlerInstance, &ViewHandler{})

	// 设置接口单独挂在管理员分组下，不加入 AllHandlerInstance
	SettingsHandlerInstance = &SettingsHandler{appData: deps.AppData}
}

func createAndRegister(addressPtr any, handler any) {
	addressValue := reflect.ValueOf(addressPtr)
	if addressValue.Kind() != reflect.Ptr {
		panic("addressPtr must be a pointer")
	}

	addressElem := addressValue.Elem()
	if !addressElem.CanSet() {
		panic("addressPtr value cannot be set")
	}

	handlerType := reflect.TypeOf(handler)
	if !handlerType.Implements(addressElem.Type()) {
		panic(fmt.Sprintf("handler type %v does not implement interface %v", handlerType, addressElem.Type()))
	}

	addressElem.Set(reflect.ValueOf(handler))
	AllHandlerInstance = append(AllHandlerInstance, handler)
}
