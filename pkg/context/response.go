package context

import (
	"fmt"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (rsp *Response) Write(ctx *Context) {
	// 业务错误同样返回200，由 code 区分
	ctx.JSON(consts.StatusOK, rsp)
}

// OK 判断是否成功响应
func (rsp *Response) OK() bool {
	return rsp != nil && rsp.Code < CLIENT_PARAM_ERROR
}

// 成功响应函数
func Success(data any) *Response {
	return &Response{
		Code:    SUCCESS_OK,
		Message: "Success",
		Data:    data,
	}
}

// NoContent 响应成功但无内容（如 logout）
func NoContent() *Response {
	return &Response{
		Code:    SUCCESS_NO_CONTENT,
		Message: "No content",
		Data:    nil,
	}
}

// 客户端错误响应函数（支持string/error类型）
func ParamError(message any) *Response {
	return &Response{
		Code:    CLIENT_PARAM_ERROR,
		Message: formatMessage("Parameter error", message),
	}
}

func NotFound(message any) *Response {
	return &Response{
		Code:    CLIENT_NOT_FOUND,
		Message: formatMessage("Resource not found", message),
	}
}

func Unauthorized(message any) *Response {
	return &Response{
		Code:    CLIENT_UNAUTHORIZED,
		Message: formatMessage("Unauthorized", message),
	}
}

// InvalidToken 令牌无效或过期
func InvalidToken(message any) *Response {
	return &Response{
		Code:    CLIENT_INVALID_TOKEN,
		Message: formatMessage("Invalid token", message),
	}
}

// Forbidden 已登录但没有权限
func Forbidden(message any) *Response {
	return &Response{
		Code:    CLIENT_FORBIDDEN,
		Message: formatMessage("Forbidden", message),
	}
}

// 服务端错误响应函数
func InternalError(message ...any) *Response {
	return &Response{
		Code:    SERVER_INTERNAL_ERROR,
		Message: formatOptionalMessage("Internal server error", message...),
	}
}

// 接口限流响应函数
func RateLimit(message any) *Response {
	return &Response{
		Code:    SERVER_RATE_LIMIT,
		Message: formatMessage("Rate limit", message),
	}
}

// ConfigError 配置文件缺失或格式错误
func ConfigError(message any) *Response {
	return &Response{
		Code:    SERVER_CONFIG_ERROR,
		Message: formatMessage("Configuration error", message),
	}
}

// 第三方服务错误响应函数
func ThirdPartyError(serviceName string, message any) *Response {
	return &Response{
		Code:    THIRD_PARTY_ERROR,
		Message: formatServiceMessage(serviceName, "service error", message),
	}
}

// 系统错误响应函数
func SystemError(message any) *Response {
	return &Response{
		Code:    SYSTEM_ERROR,
		Message: formatMessage("System error", message),
	}
}

// 格式化消息（支持string/error类型）
func formatMessage(prefix string, message any) string {
	switch v := message.(type) {
	case string:
		return fmt.Sprintf("%s: %s", prefix, v)
	case error:
		return fmt.Sprintf("%s: %s", prefix, v.Error())
	default:
		return prefix
	}
}

// 格式化服务错误消息
func formatServiceMessage(service, action string, message any) string {
	switch v := message.(type) {
	case string:
		return fmt.Sprintf("%s %s: %s", service, action, v)
	case error:
		return fmt.Sprintf("%s %s: %s", service, action, v.Error())
	default:
		return fmt.Sprintf("%s %s", service, action)
	}
}

// 格式化可选消息（用于支持变参）
func formatOptionalMessage(prefix string, message ...any) string {
	if len(message) == 0 {
		return prefix
	}
	return formatMessage(prefix, message[0])
}
