package models

import "github.com/pkg/errors"

// 用户校验错误
var (
	ErrUnknownUser   = errors.New("unknown user")
	ErrWrongPassword = errors.New("wrong password")
	ErrNoRights      = errors.New("insufficient rights")
)

// LoginResult 用户校验通过后的信息
type LoginResult struct {
	UserID   uint64
	RoleID   int
	RoleName string
}
