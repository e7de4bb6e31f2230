package rights

import (
	"context"
	"fmt"

	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Role 角色标识，内置角色以外的值都是自定义角色
type Role int

const (
	Disabled   Role = 0
	Admin      Role = 1
	Dispatcher Role = 2
	Guest      Role = 3
	App        Role = 4
	Err        Role = 0xFF
)

// IsCustom 是否为自定义角色
func (r Role) IsCustom() bool {
	switch r {
	case Disabled, Admin, Dispatcher, Guest, App, Err:
		return false
	}
	return true
}

func (r Role) String() string {
	switch r {
	case Disabled:
		return "Disabled"
	case Admin:
		return "Administrator"
	case Dispatcher:
		return "Dispatcher"
	case Guest:
		return "Guest"
	case App:
		return "Application"
	case Err:
		return "Error"
	}
	return fmt.Sprintf("Custom(%d)", int(r))
}

// Right 对界面对象的权限
type Right struct {
	View    bool `json:"view"`
	Control bool `json:"control"`
}

// NoRights 无权限
var NoRights = Right{}

// Source 自定义角色的权限表，键为界面对象名
type Source interface {
	Rights(ctx context.Context, role Role) (map[string]Right, error)
}

// UserRights 用户权限，视图和报表权限与平铺列表按索引对齐
type UserRights struct {
	role         Role
	objRights    map[string]Right
	viewRights   []Right
	reportRights []bool
}

// New 创建无权限的 UserRights
func New() *UserRights {
	return &UserRights{role: Disabled}
}

// Role 当前角色
func (u *UserRights) Role() Role {
	return u.role
}

// Init 按角色和视图配置预先计算权限。失败时记录日志并回到无权限状态
func (u *UserRights) Init(ctx context.Context, role Role, viewSettings *settings.ViewSettings, source Source) {
	if err := u.init(ctx, role, viewSettings, source); err != nil {
		logger.Error(ctx, "Error initializing user rights", zap.Int("role_id", int(role)), zap.Error(err))
		u.role = Disabled
		u.objRights = nil
		u.viewRights = nil
		u.reportRights = nil
	}
}

func (u *UserRights) init(ctx context.Context, role Role, viewSettings *settings.ViewSettings, source Source) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	u.role = role
	u.objRights = nil
	if role.IsCustom() {
		if source == nil {
			return errors.New("rights source is not specified")
		}
		if u.objRights, err = source.Rights(ctx, role); err != nil {
			return errors.Wrap(err, "load role rights")
		}
	}

	if viewSettings == nil {
		u.viewRights = nil
		u.reportRights = nil
		return nil
	}

	u.viewRights = lo.Map(viewSettings.AllViewItems, func(item *settings.ViewItem, _ int) Right {
		return u.Right(settings.ItfObjName(item.FileName))
	})
	u.reportRights = lo.Map(viewSettings.AllReports, func(item *settings.ReportItem, _ int) bool {
		return u.Right(settings.ItfObjName(item.FileName)).View
	})
	return nil
}

// Right 获取对界面对象的权限
func (u *UserRights) Right(itfObjName string) Right {
	switch u.role {
	case Admin, Dispatcher:
		return Right{View: true, Control: true}
	case Guest:
		return Right{View: true}
	case Disabled, App, Err:
		return NoRights
	}
	if right, ok := u.objRights[itfObjName]; ok {
		return right
	}
	return NoRights
}

// ViewRight 按平铺索引获取视图权限，越界返回无权限
func (u *UserRights) ViewRight(i int) Right {
	if i < 0 || i >= len(u.viewRights) {
		return NoRights
	}
	return u.viewRights[i]
}

// ReportRight 按平铺索引获取报表权限
func (u *UserRights) ReportRight(i int) bool {
	if i < 0 || i >= len(u.reportRights) {
		return false
	}
	return u.reportRights[i]
}
