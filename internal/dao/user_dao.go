package dao

import (
	"context"
	"strings"
	"time"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/repository"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotFound 记录不存在
var ErrNotFound = repository.ErrNotFound

// UserChecker 校验用户登录
type UserChecker struct{}

// CheckUser 校验用户名和密码。checkPassword 为 false 时只检查用户和角色
func (UserChecker) CheckUser(ctx context.Context, login, password string, checkPassword bool) (*models.LoginResult, error) {
	user, err := UserRepo.FindByKey(ctx, "name", strings.TrimSpace(login))
	if errors.Is(err, ErrNotFound) {
		return nil, models.ErrUnknownUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}

	if checkPassword && !user.Verify(password) {
		return nil, models.ErrWrongPassword
	}

	switch rights.Role(user.RoleID) {
	case rights.Disabled, rights.App, rights.Err:
		return nil, models.ErrNoRights
	}

	result := &models.LoginResult{
		UserID:   user.ID,
		RoleID:   user.RoleID,
		RoleName: roleName(ctx, user.RoleID),
	}

	user.LastLoginTime = time.Now()
	if err := UserRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "Failed to update last login time", zap.String("login", user.Name), zap.Error(err))
	}
	return result, nil
}

// roleName 角色表中没有记录时使用内置名称
func roleName(ctx context.Context, roleID int) string {
	role, err := RoleRepo.FindByKey(ctx, "id", roleID)
	if err != nil || role.Name == "" {
		return rights.Role(roleID).String()
	}
	return role.Name
}

// AddUser 创建用户，密码以摘要形式保存
func AddUser(ctx context.Context, name, password string, roleID int, descr string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("user name is empty")
	}
	if _, err := UserRepo.FindByKey(ctx, "name", name); err == nil {
		return nil, errors.Errorf("user %s already exists", name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Password: models.EncryptPassword(password),
		RoleID:   roleID,
		Descr:    descr,
	}
	if err := UserRepo.Create(ctx, user); err != nil {
		return nil, errors.Wrapf(err, "create user %s", name)
	}
	return user, nil
}
