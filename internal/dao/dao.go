package dao

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/repository"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-multierror"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"xorm.io/xorm"
	"xorm.io/xorm/log"
)

var (
	engine        *xorm.Engine
	initOnce      sync.Once
	initError     error
	UserRepo      repository.Repository[models.User]
	RoleRepo      repository.Repository[models.Role]
	InterfaceRepo repository.Repository[models.Interface]
	RightRepo     repository.Repository[models.Right]
	InCnlRepo     repository.Repository[models.InCnl]
)

// modelList 需要同步的表，按依赖顺序排列
var modelList = []any{
	new(models.Role),
	new(models.User),
	new(models.Interface),
	new(models.Right),
	new(models.InCnl),
}

// InitRepo 初始化数据库连接和仓储，只执行一次
func InitRepo(cfg config.DatabaseConfig, logLevel string) error {
	initOnce.Do(func() {
		engine, initError = NewEngine(cfg, logLevel)
		if initError != nil {
			return
		}
		setRepos(engine)
	})

	return initError
}

// Engine 返回已初始化的引擎
func Engine() *xorm.Engine {
	return engine
}

func setRepos(e *xorm.Engine) {
	processor := repository.NewXormProcessor(e)
	UserRepo = repository.NewRepository[models.User](processor)
	RoleRepo = repository.NewRepository[models.Role](processor)
	InterfaceRepo = repository.NewRepository[models.Interface](processor)
	RightRepo = repository.NewRepository[models.Right](processor)
	InCnlRepo = repository.NewRepository[models.InCnl](processor)
}

// DataSourceName 根据配置生成驱动名和连接串
func DataSourceName(cfg config.DatabaseConfig) (string, string, error) {
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName), nil
	case "sqlite3", "sqlite", "":
		if cfg.Path == "" {
			return "", "", errors.New("sqlite3 database path is empty")
		}
		return "sqlite3", cfg.Path + "?_busy_timeout=5000", nil
	default:
		return "", "", errors.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewEngine 使用配置创建 XORM 引擎
func NewEngine(cfg config.DatabaseConfig, logLevel string) (*xorm.Engine, error) {
	driver, dsn, err := DataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	e, err := xorm.NewEngine(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create XORM engine")
	}

	// 设置数据库连接池
	if driver == "sqlite3" {
		// sqlite 只允许单个写连接
		e.SetMaxOpenConns(1)
	} else {
		e.SetMaxIdleConns(cfg.MaxIdleConns)
		e.SetMaxOpenConns(cfg.MaxOpenConns)
		e.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	e.AddHook(NewXormLogger(cfg.ShowSQL))

	switch logLevel {
	case "debug":
		e.Logger().SetLevel(log.LOG_DEBUG)
	case "warn":
		e.Logger().SetLevel(log.LOG_WARNING)
	case "error":
		e.Logger().SetLevel(log.LOG_ERR)
	default:
		e.Logger().SetLevel(log.LOG_INFO)
	}

	return e, nil
}

// SyncDB 同步数据库结构
// dropTables: 是否删除现有表（危险操作，生产环境慎用）
// confirm: dropTables 为 true 时用于确认，返回 false 则取消
func SyncDB(ctx context.Context, e *xorm.Engine, dropTables bool, confirm func() bool) error {
	var result *multierror.Error

	if dropTables {
		if confirm != nil && !confirm() {
			logger.Info(ctx, "同步操作已取消")
			return nil
		}

		// 按逆序删除表
		for i := len(modelList) - 1; i >= 0; i-- {
			model := modelList[i]
			tableName := e.TableName(model)
			logger.Info(ctx, "删除表", zap.String("table", tableName))

			if err := e.DropTables(model); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "删除表 %s 失败", tableName))
			}
		}
	}

	for _, model := range modelList {
		tableName := e.TableName(model)
		logger.Info(ctx, "同步表结构", zap.String("table", tableName))

		if err := e.Sync2(model); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "同步表 %s 失败", tableName))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		logger.Error(ctx, "数据库同步完成，但存在错误", zap.Error(err))
		return err
	}

	logger.Info(ctx, "数据库同步成功")
	return nil
}

// builtinRoles 内置角色
var builtinRoles = []rights.Role{rights.Disabled, rights.Admin, rights.Dispatcher, rights.Guest, rights.App, rights.Err}

// SeedRoles 写入缺失的内置角色
func SeedRoles(ctx context.Context) error {
	var result error
	for _, role := range builtinRoles {
		_, err := RoleRepo.FindByKey(ctx, "id", int(role))
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			result = multierror.Append(result, err)
			continue
		}
		if err := RoleRepo.Create(ctx, &models.Role{ID: int(role), Name: role.String()}); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "create role %s", role))
		}
	}
	return result
}
