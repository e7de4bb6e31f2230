package dao

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB 使用临时 sqlite 文件，驱动不可用时跳过
func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	cfg := config.NewDatabaseConfig()
	cfg.Path = filepath.Join(t.TempDir(), "scada_web.db")
	e, err := NewEngine(cfg, "error")
	if err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	if err := e.Ping(); err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	ctx := context.Background()
	require.NoError(t, SyncDB(ctx, e, false, nil))
	setRepos(e)
	require.NoError(t, SeedRoles(ctx))
	return ctx
}

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "mysql",
			cfg:        config.DatabaseConfig{Driver: "mysql", User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "scada"},
			wantDriver: "mysql",
			wantDSN:    "root:pw@tcp(db:3306)/scada?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name:       "sqlite",
			cfg:        config.DatabaseConfig{Driver: "sqlite3", Path: "web.db"},
			wantDriver: "sqlite3",
			wantDSN:    "web.db?_busy_timeout=5000",
		},
		{name: "sqlite without path", cfg: config.DatabaseConfig{Driver: "sqlite3"}, wantErr: true},
		{name: "unknown", cfg: config.DatabaseConfig{Driver: "oracle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := DataSourceName(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestSeedRoles(t *testing.T) {
	ctx := setupTestDB(t)

	roles, err := RoleRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(builtinRoles))

	// 重复执行不会新增
	require.NoError(t, SeedRoles(ctx))
	count, err := RoleRepo.QueryBuilder().Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(builtinRoles)), count)
}

func TestUserChecker(t *testing.T) {
	ctx := setupTestDB(t)

	_, err := AddUser(ctx, "admin", "secret", int(rights.Admin), "")
	require.NoError(t, err)
	_, err = AddUser(ctx, "app", "secret", int(rights.App), "")
	require.NoError(t, err)
	_, err = AddUser(ctx, "admin", "other", int(rights.Guest), "")
	assert.Error(t, err, "duplicate user")

	checker := UserChecker{}
	tests := []struct {
		name          string
		login         string
		password      string
		checkPassword bool
		wantErr       error
	}{
		{name: "ok", login: " admin ", password: "secret", checkPassword: true},
		{name: "without password", login: "admin", checkPassword: false},
		{name: "wrong password", login: "admin", password: "bad", checkPassword: true, wantErr: models.ErrWrongPassword},
		{name: "unknown", login: "nobody", password: "secret", checkPassword: true, wantErr: models.ErrUnknownUser},
		{name: "application role", login: "app", password: "secret", checkPassword: true, wantErr: models.ErrNoRights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := checker.CheckUser(ctx, tt.login, tt.password, tt.checkPassword)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int(rights.Admin), result.RoleID)
			assert.Equal(t, "Administrator", result.RoleName)
			assert.NotZero(t, result.UserID)
		})
	}

	user, err := UserRepo.FindByKey(ctx, "name", "admin")
	require.NoError(t, err)
	assert.False(t, user.LastLoginTime.IsZero())
}

func TestRightSource(t *testing.T) {
	ctx := setupTestDB(t)
	const custom = rights.Role(10)

	require.NoError(t, SetRight(ctx, custom, "Scheme.sch", rights.Right{View: true, Control: true}))
	require.NoError(t, SetRight(ctx, custom, "Table.tbl", rights.Right{View: true}))
	require.NoError(t, SetRight(ctx, rights.Role(11), "Table.tbl", rights.Right{View: true, Control: true}))
	// 覆盖已有权限
	require.NoError(t, SetRight(ctx, custom, "Table.tbl", rights.Right{View: false}))

	got, err := RightSource{}.Rights(ctx, custom)
	require.NoError(t, err)
	assert.Equal(t, map[string]rights.Right{
		"Scheme.sch": {View: true, Control: true},
		"Table.tbl":  {},
	}, got)

	empty, err := RightSource{}.Rights(ctx, rights.Role(12))
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChannelSource(t *testing.T) {
	ctx := setupTestDB(t)

	for _, cnl := range []models.InCnl{
		{CnlNum: 102, Active: true, Name: "Level", UnitName: "m"},
		{CnlNum: 101, Active: true, Name: "Temp", UnitName: "C", EvEnabled: true},
		{CnlNum: 103, Active: false, Name: "Spare"},
	} {
		cnl := cnl
		require.NoError(t, InCnlRepo.Create(ctx, &cnl))
	}

	props, err := ChannelSource{}.CnlProps(ctx)
	require.NoError(t, err)
	if assert.Len(t, props, 2) {
		assert.Equal(t, 101, props[0].CnlNum)
		assert.Equal(t, "Temp", props[0].Name)
		assert.True(t, props[0].EvEnabled)
		assert.Equal(t, 102, props[1].CnlNum)
	}
}
