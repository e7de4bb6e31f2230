package session

import (
	"context"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type entry struct {
	user       *UserData
	lastAccess time.Time
}

// Manager 管理所有会话。内存中保存用户数据，Store 中保存可恢复的记录
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	store    Store
	ttl      time.Duration
	deps     Deps
	now      func() time.Time
}

// NewManager 创建会话管理器，ttl 为空闲超时
func NewManager(store Store, ttl time.Duration, deps Deps) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		sessions: make(map[string]*entry),
		store:    store,
		ttl:      ttl,
		deps:     deps,
		now:      time.Now,
	}
}

// Login 登录成功后创建会话，返回会话 ID
func (m *Manager) Login(ctx context.Context, ipAddress, login, password string) (string, *UserData, error) {
	user := NewUserData(ipAddress, m.deps)
	if err := user.Login(ctx, login, password); err != nil {
		return "", nil, err
	}

	sessionID := uuid.NewString()
	info := user.Info()
	rec := &Record{Login: info.Login, IPAddress: ipAddress, LogonTime: info.LogonTime}
	if err := m.store.Save(ctx, sessionID, rec, m.ttl); err != nil {
		// 记录保存失败时会话仍然可用，只是重启后不能恢复
		logger.Error(ctx, "Error saving session record", zap.String("session", sessionID), zap.Error(err))
	}

	m.mu.Lock()
	m.sessions[sessionID] = &entry{user: user, lastAccess: m.now()}
	m.updateGauge()
	m.mu.Unlock()
	return sessionID, user, nil
}

// Get 返回会话的用户数据。内存中没有时从 Store 中的记录免密登录恢复
func (m *Manager) Get(ctx context.Context, sessionID string) (*UserData, error) {
	if sessionID == "" {
		return nil, ErrRecordNotFound
	}

	m.mu.Lock()
	if e, ok := m.sessions[sessionID]; ok {
		e.lastAccess = m.now()
		m.mu.Unlock()
		return e.user, nil
	}
	m.mu.Unlock()

	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user := NewUserData(rec.IPAddress, m.deps)
	if err := user.LoginWithoutPassword(ctx, rec.Login); err != nil {
		_ = m.store.Delete(ctx, sessionID)
		return nil, errors.Wrap(err, "restore session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 并发恢复时以先放入的为准
	if e, ok := m.sessions[sessionID]; ok {
		e.lastAccess = m.now()
		return e.user, nil
	}
	m.sessions[sessionID] = &entry{user: user, lastAccess: m.now()}
	m.updateGauge()
	return user, nil
}

// Touch 延长存储中记录的有效期
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	user, err := m.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	info := user.Info()
	return m.store.Save(ctx, sessionID, &Record{Login: info.Login, IPAddress: info.IPAddress, LogonTime: info.LogonTime}, m.ttl)
}

// Logout 注销并删除会话
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.updateGauge()
	m.mu.Unlock()

	if ok {
		e.user.Logout(ctx)
	}
	return m.store.Delete(ctx, sessionID)
}

// Sweep 移除空闲超时的内存会话，返回移除的数量
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	now := m.now()
	var expired []*entry
	for id, e := range m.sessions {
		if now.Sub(e.lastAccess) >= m.ttl {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	m.updateGauge()
	m.mu.Unlock()

	for _, e := range expired {
		e.user.Logout(ctx)
	}
	if sweeper, ok := m.store.(interface{ Sweep(context.Context) int }); ok {
		sweeper.Sweep(ctx)
	}
	if len(expired) > 0 {
		logger.Info(ctx, "Expired sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Count 内存中的会话数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) updateGauge() {
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}
