package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RecordKey 会话中保存用户数据的键
const RecordKey = "UserData"

// ErrRecordNotFound 会话记录不存在或已过期
var ErrRecordNotFound = errors.New("session record not found")

// Record 持久化的会话记录，只保存免密登录需要的信息
type Record struct {
	Login     string    `json:"login"`
	IPAddress string    `json:"ip_address"`
	LogonTime time.Time `json:"logon_time"`
}

// Store 会话记录存储
type Store interface {
	Save(ctx context.Context, sessionID string, rec *Record, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*Record, error)
	Delete(ctx context.Context, sessionID string) error
}

// NewStore 按配置创建存储
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisPrefix), nil
	case "bolt":
		return NewBoltStore(cfg.BoltPath)
	}
	return nil, errors.Errorf("unknown session store %q", cfg.Store)
}

type memoryEntry struct {
	rec      Record
	expireAt time.Time
}

// MemoryStore 进程内存储
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return errors.New("session record is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{rec: *rec, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok || !s.now().Before(entry.expireAt) {
		delete(s.entries, sessionID)
		return nil, ErrRecordNotFound
	}
	rec := entry.rec
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Sweep 删除过期记录，返回删除的条数
func (s *MemoryStore) Sweep(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expireAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RedisStore 用 Redis 保存会话记录，过期由 Redis 负责
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// key 形如 <prefix>:session:<id>:UserData
func (s *RedisStore) key(sessionID string) string {
	if s.prefix == "" {
		return "session:" + sessionID + ":" + RecordKey
	}
	return s.prefix + ":session:" + sessionID + ":" + RecordKey
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return errors.New("session record is nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal session record")
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "save session record")
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session record")
	}
	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, errors.Wrap(err, "unmarshal session record")
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete session record")
	}
	return nil
}

// Client 底层 Redis 客户端，登录限流与会话共用
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// Ping 检查 Redis 连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
