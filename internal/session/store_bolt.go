package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

type boltRecord struct {
	Record
	ExpireAt time.Time `json:"expire_at"`
}

// BoltStore 单机持久化存储，进程重启后会话仍可恢复。过期记录由 Sweep 清理
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore 打开或创建数据库文件
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create session db directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open session db")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create sessions bucket")
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(_ context.Context, sessionID string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return errors.New("session record is nil")
	}
	data, err := json.Marshal(boltRecord{Record: *rec, ExpireAt: s.now().Add(ttl)})
	if err != nil {
		return errors.Wrap(err, "marshal session record")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(sessionID), data)
	})
}

func (s *BoltStore) Load(_ context.Context, sessionID string) (*Record, error) {
	var br boltRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(sessionID))
		if data == nil {
			return ErrRecordNotFound
		}
		return json.Unmarshal(data, &br)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "load session record")
	}
	if !s.now().Before(br.ExpireAt) {
		return nil, ErrRecordNotFound
	}
	rec := br.Record
	return &rec, nil
}

func (s *BoltStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(sessionID))
	})
}

// Sweep 删除过期和无法解析的记录
func (s *BoltStore) Sweep(context.Context) int {
	now := s.now()
	removed := 0
	_ = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var br boltRecord
			if err := json.Unmarshal(v, &br); err != nil || !now.Before(br.ExpireAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed
}
