package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
	"xorm.io/xorm"
)

// XormProcessor xorm处理器实现
type XormProcessor struct {
	engine *xorm.Engine
}

// NewXormProcessor 创建xorm处理器
func NewXormProcessor(engine *xorm.Engine) *XormProcessor {
	return &XormProcessor{engine: engine}
}

// withSession 优先使用事务会话，否则创建新会话并在结束后关闭
func (p *XormProcessor) withSession(ctx context.Context, fn func(*xorm.Session) (any, error)) (any, error) {
	session, inTx := ctx.Value(TransactionKeyInstance).(*xorm.Session)
	if !inTx || session == nil {
		session = p.engine.NewSession()
		defer session.Close()
	}
	session = session.Context(ctx)

	start := time.Now()
	result, err := fn(session)
	sql, args := session.LastSQL()
	info := map[string]any{
		"sql":      sql,
		"duration": time.Since(start),
	}
	if len(args) > 0 {
		info["args"] = args
	}
	RecordDbEvent(ctx, info)
	return result, err
}

// Create 实现ORM创建
func (p *XormProcessor) Create(ctx context.Context, model any) error {
	_, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		return session.Insert(model)
	})
	return err
}

// Update 实现ORM更新
func (p *XormProcessor) Update(ctx context.Context, model any) error {
	_, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		id, err := primaryKey(model)
		if err != nil {
			return nil, err
		}
		return session.ID(id).Update(model)
	})
	return err
}

// primaryKey 通过 xorm 标签中的 pk 找到主键值
func primaryKey(model any) (any, error) {
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, errors.New("model must be a pointer to struct")
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		for _, part := range strings.Fields(t.Field(i).Tag.Get("xorm")) {
			if part == "pk" {
				return v.Field(i).Interface(), nil
			}
		}
	}
	return nil, errors.New("no primary key found in model")
}

// DeleteByOption 根据查询选项删除记录
func (p *XormProcessor) DeleteByOption(ctx context.Context, model any, opts *QueryOption) error {
	_, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		applyConditions(session, opts.Filters)
		return session.Delete(model)
	})
	return err
}

// Query 实现ORM查询
func (p *XormProcessor) Query(ctx context.Context, model any, opts *QueryOption) (*QueryResult, error) {
	sliceType := reflect.SliceOf(reflect.TypeOf(model).Elem())
	slicePtr := reflect.New(sliceType)

	_, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		applyConditions(session, opts.Filters)
		if opts.OrderBy != "" {
			session.OrderBy(opts.OrderBy)
		}
		if opts.Limit > 0 {
			session.Limit(opts.Limit, opts.Offset)
		}
		return nil, session.Find(slicePtr.Interface())
	})
	if err != nil {
		return nil, err
	}
	return &QueryResult{Data: slicePtr.Elem().Interface()}, nil
}

// Count 统计记录数
func (p *XormProcessor) Count(ctx context.Context, model any, opts *QueryOption) (int64, error) {
	total, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		applyConditions(session, opts.Filters)
		return session.Count(model)
	})
	if err != nil {
		return 0, err
	}
	return total.(int64), nil
}

// Exec 执行SQL语句
func (p *XormProcessor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	count, err := p.withSession(ctx, func(session *xorm.Session) (any, error) {
		sqlOrArgs := append([]any{sql}, args...)
		result, err := session.Exec(sqlOrArgs...)
		if err != nil {
			return int64(0), err
		}
		return result.RowsAffected()
	})
	if err != nil {
		return 0, err
	}
	return count.(int64), nil
}

// Transaction 执行事务，已在事务中时直接复用
func (p *XormProcessor) Transaction(ctx context.Context, fn TransactionFunc) (result any, err error) {
	if session, ok := ctx.Value(TransactionKeyInstance).(*xorm.Session); ok && session != nil {
		return fn(ctx)
	}

	session := p.engine.NewSession()
	defer session.Close()
	if err := session.Begin(); err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	txCtx := context.WithValue(ctx, TransactionKeyInstance, session)

	defer func() {
		if r := recover(); r != nil {
			// 发生 panic 时回滚事务
			_ = session.Rollback()
			panic(r)
		}
	}()

	result, err = fn(txCtx)
	if err != nil {
		if rollbackErr := session.Rollback(); rollbackErr != nil {
			return nil, errors.Wrapf(err, "rollback failed: %v", rollbackErr)
		}
		return nil, err
	}
	if err := session.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit transaction")
	}
	return result, nil
}

// applyConditions 应用查询条件
func applyConditions(session *xorm.Session, conds []Condition) {
	for _, cond := range conds {
		switch cond.Op {
		case OpIn, OpNotIn:
			values := toAnySlice(cond.Value)
			if cond.Op == OpIn {
				session.In(cond.Field, values...)
			} else {
				session.NotIn(cond.Field, values...)
			}
		case OpEq:
			session.And(cond.Field+" = ?", cond.Value)
		case OpNe:
			session.And(cond.Field+" != ?", cond.Value)
		case OpGt:
			session.And(cond.Field+" > ?", cond.Value)
		case OpLt:
			session.And(cond.Field+" < ?", cond.Value)
		case OpLike:
			session.And(cond.Field+" LIKE ?", fmt.Sprintf("%%%v%%", cond.Value))
		}
	}
}

func toAnySlice(value any) []any {
	if values, ok := value.([]any); ok {
		return values
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice {
		return []any{value}
	}
	values := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		values[i] = v.Index(i).Interface()
	}
	return values
}
