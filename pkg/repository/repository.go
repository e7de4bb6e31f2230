package repository

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Repository 通用仓储接口
type Repository[T any] interface {
	TransactionExecutor
	Create(ctx context.Context, model *T) error
	Update(ctx context.Context, model *T) error
	FindByKey(ctx context.Context, key string, value any) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	QueryBuilder() *QueryBuilder[T]
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// GenericRepository 通用仓储实现
type GenericRepository[T any] struct {
	processor ORMProcessor
}

// NewRepository 创建仓储实例
func NewRepository[T any](processor ORMProcessor) Repository[T] {
	return &GenericRepository[T]{processor: processor}
}

// Create 插入单条记录
func (r *GenericRepository[T]) Create(ctx context.Context, model *T) error {
	return r.processor.Create(ctx, model)
}

// Update 更新记录
func (r *GenericRepository[T]) Update(ctx context.Context, model *T) error {
	return r.processor.Update(ctx, model)
}

// FindByKey 根据Key查询，不存在时返回 ErrNotFound
func (r *GenericRepository[T]) FindByKey(ctx context.Context, key string, value any) (*T, error) {
	result, err := r.QueryBuilder().Eq(key, value).Limit(2).Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	if len(result) > 1 {
		return nil, errors.New("multiple records found")
	}
	return &result[0], nil
}

// FindAll 查询全部记录
func (r *GenericRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.QueryBuilder().Find(ctx)
}

// QueryBuilder 创建链式查询
func (r *GenericRepository[T]) QueryBuilder() *QueryBuilder[T] {
	return NewQueryBuilder[T](r.processor)
}

// Exec 执行SQL语句
func (r *GenericRepository[T]) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return r.processor.Exec(ctx, sql, args...)
}

// Transaction 以事务方式执行
func (r *GenericRepository[T]) Transaction(ctx context.Context, fn TransactionFunc) (any, error) {
	return r.processor.Transaction(ctx, fn)
}
