package repository

import (
	"context"

	"github.com/pkg/errors"
)

// QueryBuilder 链式查询构建器
type QueryBuilder[T any] struct {
	processor  ORMProcessor
	conditions []Condition
	orderBy    string
	limit      int
	offset     int
}

// NewQueryBuilder 创建链式查询构建器
func NewQueryBuilder[T any](processor ORMProcessor) *QueryBuilder[T] {
	return &QueryBuilder[T]{
		processor: processor,
	}
}

// OrderBy 添加排序
func (qb *QueryBuilder[T]) OrderBy(fields string) *QueryBuilder[T] {
	qb.orderBy = fields
	return qb
}

// Limit 添加分页限制
func (qb *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	qb.limit = limit
	return qb
}

// Offset 添加分页偏移
func (qb *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	qb.offset = offset
	return qb
}

func (qb *QueryBuilder[T]) options() *QueryOption {
	return &QueryOption{
		OrderBy: qb.orderBy,
		Limit:   qb.limit,
		Offset:  qb.offset,
		Filters: qb.conditions,
	}
}

// Find 执行查询并返回列表
func (qb *QueryBuilder[T]) Find(ctx context.Context) ([]T, error) {
	result, err := qb.processor.Query(ctx, new(T), qb.options())
	if err != nil {
		return nil, err
	}

	data, ok := result.Data.([]T)
	if !ok {
		return nil, errors.New("invalid result type")
	}
	return data, nil
}

// First 返回第一条记录
func (qb *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	result, err := qb.Limit(1).Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return &result[0], nil
}

// Count 返回记录总数
func (qb *QueryBuilder[T]) Count(ctx context.Context) (int64, error) {
	return qb.processor.Count(ctx, new(T), qb.options())
}

// Delete 执行删除操作
func (qb *QueryBuilder[T]) Delete(ctx context.Context) error {
	if len(qb.conditions) == 0 {
		return errors.New("delete without conditions is not allowed")
	}
	return qb.processor.DeleteByOption(ctx, new(T), qb.options())
}

func (qb *QueryBuilder[T]) where(field string, op Op, value any) *QueryBuilder[T] {
	qb.conditions = append(qb.conditions, Condition{
		Field: field,
		Op:    op,
		Value: value,
	})
	return qb
}

// Eq 添加等于WHERE条件
func (qb *QueryBuilder[T]) Eq(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpEq, value)
}

// Ne 添加不等于WHERE条件
func (qb *QueryBuilder[T]) Ne(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpNe, value)
}

// Gt 添加大于WHERE条件
func (qb *QueryBuilder[T]) Gt(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpGt, value)
}

// Lt 添加小于WHERE条件
func (qb *QueryBuilder[T]) Lt(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpLt, value)
}

// Like 添加LIKE WHERE条件
func (qb *QueryBuilder[T]) Like(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpLike, value)
}

// In 添加IN WHERE条件
func (qb *QueryBuilder[T]) In(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpIn, value)
}

// NotIn 添加NOT IN WHERE条件
func (qb *QueryBuilder[T]) NotIn(field string, value any) *QueryBuilder[T] {
	return qb.where(field, OpNotIn, value)
}
