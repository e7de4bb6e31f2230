package repository

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var IsRecordSQLEvent = true

// QueryOption 查询选项
type QueryOption struct {
	OrderBy string
	Limit   int
	Offset  int
	Filters []Condition
}

// Condition 查询条件
type Condition struct {
	Field string
	Op    Op
	Value any
}

type Op string

const (
	OpEq    Op = "eq"
	OpNe    Op = "ne"
	OpGt    Op = "gt"
	OpLt    Op = "lt"
	OpLike  Op = "like"
	OpIn    Op = "in"
	OpNotIn Op = "notin"
)

// Transaction函数定义
type TransactionFunc func(ctx context.Context) (any, error)

// TransactionExecutor 事务执行接口，事务会话通过 ctx 传递
type TransactionExecutor interface {
	// Transaction 以事务方式执行 fn，出错或 panic 时回滚
	Transaction(ctx context.Context, fn TransactionFunc) (any, error)
}

// ORMProcessor 通用 ORM 操作接口，由具体处理器映射到底层 ORM
type ORMProcessor interface {
	// Create 插入单条记录，model 必须是结构体指针
	Create(ctx context.Context, model any) error

	// Update 根据主键更新非零值字段
	Update(ctx context.Context, model any) error

	// DeleteByOption 根据查询选项删除记录
	DeleteByOption(ctx context.Context, model any, opts *QueryOption) error

	// Query 根据查询选项查询，Data 为 []T
	Query(ctx context.Context, model any, opts *QueryOption) (*QueryResult, error)

	// Count 根据查询选项统计记录数
	Count(ctx context.Context, model any, opts *QueryOption) (int64, error)

	// Exec 执行 SQL 语句，返回受影响的行数
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	TransactionExecutor
}

// QueryResult 查询结果
type QueryResult struct {
	Data any
}

// 自定义上下文键类型，避免与其他包的键冲突
type transactionKey struct{}

// 事务键实例
var TransactionKeyInstance = transactionKey{}

// RecordDbEvent 在当前 span 上记录 SQL 执行信息
func RecordDbEvent(ctx context.Context, info map[string]any) {
	if !IsRecordSQLEvent {
		return
	}
	span := trace.SpanFromContext(ctx)
	attributes := make([]attribute.KeyValue, 0, len(info))
	for k, v := range info {
		attributes = append(attributes, attribute.String(k, fmt.Sprintf("%v", v)))
	}
	span.AddEvent("db_execute_info", trace.WithAttributes(
		attributes...,
	))
}
