package models

import "time"

// BaseModel 通用时间字段
type BaseModel struct {
	CreateTime time.Time `xorm:"created 'create_time'" json:"create_time"`
	UpdateTime time.Time `xorm:"updated 'update_time'" json:"update_time"`
}
