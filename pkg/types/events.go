package types

import "time"

// ChangeOp 名称变更操作
type ChangeOp string

// 名称变更操作
const (
	OpAdd     ChangeOp = "add"
	OpRefresh ChangeOp = "refresh"
	OpDelete  ChangeOp = "delete"
)

// EvtNameChanged 名称记录变更事件
//
// 在记录持久化成功后发布，供日志和外部钩子使用。
type EvtNameChanged struct {
	Op     ChangeOp
	Record NameRecord
	TTL    uint32
	Time   time.Time
}
