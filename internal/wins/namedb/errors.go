package namedb

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("namedb: record not found")

	// ErrCorruptRecord 持久化记录无法解码
	ErrCorruptRecord = errors.New("namedb: corrupt record")

	// ErrIncompatibleDB 数据库格式版本不匹配
	ErrIncompatibleDB = errors.New("namedb: incompatible database version")

	// ErrInvalidRecord 记录不满足写入条件
	ErrInvalidRecord = errors.New("namedb: invalid record")
)
