package types

import (
	"errors"
	"net/netip"
)

// ErrMalformedRequest 请求缺少必需字段
var ErrMalformedRequest = errors.New("types: malformed request")

// RegisterRequest 注册/刷新/多宿主注册请求
type RegisterRequest struct {
	Key         Key
	RequesterIP netip.Addr
	NBFlags     NBFlags

	// TTL 客户端请求的 TTL（秒），会被限制在 [MinTTL, MaxTTL]
	TTL uint32

	// Broadcast 请求带广播标志（WINS 只接受单播注册）
	Broadcast bool
}

// Validate 检查必需字段
func (r *RegisterRequest) Validate() error {
	if r.Key.IsZero() || !r.RequesterIP.Is4() {
		return ErrMalformedRequest
	}
	return nil
}

// ReleaseRequest 释放请求
type ReleaseRequest struct {
	Key         Key
	RequesterIP netip.Addr
	NBFlags     NBFlags
	Broadcast   bool
}

// Validate 检查必需字段
func (r *ReleaseRequest) Validate() error {
	if r.Key.IsZero() || !r.RequesterIP.Is4() {
		return ErrMalformedRequest
	}
	return nil
}

// QueryRequest 查询请求
//
// RequesterIP 用于按距离排序应答地址，可以为零值。
type QueryRequest struct {
	Key         Key
	RequesterIP netip.Addr
}

// Validate 检查必需字段
func (r *QueryRequest) Validate() error {
	if r.Key.IsZero() {
		return ErrMalformedRequest
	}
	return nil
}
