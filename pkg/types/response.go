package types

import (
	"encoding/binary"
	"net/netip"

	"github.com/google/uuid"
)

// ============================================================================
//                              ResultCode
// ============================================================================

// ResultCode 应答结果码（与 NBT RCODE 取值一致）
type ResultCode uint8

const (
	// CodeSuccess 成功
	CodeSuccess ResultCode = 0

	// CodeFormatError 请求格式错误
	CodeFormatError ResultCode = 1

	// CodeServerFailure 服务器内部错误（如存储失败）
	CodeServerFailure ResultCode = 2

	// CodeNameNotFound 名称不存在
	CodeNameNotFound ResultCode = 3

	// CodeRefused 拒绝（外部地址注册本机名称）
	CodeRefused ResultCode = 5

	// CodeActive 名称被其他节点占用（所有权冲突）
	CodeActive ResultCode = 6
)

// String 返回结果码名称
func (c ResultCode) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeFormatError:
		return "format_error"
	case CodeServerFailure:
		return "server_failure"
	case CodeNameNotFound:
		return "name_not_found"
	case CodeRefused:
		return "refused"
	case CodeActive:
		return "conflict"
	default:
		return "unknown"
	}
}

// RDataLen 单个 NB 资源数据长度（NB_FLAGS + NB_ADDRESS）
const RDataLen = 6

// EncodeRData 编码一个 NB 资源数据
func EncodeRData(flags NBFlags, ip netip.Addr) []byte {
	b := make([]byte, RDataLen)
	binary.BigEndian.PutUint16(b, uint16(flags)<<8)
	a := ip.As4()
	copy(b[2:], a[:])
	return b
}

// ============================================================================
//                              注册应答
// ============================================================================

// Response 注册类请求的应答
//
// 具体类型为 *RegistrationResponse 或 *WACKResponse；
// 请求被丢弃时处理函数返回 nil。
type Response interface {
	// ResponseKey 返回应答针对的名称
	ResponseKey() Key

	isResponse()
}

// RegistrationResponse 注册最终应答
type RegistrationResponse struct {
	Code ResultCode
	Key  Key
	TTL  uint32

	// RData 回显请求中的 NB_FLAGS 和地址
	RData []byte
}

// NewRegistrationResponse 构造注册最终应答
func NewRegistrationResponse(req *RegisterRequest, code ResultCode, ttl uint32) *RegistrationResponse {
	return &RegistrationResponse{
		Code:  code,
		Key:   req.Key,
		TTL:   ttl,
		RData: EncodeRData(req.NBFlags, req.RequesterIP),
	}
}

// ResponseKey 实现 Response
func (r *RegistrationResponse) ResponseKey() Key { return r.Key }

func (*RegistrationResponse) isResponse() {}

// WACKResponse 等待确认应答
//
// 服务器在质询旧所有者期间先发送 WACK；最终结果从 Final 读取：
// 收到非 nil 应答时转发给请求方，收到 nil 表示质询结果已过期被丢弃，
// 不发送任何应答。Final 在交付后关闭。
type WACKResponse struct {
	Key         Key
	TTL         uint32
	RData       []byte
	ChallengeID uuid.UUID
	Final       <-chan *RegistrationResponse
}

// NewWACKResponse 构造 WACK 应答
func NewWACKResponse(req *RegisterRequest, ttl uint32, id uuid.UUID, final <-chan *RegistrationResponse) *WACKResponse {
	return &WACKResponse{
		Key:         req.Key,
		TTL:         ttl,
		RData:       EncodeRData(req.NBFlags, req.RequesterIP),
		ChallengeID: id,
		Final:       final,
	}
}

// ResponseKey 实现 Response
func (r *WACKResponse) ResponseKey() Key { return r.Key }

func (*WACKResponse) isResponse() {}

// ============================================================================
//                              查询与释放应答
// ============================================================================

// QueryEntry 查询应答中的一个地址
type QueryEntry struct {
	IP      netip.Addr
	NBFlags NBFlags
}

// QueryResponse 查询应答
//
// DNSFallback 为 true 时名称未命中且已转交 DNS 回退路径，
// 传输层应从 Deferred 读取最终应答，而不是立即回复 NameNotFound。
type QueryResponse struct {
	Code        ResultCode
	Key         Key
	TTL         uint32
	Entries     []QueryEntry
	DNSFallback bool
	Deferred    <-chan *QueryResponse
}

// NewQueryResponse 构造查询应答
func NewQueryResponse(key Key, code ResultCode, ttl uint32, entries []QueryEntry) *QueryResponse {
	return &QueryResponse{Code: code, Key: key, TTL: ttl, Entries: entries}
}

// RData 返回所有地址的 NB 资源数据
func (r *QueryResponse) RData() []byte {
	b := make([]byte, 0, len(r.Entries)*RDataLen)
	for _, e := range r.Entries {
		b = append(b, EncodeRData(e.NBFlags, e.IP)...)
	}
	return b
}

// ReleaseResponse 释放应答
type ReleaseResponse struct {
	Code  ResultCode
	Key   Key
	RData []byte
}

// NewReleaseResponse 构造释放应答
func NewReleaseResponse(req *ReleaseRequest, code ResultCode) *ReleaseResponse {
	return &ReleaseResponse{
		Code:  code,
		Key:   req.Key,
		RData: EncodeRData(req.NBFlags, req.RequesterIP),
	}
}
