package types

import (
	"errors"
	"fmt"
	"strings"
)

// NameLen NetBIOS 名称最大字符数（不含类型字节）
const NameLen = 15

// ErrInvalidName 名称为空、过长或含有非法字符
var ErrInvalidName = errors.New("types: invalid netbios name")

// ============================================================================
//                              名称类型
// ============================================================================

// NameType NetBIOS 名称后缀（第 16 字节）
type NameType uint8

// 常用名称类型
const (
	TypeWorkstation  NameType = 0x00
	TypeMessenger    NameType = 0x03
	TypeDomainMaster NameType = 0x1b
	TypeDomainGroup  NameType = 0x1c
	TypeBrowser      NameType = 0x1d
	TypeServer       NameType = 0x20
)

// String 返回两位十六进制
func (t NameType) String() string {
	return fmt.Sprintf("%02x", uint8(t))
}

// ============================================================================
//                              NBFlags
// ============================================================================

// NBFlags 名称标志（NB_FLAGS 高字节）
type NBFlags uint16

const (
	// NBGroup 组名称
	NBGroup NBFlags = 0x80

	// NBNodeMask 节点类型掩码
	NBNodeMask NBFlags = 0x60

	NBNodeB NBFlags = 0x00
	NBNodeP NBFlags = 0x20
	NBNodeM NBFlags = 0x40
	NBNodeH NBFlags = 0x60

	// NBActive 名称处于活动状态
	NBActive NBFlags = 0x04
)

// IsGroup 是否为组名称
func (f NBFlags) IsGroup() bool {
	return f&NBGroup != 0
}

// NodeType 返回节点类型位
func (f NBFlags) NodeType() NBFlags {
	return f & NBNodeMask
}

// ============================================================================
//                              Key
// ============================================================================

// Key 名称记录键
//
// 名称转大写，去掉作用域后缀和尾部空格，以 NUL 填充到 16 字节；
// 持久化键为这 16 字节加 1 字节类型。
type Key struct {
	name [16]byte
	Type NameType
}

// KeyLen 持久化键长度
const KeyLen = 17

// NewKey 构造名称键
//
// "FOO.example.com" 的作用域部分被忽略；"*" 是合法名称。
func NewKey(name string, typ NameType) (Key, error) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimRight(name, " \x00")
	if name == "" || len(name) > NameLen {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var k Key
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c == 0x7f {
			return Key{}, fmt.Errorf("%w: control character in %q", ErrInvalidName, name)
		}
		// 只转换 ASCII 字母，OEM 代码页的高位字节原样保留
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		k.name[i] = c
	}
	k.Type = typ
	return k, nil
}

// MustKey 构造名称键，失败时 panic（仅用于常量和测试）
func MustKey(name string, typ NameType) Key {
	k, err := NewKey(name, typ)
	if err != nil {
		panic(err)
	}
	return k
}

// KeyFromBytes 从持久化键解析
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeyLen || b[0] == 0 {
		return Key{}, ErrInvalidName
	}
	var k Key
	copy(k.name[:], b[:16])
	k.Type = NameType(b[16])
	return k, nil
}

// Bytes 返回持久化键
func (k Key) Bytes() []byte {
	b := make([]byte, KeyLen)
	copy(b, k.name[:])
	b[16] = byte(k.Type)
	return b
}

// Name 返回名称部分（不含填充）
func (k Key) Name() string {
	n := 0
	for n < len(k.name) && k.name[n] != 0 {
		n++
	}
	return string(k.name[:n])
}

// IsZero 是否为零值键
func (k Key) IsZero() bool {
	return k.name[0] == 0
}

// String 返回 NAME<xx> 形式
func (k Key) String() string {
	return k.Name() + "<" + k.Type.String() + ">"
}
