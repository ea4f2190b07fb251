package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewKey 测试名称规范化
func TestNewKey(t *testing.T) {
	k, err := NewKey("foo.corp.example", TypeWorkstation)
	require.NoError(t, err)
	assert.Equal(t, "FOO", k.Name())
	assert.Equal(t, "FOO<00>", k.String())

	padded, err := NewKey("Foo   ", TypeWorkstation)
	require.NoError(t, err)
	assert.Equal(t, k, padded)

	star, err := NewKey("*", TypeDomainMaster)
	require.NoError(t, err)
	assert.Equal(t, "*<1b>", star.String())

	_, err = NewKey("", TypeServer)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewKey("ABCDEFGHIJKLMNOP", TypeServer)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewKey("BAD\x01", TypeServer)
	assert.ErrorIs(t, err, ErrInvalidName)
}

// TestNewKey_HighBytes 测试 OEM 代码页字节按原样保存
func TestNewKey_HighBytes(t *testing.T) {
	a, err := NewKey("m\xfcller", TypeWorkstation)
	require.NoError(t, err)
	b, err := NewKey("m\xf6ller", TypeWorkstation)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte("M\xfcLLER"), a.Bytes()[:6])
	assert.Equal(t, []byte("M\xf6LLER"), b.Bytes()[:6])

	// 15 个字节的名称即使包含高位字节也合法
	full, err := NewKey("\xe9\xe9\xe9\xe9\xe9abcdefghij", TypeServer)
	require.NoError(t, err)
	assert.Equal(t, "\xe9\xe9\xe9\xe9\xe9ABCDEFGHIJ", full.Name())
}

// TestKey_Bytes 测试持久化键格式
func TestKey_Bytes(t *testing.T) {
	k := MustKey("dc01", TypeDomainGroup)
	b := k.Bytes()
	require.Len(t, b, KeyLen)
	assert.Equal(t, []byte("DC01"), b[:4])
	assert.Equal(t, make([]byte, 12), b[4:16])
	assert.Equal(t, byte(0x1c), b[16])

	back, err := KeyFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, k, back)

	_, err = KeyFromBytes(b[:10])
	assert.Error(t, err)
}

// TestNBFlags 测试标志位
func TestNBFlags(t *testing.T) {
	f := NBGroup | NBNodeH
	assert.True(t, f.IsGroup())
	assert.Equal(t, NBNodeH, f.NodeType())
	assert.False(t, NBNodeP.IsGroup())
}
