package namedb

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"

	"github.com/dep2p/go-wins/pkg/types"
)

// recordHeaderLen 定长头部：nbFlags(2) source(1) 以及七个 32 位字段
//
//	nbFlags:u16 source:u8 deathTime:u32 refreshTime:u32
//	versionLow:u32 versionHigh:u32 ownerIP:u32 winsFlags:u32 numIPs:u32
//
// 整数为小端序，IPv4 地址按网络字节序原样存放。
const recordHeaderLen = 2 + 1 + 7*4

// maxRecordIPs 单条记录地址数上限
const maxRecordIPs = 255

// EncodeRecord 将记录编码为持久化格式
func EncodeRecord(rec *types.NameRecord) ([]byte, error) {
	if len(rec.IPs) == 0 || len(rec.IPs) > maxRecordIPs {
		return nil, fmt.Errorf("%w: %s has %d addresses", ErrInvalidRecord, rec.Key, len(rec.IPs))
	}

	buf := make([]byte, recordHeaderLen+4*len(rec.IPs))
	le := binary.LittleEndian

	le.PutUint16(buf[0:], uint16(rec.NBFlags))
	buf[2] = byte(rec.Source)
	le.PutUint32(buf[3:], unixSeconds(rec.DeathTime))
	le.PutUint32(buf[7:], unixSeconds(rec.RefreshTime))
	le.PutUint32(buf[11:], uint32(rec.Version))
	le.PutUint32(buf[15:], uint32(rec.Version>>32))
	if err := putIPv4(buf[19:], rec.Owner); err != nil {
		return nil, err
	}
	le.PutUint32(buf[23:], uint32(rec.WinsFlags))
	le.PutUint32(buf[27:], uint32(len(rec.IPs)))

	off := recordHeaderLen
	for _, ip := range rec.IPs {
		if err := putIPv4(buf[off:], ip); err != nil {
			return nil, err
		}
		off += 4
	}
	return buf, nil
}

// DecodeRecord 从持久化格式解码记录
func DecodeRecord(key types.Key, data []byte) (*types.NameRecord, error) {
	if len(data) < recordHeaderLen+4 {
		return nil, fmt.Errorf("%w: %s: short record (%d bytes)", ErrCorruptRecord, key, len(data))
	}
	le := binary.LittleEndian

	numIPs := le.Uint32(data[27:])
	if numIPs == 0 || numIPs > maxRecordIPs || len(data) != recordHeaderLen+4*int(numIPs) {
		return nil, fmt.Errorf("%w: %s: bad address count %d", ErrCorruptRecord, key, numIPs)
	}

	rec := &types.NameRecord{
		Key:         key,
		NBFlags:     types.NBFlags(le.Uint16(data[0:])),
		Source:      types.Source(data[2]),
		DeathTime:   fromUnixSeconds(le.Uint32(data[3:])),
		RefreshTime: fromUnixSeconds(le.Uint32(data[7:])),
		Version:     uint64(le.Uint32(data[11:])) | uint64(le.Uint32(data[15:]))<<32,
		Owner:       ipv4At(data[19:]),
		WinsFlags:   types.WinsFlags(le.Uint32(data[23:])),
		IPs:         make([]netip.Addr, numIPs),
	}
	if !rec.Source.Valid() {
		return nil, fmt.Errorf("%w: %s: unknown source %d", ErrCorruptRecord, key, data[2])
	}
	if rec.WinsFlags.State() == types.StateMask {
		return nil, fmt.Errorf("%w: %s: both released and tombstoned", ErrCorruptRecord, key)
	}

	off := recordHeaderLen
	for i := range rec.IPs {
		rec.IPs[i] = ipv4At(data[off:])
		off += 4
	}
	return rec, nil
}

func putIPv4(dst []byte, ip netip.Addr) error {
	if !ip.Is4() {
		return fmt.Errorf("%w: not an ipv4 address: %v", ErrInvalidRecord, ip)
	}
	a := ip.As4()
	copy(dst, a[:])
	return nil
}

func ipv4At(b []byte) netip.Addr {
	return netip.AddrFrom4([4]byte{b[0], b[1], b[2], b[3]})
}

// 零值时间（永久记录）编码为 0
func unixSeconds(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}

func fromUnixSeconds(s uint32) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(int64(s), 0)
}
