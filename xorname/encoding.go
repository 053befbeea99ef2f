// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"encoding/binary"
	"fmt"
)

// Prefix wire encoding: 2-byte big-endian bit length followed by the
// 32-byte zero-padded bit pattern. The CBOR layer picks these up via
// encoding.BinaryMarshaler, so a Prefix is always a 34-byte string on
// the wire regardless of length.

const prefixWireLen = 2 + Len

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Prefix) MarshalBinary() ([]byte, error) {
	buf := make([]byte, prefixWireLen)
	binary.BigEndian.PutUint16(buf[:2], uint16(p.bits))
	copy(buf[2:], p.name[:])
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Prefix) UnmarshalBinary(data []byte) error {
	if len(data) != prefixWireLen {
		return fmt.Errorf("xorname: prefix encoding is %d bytes, want %d", len(data), prefixWireLen)
	}
	bits := uint(binary.BigEndian.Uint16(data[:2]))
	if bits > MaxBits {
		return fmt.Errorf("xorname: prefix bit length %d exceeds %d", bits, MaxBits)
	}
	var name Name
	copy(name[:], data[2:])
	decoded := NewPrefix(name, bits)
	if decoded.name != name {
		return fmt.Errorf("xorname: prefix has non-zero bits beyond length %d", bits)
	}
	*p = decoded
	return nil
}
