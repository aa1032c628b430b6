// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapshot

import (
	"encoding/binary"
	"fmt"
)

// u32le, u8, and i64le are typed wire integers with their own
// MarshalBinary/UnmarshalBinary, the way lib/binstruct/binint.go gives
// each fixed-width integer kind its own named type rather than having
// callers poke at encoding/binary directly at every call site.

type u8 uint8

func (x u8) MarshalBinary() ([]byte, error) { return []byte{byte(x)}, nil }

func (x *u8) UnmarshalBinary(dat []byte) (int, error) {
	if err := needNBytes(dat, 1); err != nil {
		return 0, err
	}
	*x = u8(dat[0])
	return 1, nil
}

type u32le uint32

func (x u32le) MarshalBinary() ([]byte, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(x))
	return buf[:], nil
}

func (x *u32le) UnmarshalBinary(dat []byte) (int, error) {
	if err := needNBytes(dat, 4); err != nil {
		return 0, err
	}
	*x = u32le(binary.LittleEndian.Uint32(dat))
	return 4, nil
}

type i64le int64

func (x i64le) MarshalBinary() ([]byte, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(x))
	return buf[:], nil
}

func (x *i64le) UnmarshalBinary(dat []byte) (int, error) {
	if err := needNBytes(dat, 8); err != nil {
		return 0, err
	}
	*x = i64le(binary.LittleEndian.Uint64(dat))
	return 8, nil
}

func needNBytes(dat []byte, n int) error {
	if len(dat) < n {
		return fmt.Errorf("need at least %d bytes, only have %d", n, len(dat))
	}
	return nil
}
