// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bufpool reuses scratch []byte buffers across the many
// small per-bin writes a snapshot encode performs, instead of
// allocating one per bin.
package bufpool

import (
	"git.lukeshu.com/go/typedsync"
)

// Pool hands out []byte buffers sized to at least the requested
// length, reusing a previously-returned buffer when its capacity
// permits.
type Pool struct {
	inner typedsync.Pool[[]byte]
}

// Get returns a buffer with length size. Its contents are unspecified.
func (p *Pool) Get(size int) []byte {
	if size == 0 {
		return nil
	}
	ret, ok := p.inner.Get()
	if ok && cap(ret) >= size {
		ret = ret[:size]
	} else {
		ret = make([]byte, size)
	}
	return ret
}

// Put returns buf to the pool for reuse.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	p.inner.Put(buf)
}
