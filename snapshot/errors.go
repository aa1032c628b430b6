// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapshot

import "fmt"

// DecodeError reports malformed or impossible-count snapshot bytes
// (§7.2): truncated streams, a BinCount that doesn't match NumBins, or
// an assignment/location-id length that runs past the end of the
// buffer. It is always returned, never panicked — the caller is free
// to fall back to bootstrapping from a fresh membership list instead.
// The shape mirrors lib/binstruct/errors.go's UnmarshalError: a
// wrapped cause plus enough context to say where decoding went wrong.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("snapshot: decode failed: %s", e.Reason)
	}
	return fmt.Sprintf("snapshot: decode failed: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErrorf(err error, format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...), Err: err}
}
