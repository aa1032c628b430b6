// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func emptySnapshot() *Snapshot {
	return &Snapshot{Bins: make([][]Assignment, NumBins)}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := emptySnapshot()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Bins[0] = []Assignment{
		{LocationID: []byte("loc-a"), HasExpiry: false},
		{LocationID: []byte("loc-b"), HasExpiry: false},
	}
	s.Bins[1] = []Assignment{
		{LocationID: []byte("loc-c"), HasExpiry: true, Expiry: expiry},
	}
	s.Bins[65535] = []Assignment{
		{LocationID: []byte{}, HasExpiry: false},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, s.BinCount(), got.BinCount())
	require.Equal(t, s.Bins[0], got.Bins[0])
	require.Equal(t, s.Bins[1], got.Bins[1])
	require.Equal(t, s.Bins[65535], got.Bins[65535])
	for i := 2; i < 65535; i++ {
		require.Empty(t, got.Bins[i])
	}
}

func TestEncodeDecodeIsIdempotent(t *testing.T) {
	s := emptySnapshot()
	s.Bins[42] = []Assignment{
		{LocationID: []byte("loc-a"), HasExpiry: true, Expiry: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)},
	}

	var first bytes.Buffer
	require.NoError(t, Encode(&first, s))

	decoded, err := Decode(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, Encode(&second, decoded))

	require.True(t, bytes.Equal(first.Bytes(), second.Bytes()), "re-encoding a decoded snapshot must reproduce the same bytes")
}

func TestDecodeRejectsWrongBinCount(t *testing.T) {
	s := &Snapshot{Bins: make([][]Assignment, 10)}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	_, err := Decode(&buf)
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	s := emptySnapshot()
	s.Bins[0] = []Assignment{{LocationID: []byte("loc-a"), HasExpiry: false}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := Decode(bytes.NewReader(truncated))
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestSnapshotK(t *testing.T) {
	s := emptySnapshot()
	s.Bins[0] = []Assignment{
		{LocationID: []byte("a"), HasExpiry: false},
		{LocationID: []byte("b"), HasExpiry: false},
		{LocationID: []byte("c"), HasExpiry: true, Expiry: time.Now()},
	}
	require.Equal(t, 2, s.K())
}

func TestSnapshotKPanicsOnEmpty(t *testing.T) {
	s := &Snapshot{}
	require.Panics(t, func() { s.K() })
}

func TestTicksRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 17, 9, 30, 0, 0, time.UTC)
	got := fromTicks(toTicks(want))
	require.True(t, want.Equal(got))
}
