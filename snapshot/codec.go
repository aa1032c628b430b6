// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package snapshot implements the BinMappings wire codec (§6.3): a
// self-contained byte stream a Table can be serialized to and
// rehydrated from, independent of any particular k.
package snapshot

import (
	"io"
	"time"

	"github.com/cachegrid/binplace/internal/bufpool"
	"github.com/cachegrid/binplace/internal/sizing"
)

// NumBins is B; a decoded Snapshot must have exactly this many Bins.
const NumBins = sizing.NumBins

// ticksPerUnit is the wire format's tick unit: 100ns, matching
// the prep's original .NET-style DateTime.Ticks convention (100ns
// units since 0001-01-01T00:00:00Z, which is also Go's time.Time zero
// value — so the epoch needs no separate representation here).
const ticksPerUnit = 100 * time.Nanosecond

// Assignment is one serialized (location, expiry) pair within a bin.
type Assignment struct {
	LocationID []byte
	HasExpiry  bool
	Expiry     time.Time // meaningful only if HasExpiry
}

// Snapshot is a decoded BinMappings stream: one assignment list per
// bin, in file order.
type Snapshot struct {
	Bins [][]Assignment
}

// BinCount reports how many bins this snapshot has. A freshly decoded
// Snapshot always has exactly NumBins.
func (s *Snapshot) BinCount() int { return len(s.Bins) }

// K reports k_prev, the number of active assignments in the
// snapshot's first bin — used by placement.FromSnapshot to decide
// which of §4.6's three migration cases applies. It panics if the
// snapshot has no bins at all, which only a hand-built (not decoded)
// Snapshot could have.
func (s *Snapshot) K() int {
	if len(s.Bins) == 0 {
		panic("snapshot: K() called on a snapshot with no bins")
	}
	active := 0
	for _, a := range s.Bins[0] {
		if !a.HasExpiry {
			active++
		}
	}
	return active
}

// epochUnixSeconds is the wire epoch (the Go zero time, 0001-01-01) expressed
// in the same terms as time.Time.Unix(), so toTicks/fromTicks can work
// entirely in seconds+nanoseconds and never route a ~2000-year gap through a
// time.Duration: Duration is an int64 count of nanoseconds and saturates at
// about 292 years, far short of the distance from year 1 to any real expiry.
var epochUnixSeconds = time.Time{}.Unix()

func toTicks(t time.Time) int64 {
	ticksPerSecond := int64(time.Second / ticksPerUnit)
	secs := t.Unix() - epochUnixSeconds
	return secs*ticksPerSecond + int64(t.Nanosecond())/int64(ticksPerUnit/time.Nanosecond)
}

func fromTicks(ticks int64) time.Time {
	ticksPerSecond := int64(time.Second / ticksPerUnit)
	secs := ticks / ticksPerSecond
	rem := ticks % ticksPerSecond
	return time.Unix(secs+epochUnixSeconds, rem*int64(ticksPerUnit/time.Nanosecond)).UTC()
}

// scratchSize is big enough for any one fixed-width field this codec
// writes: a u32 length/count, or an assignment's flag byte plus its
// i64 ticks.
const scratchSize = 13

// Encode writes s to w in the §6.3 wire format. A single pooled
// scratch buffer is reused for every fixed-width field across the
// whole call, the way lib/containers/slicepool.go reuses a pooled
// slice across a single serialization pass instead of allocating one.
func Encode(w io.Writer, s *Snapshot) error {
	var p bufpool.Pool
	scratch := p.Get(scratchSize)
	defer p.Put(scratch)

	if err := writeU32(w, scratch, uint32(len(s.Bins))); err != nil {
		return err
	}
	for _, bin := range s.Bins {
		if err := writeU32(w, scratch, uint32(len(bin))); err != nil {
			return err
		}
		for _, a := range bin {
			if err := writeAssignment(w, scratch, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAssignment(w io.Writer, scratch []byte, a Assignment) error {
	if err := writeU32(w, scratch, uint32(len(a.LocationID))); err != nil {
		return err
	}
	if len(a.LocationID) > 0 {
		if _, err := w.Write(a.LocationID); err != nil {
			return err
		}
	}
	var flag u8
	if a.HasExpiry {
		flag = 1
	}
	flagBytes, _ := flag.MarshalBinary()
	n := copy(scratch, flagBytes)
	if a.HasExpiry {
		ticks := i64le(toTicks(a.Expiry))
		tb, _ := ticks.MarshalBinary()
		n += copy(scratch[n:], tb)
	}
	_, err := w.Write(scratch[:n])
	return err
}

func writeU32(w io.Writer, scratch []byte, v uint32) error {
	b, _ := u32le(v).MarshalBinary()
	copy(scratch, b)
	_, err := w.Write(scratch[:4])
	return err
}

// Decode reads a Snapshot from r in the §6.3 wire format. It returns
// a *DecodeError (never a panic) on malformed input, including a
// BinCount that doesn't equal NumBins.
func Decode(r io.Reader) (*Snapshot, error) {
	br := bufio(r)

	binCount, err := readU32(br)
	if err != nil {
		return nil, decodeErrorf(err, "reading bin count")
	}
	if binCount != NumBins {
		return nil, decodeErrorf(nil, "bin count %d does not match expected %d", binCount, NumBins)
	}

	s := &Snapshot{Bins: make([][]Assignment, binCount)}
	for i := range s.Bins {
		assignCount, err := readU32(br)
		if err != nil {
			return nil, decodeErrorf(err, "reading assignment count for bin %d", i)
		}
		bin := make([]Assignment, assignCount)
		for j := range bin {
			a, err := readAssignment(br)
			if err != nil {
				return nil, decodeErrorf(err, "reading assignment %d of bin %d", j, i)
			}
			bin[j] = a
		}
		s.Bins[i] = bin
	}
	return s, nil
}

func readAssignment(r io.ByteReader) (Assignment, error) {
	idLen, err := readU32(r)
	if err != nil {
		return Assignment{}, err
	}
	id := make([]byte, idLen)
	for i := range id {
		b, err := r.ReadByte()
		if err != nil {
			return Assignment{}, err
		}
		id[i] = b
	}

	flagByte, err := r.ReadByte()
	if err != nil {
		return Assignment{}, err
	}
	var flag u8
	if _, err := (&flag).UnmarshalBinary([]byte{flagByte}); err != nil {
		return Assignment{}, err
	}
	if flag != 0 && flag != 1 {
		return Assignment{}, decodeErrorf(nil, "invalid HasExpiry flag %d", flag)
	}

	a := Assignment{LocationID: id, HasExpiry: flag == 1}
	if a.HasExpiry {
		var tb [8]byte
		for i := range tb {
			b, err := r.ReadByte()
			if err != nil {
				return Assignment{}, err
			}
			tb[i] = b
		}
		var ticks i64le
		if _, err := (&ticks).UnmarshalBinary(tb[:]); err != nil {
			return Assignment{}, err
		}
		a.Expiry = fromTicks(int64(ticks))
	}
	return a, nil
}

func readU32(r io.ByteReader) (uint32, error) {
	var buf [4]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	var v u32le
	if _, err := (&v).UnmarshalBinary(buf[:]); err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// bufio adapts any io.Reader to an io.ByteReader without pulling in a
// full bufio.Reader's buffering machinery when r already is one.
func bufio(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &byteReaderAdapter{r: r}
}

type byteReaderAdapter struct {
	r   io.Reader
	one [1]byte
}

func (a *byteReaderAdapter) ReadByte() (byte, error) {
	if _, err := io.ReadFull(a.r, a.one[:]); err != nil {
		return 0, err
	}
	return a.one[0], nil
}
