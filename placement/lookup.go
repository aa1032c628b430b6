// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import "time"

// binIndex computes the low-16-bit bin index from a content hash, per
// §4.4: the first two bytes, little-endian, masked to NumBins.
func binIndex(hash []byte) uint32 {
	if len(hash) < 2 {
		precondition("Lookup", "hash must be at least 2 bytes, got %d", len(hash))
	}
	return (uint32(hash[0]) | uint32(hash[1])<<8) & (NumBins - 1)
}

// Lookup returns the active locations currently assigned to hash's
// bin, in no particular but stable order. The result is a copy; the
// caller may retain and mutate the returned slice freely.
func (t *Table) Lookup(hash []byte) [][]byte {
	b := &t.bins[binIndex(hash)]
	out := make([][]byte, 0, t.k)
	for e := b.assignments.Oldest; e != nil; e = e.Next() {
		a := e.Value
		if a.active() {
			out = append(out, append([]byte(nil), a.loc.id...))
		}
	}
	return out
}

// AssignmentView is a read-only copy of one assignment: the location,
// and whether/when it expired. Expiry is the zero time.Time for an
// active assignment.
type AssignmentView struct {
	LocationID []byte
	Expiry     time.Time
}

func (v AssignmentView) Active() bool { return v.Expiry.IsZero() }

// LookupFull returns every assignment for hash's bin, active and
// tombstoned, including each tombstone's expiry: the same per-bin data
// Snapshot serializes (Snapshot reads the bins directly).
func (t *Table) LookupFull(hash []byte) []AssignmentView {
	b := &t.bins[binIndex(hash)]
	out := make([]AssignmentView, 0, b.assignments.Len)
	for e := b.assignments.Oldest; e != nil; e = e.Next() {
		out = append(out, toAssignmentView(e.Value))
	}
	return out
}

func toAssignmentView(a *assignment) AssignmentView {
	return AssignmentView{
		LocationID: append([]byte(nil), a.loc.id...),
		Expiry:     a.expiry,
	}
}
