// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"time"

	"github.com/cachegrid/binplace/internal/llist"
	"github.com/cachegrid/binplace/internal/rbtree"
)

// assignment is a claim that a location is (or was) responsible for a
// bin. An assignment is mutated exactly once, from active to expired;
// it is never resurrected. It is a member of exactly two collections
// at a time: the owning bin's list and the owning location's list.
type assignment struct {
	loc    *locationRecord
	bin    uint32
	expiry time.Time // zero value means "active"

	binEntry *llist.Entry[*assignment]
	locEntry *llist.Entry[*assignment]
}

func (a *assignment) active() bool { return a.expiry.IsZero() }

// locationRecord is the per-location bookkeeping described in §3 of
// the spec: an id, how many of its assignments are active, the full
// set of assignments (active and tombstoned), and a hot-path cache of
// which bins it currently actively owns.
type locationRecord struct {
	id          []byte
	activeCount int

	assignments llist.List[*assignment]

	// activeInBin mirrors, for each bin this location actively
	// owns, the assignment record itself. It is the "bins_assigned_to"
	// hot-path cache from §3, keyed so AddLocation's rebalance and
	// RemoveLocation's replacement search never need to scan every bin.
	activeInBin map[uint32]*assignment

	// orderNode is this location's handle into the balance
	// ordering, or nil if the location currently has no active
	// assignments and so is absent from the ordering (freshly
	// created-by-tombstone-only, or removed-and-not-yet-re-added).
	orderNode *rbtree.Node[*locationRecord]
}

func newLocationRecord(id []byte) *locationRecord {
	idCopy := make([]byte, len(id))
	copy(idCopy, id)
	return &locationRecord{
		id:          idCopy,
		activeInBin: make(map[uint32]*assignment),
	}
}
