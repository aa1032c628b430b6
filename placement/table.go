// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package placement implements the bin-based content-placement engine:
// a fixed array of bins, each holding up to k active location
// assignments, kept near-balanced under incremental add/remove of
// locations and reconstructable from a prior snapshot. See SPEC_FULL.md
// for the full contract.
package placement

import (
	"context"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/cachegrid/binplace/clock"
	"github.com/cachegrid/binplace/internal/llist"
	"github.com/cachegrid/binplace/internal/sizing"
)

// NumBins is B, the fixed bin count: the low 16 bits of a content
// hash select one of these.
const NumBins = sizing.NumBins

// bin is one of the NumBins buckets: an unordered collection of
// assignments (active and tombstoned) plus the invariant-tracked
// count of how many are active.
type bin struct {
	assignments llist.List[*assignment]
	activeCount int
}

// Table is the bin table: the engine described by SPEC_FULL.md. It is
// single-threaded by design (§5) — callers must serialize their own
// access; no method here takes a lock.
type Table struct {
	k           int
	bins        [NumBins]bin
	locations   map[string]*locationRecord
	order       *balanceOrdering
	clk         clock.Clock
	gracePeriod time.Duration
}

// Option configures a Table at construction time.
type Option func(*Table)

// WithGracePeriod sets how far into the future a tombstone created by
// RemoveLocation (or by a replacement swap) is stamped, resolving the
// open question in SPEC_FULL.md §13(a). The zero value (the default)
// means tombstones are immediately prunable.
func WithGracePeriod(d time.Duration) Option {
	return func(t *Table) { t.gracePeriod = d }
}

// K returns the replication factor this table was constructed with.
func (t *Table) K() int { return t.k }

// New builds an engine from a raw membership list, per §4.1.
func New(ctx context.Context, k int, locationIDs [][]byte, clk clock.Clock, opts ...Option) *Table {
	if k <= 0 {
		precondition("New", "k must be positive, got %d", k)
	}
	t := &Table{
		k:         k,
		locations: make(map[string]*locationRecord, len(locationIDs)),
		order:     newBalanceOrdering(),
		clk:       clk,
	}
	for _, opt := range opts {
		opt(t)
	}

	recs := make([]*locationRecord, 0, len(locationIDs))
	for _, id := range locationIDs {
		rec := newLocationRecord(id)
		t.locations[string(rec.id)] = rec
		recs = append(recs, rec)
	}

	switch {
	case len(recs) == 0:
		// Nothing to assign; every bin starts empty.
	case len(recs) <= k:
		// Every bin gets all locations (§4.1 case 1).
		for binIdx := range t.bins {
			for _, rec := range recs {
				t.createAssignment(rec, uint32(binIdx))
			}
		}
		for _, rec := range recs {
			t.order.insert(rec)
		}
	default:
		// Fill each bin by repeatedly drawing the ordering's
		// current minimum (§4.1 case 2).
		for _, rec := range recs {
			t.order.insert(rec)
		}
		for binIdx := range t.bins {
			t.fillBin(uint32(binIdx), k)
		}
	}

	dlog.Infof(ctx, "placement: built table k=%d locations=%d", k, len(recs))
	return t
}

// createAssignment makes a new active assignment of rec to binIdx,
// updating every cross-reference the invariants require.
func (t *Table) createAssignment(rec *locationRecord, binIdx uint32) *assignment {
	a := &assignment{loc: rec, bin: binIdx}
	b := &t.bins[binIdx]
	a.binEntry = b.assignments.Store(a)
	a.locEntry = rec.assignments.Store(a)
	b.activeCount++
	rec.activeCount++
	rec.activeInBin[binIdx] = a
	t.order.rekey(rec)
	return a
}

// expireAssignment tombstones a. It does not remove it from memory —
// that is Prune's job once its expiry has passed.
func (t *Table) expireAssignment(a *assignment, expiry time.Time) {
	a.expiry = expiry
	rec := a.loc
	b := &t.bins[a.bin]
	b.activeCount--
	rec.activeCount--
	delete(rec.activeInBin, a.bin)
	t.order.rekey(rec)
}

// fillBin tops a bin up to min(target, number of active locations),
// repeatedly assigning the globally least-loaded active location that
// isn't already present in the bin. This implements both halves of
// §4.1 case 2's bin-fill and §4.6's smaller-k top-up: when there are
// at least target active locations it reaches exactly target entries;
// when there are fewer, the second loop bound stops it once every
// active location has been added, which is the "top up with every
// not-yet-present active location" case.
func (t *Table) fillBin(binIdx uint32, target int) {
	b := &t.bins[binIdx]
	for b.activeCount < target && b.activeCount < t.order.Len() {
		rec := t.leastLoadedNotIn(binIdx)
		if rec == nil {
			return
		}
		t.createAssignment(rec, binIdx)
	}
}

// leastLoadedNotIn returns the active location with the smallest
// active_count that does not already own binIdx, or nil if every
// active location already does. It follows §4.3's stash-and-restore
// probing: candidates that don't qualify are pulled out of the
// ordering so the next Min() call surfaces a different candidate,
// then reinserted once the search concludes.
func (t *Table) leastLoadedNotIn(binIdx uint32) *locationRecord {
	var stash []*locationRecord
	defer func() {
		for _, rec := range stash {
			t.order.insert(rec)
		}
	}()

	for {
		cand := t.order.min()
		if cand == nil {
			return nil
		}
		t.order.remove(cand)
		if _, already := cand.activeInBin[binIdx]; !already {
			t.order.insert(cand)
			return cand
		}
		stash = append(stash, cand)
	}
}
