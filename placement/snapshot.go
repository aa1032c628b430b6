// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/cachegrid/binplace/clock"
	"github.com/cachegrid/binplace/snapshot"
)

// Snapshot captures every assignment this table currently holds,
// active and tombstoned alike, in the §6.3 in-memory form that
// snapshot.Encode knows how to serialize. The result shares no memory
// with the table: later mutations of t do not retroactively change it.
func (t *Table) Snapshot() *snapshot.Snapshot {
	bins := make([][]snapshot.Assignment, NumBins)
	for i := range t.bins {
		b := &t.bins[i]
		list := make([]snapshot.Assignment, 0, b.assignments.Len)
		for e := b.assignments.Oldest; e != nil; e = e.Next() {
			a := e.Value
			wa := snapshot.Assignment{
				LocationID: append([]byte(nil), a.loc.id...),
				HasExpiry:  !a.active(),
			}
			if wa.HasExpiry {
				wa.Expiry = a.expiry
			}
			list = append(list, wa)
		}
		bins[i] = list
	}
	return &snapshot.Snapshot{Bins: bins}
}

// FromSnapshot rebuilds a table from a prior snapshot under a possibly
// different replication factor k, per §4.6. Every assignment the
// snapshot recorded, active or tombstoned, is restored exactly before
// any of the three migration strategies below run, so every restored
// tombstone keeps its original expiry. In the larger-prior-k case the
// table is then pruned at the clock's current time, which drops any
// restored tombstone whose expiry is already past.
func FromSnapshot(ctx context.Context, k int, snap *snapshot.Snapshot, clk clock.Clock, opts ...Option) (*Table, error) {
	if snap.BinCount() != NumBins {
		return nil, fmt.Errorf("placement: snapshot has %d bins, want %d", snap.BinCount(), NumBins)
	}
	if k <= 0 {
		precondition("FromSnapshot", "k must be positive, got %d", k)
	}

	t := &Table{
		k:         k,
		locations: make(map[string]*locationRecord),
		order:     newBalanceOrdering(),
		clk:       clk,
	}
	for _, opt := range opts {
		opt(t)
	}

	kPrev := snap.K()
	for binIdx, bin := range snap.Bins {
		for _, wa := range bin {
			t.restoreAssignment(uint32(binIdx), wa)
		}
	}
	for _, rec := range t.locations {
		if rec.activeCount > 0 {
			t.order.insert(rec)
		}
	}

	switch {
	case kPrev == k:
		// Exact replay; every bin already has k active assignments.
	case kPrev < k:
		for binIdx := range t.bins {
			t.fillBin(uint32(binIdx), k)
		}
	default:
		now := t.clk.UTCNow()
		for binIdx := range t.bins {
			t.shrinkBin(uint32(binIdx), k, now)
		}
		t.Prune(ctx, now)
		t.rebalanceUntilBalanced(ctx)
	}

	dlog.Infof(ctx, "placement: restored table from snapshot k_prev=%d k=%d locations=%d", kPrev, k, len(t.locations))
	return t, nil
}

// restoreAssignment replays one wire assignment verbatim: it does not
// rekey the ordering, since FromSnapshot inserts every location into
// the ordering once, after every bin has been replayed.
func (t *Table) restoreAssignment(binIdx uint32, wa snapshot.Assignment) {
	rec, known := t.locations[string(wa.LocationID)]
	if !known {
		rec = newLocationRecord(wa.LocationID)
		t.locations[string(rec.id)] = rec
	}

	a := &assignment{loc: rec, bin: binIdx}
	if wa.HasExpiry {
		a.expiry = wa.Expiry
	}
	b := &t.bins[binIdx]
	a.binEntry = b.assignments.Store(a)
	a.locEntry = rec.assignments.Store(a)

	if !wa.HasExpiry {
		b.activeCount++
		rec.activeCount++
		rec.activeInBin[binIdx] = a
	}
}

// shrinkBin tombstones active assignments out of an over-full bin
// until it has at most target, always picking the assignment whose
// location currently has the highest active_count first so the shrink
// itself makes a down payment on rebalancing.
func (t *Table) shrinkBin(binIdx uint32, target int, now time.Time) {
	b := &t.bins[binIdx]
	for b.activeCount > target {
		var victim *assignment
		for e := b.assignments.Oldest; e != nil; e = e.Next() {
			a := e.Value
			if !a.active() {
				continue
			}
			if victim == nil || a.loc.activeCount > victim.loc.activeCount {
				victim = a
			}
		}
		if victim == nil {
			return
		}
		t.expireAssignment(victim, now.Add(t.gracePeriod))
	}
}

// rebalanceUntilBalanced repeatedly moves one assignment from the
// globally most-loaded active location to the least-loaded one until
// the near-balance invariant holds, the same donor-swap move
// rebalanceForAdd makes but run to a fixed point rather than anchored
// on one newly-added location.
func (t *Table) rebalanceUntilBalanced(ctx context.Context) {
	steps := 0
	for {
		maxRec, minRec := t.order.max(), t.order.min()
		if maxRec == nil || minRec == nil || maxRec.activeCount <= minRec.activeCount+1 {
			break
		}
		donorBin, found := lowestBinNotIn(maxRec.activeInBin, minRec.activeInBin)
		if !found {
			break
		}
		a := maxRec.activeInBin[donorBin]
		t.expireAssignment(a, t.clk.UTCNow().Add(t.gracePeriod))
		t.createAssignment(minRec, donorBin)
		steps++
	}
	dlog.Infof(ctx, "placement: post-snapshot rebalance moved %d assignments", steps)
}
