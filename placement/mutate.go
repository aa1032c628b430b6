// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"context"

	"github.com/datawire/dlib/dlog"
)

// AddLocation brings id into the active set, per §4.2. It panics with
// a *PreconditionError if id is already active.
func (t *Table) AddLocation(ctx context.Context, id []byte) {
	key := string(id)
	rec, known := t.locations[key]
	switch {
	case !known:
		rec = newLocationRecord(id)
		t.locations[key] = rec
	case rec.activeCount > 0:
		precondition("AddLocation", "location %q is already active", id)
	}

	t.order.insert(rec)

	// Every under-full bin gets this location for free.
	for binIdx := range t.bins {
		if t.bins[binIdx].activeCount < t.k {
			t.createAssignment(rec, uint32(binIdx))
		}
	}

	t.rebalanceForAdd(ctx, rec)

	dlog.Infof(ctx, "placement: added location %q, active_count=%d", id, rec.activeCount)
}

// rebalanceForAdd runs the donor-bin-swapping loop of §4.2 until rec's
// active count is within one of the current maximum.
func (t *Table) rebalanceForAdd(ctx context.Context, rec *locationRecord) {
	maxRec := t.order.max()
	if maxRec == nil {
		return
	}
	sparse := rec.activeCount == 0 && maxRec.activeCount > t.order.Len()
	if sparse {
		dlog.Infof(ctx, "placement: add rebalance using sparse strategy (donor max=%d, n=%d)", maxRec.activeCount, t.order.Len())
	}

	// eligibleBins is only populated (and only matters) for the
	// sparse strategy: a per-donor set of bins still available to
	// give up, shared across every donor encountered during this
	// call so no bin is ever handed out twice.
	var eligibleBins map[*locationRecord]map[uint32]struct{}
	if sparse {
		eligibleBins = make(map[*locationRecord]map[uint32]struct{})
	}

	steps := 0
	for {
		maxRec = t.order.max()
		if maxRec == nil || rec.activeCount >= maxRec.activeCount-1 {
			break
		}
		donor := maxRec

		var (
			donorBin uint32
			found    bool
		)
		if sparse {
			set, ok := eligibleBins[donor]
			if !ok {
				set = make(map[uint32]struct{}, len(donor.activeInBin))
				for bin := range donor.activeInBin {
					if _, taken := rec.activeInBin[bin]; taken {
						continue
					}
					set[bin] = struct{}{}
				}
				eligibleBins[donor] = set
			}
			for bin := range set {
				donorBin, found = bin, true
				break
			}
			if found {
				for _, s := range eligibleBins {
					delete(s, donorBin)
				}
			}
		} else {
			donorBin, found = lowestBinNotIn(donor.activeInBin, rec.activeInBin)
		}
		if !found {
			// Donor has nothing left to give up to rec; this only
			// arises if rec already owns every bin donor does.
			break
		}

		a := donor.activeInBin[donorBin]
		t.expireAssignment(a, t.clk.UTCNow().Add(t.gracePeriod))
		t.createAssignment(rec, donorBin)
		steps++
	}
	dlog.Infof(ctx, "placement: add rebalance moved %d assignments", steps)
}

// lowestBinNotIn returns the lowest bin index present in from but
// absent from exclude.
func lowestBinNotIn(from, exclude map[uint32]*assignment) (uint32, bool) {
	var (
		best  uint32
		found bool
	)
	for bin := range from {
		if _, skip := exclude[bin]; skip {
			continue
		}
		if !found || bin < best {
			best = bin
			found = true
		}
	}
	return best, found
}

// RemoveLocation takes id out of the active set, per §4.3. It panics
// with a *PreconditionError if id is not currently active.
func (t *Table) RemoveLocation(ctx context.Context, id []byte) {
	key := string(id)
	rec, known := t.locations[key]
	if !known || rec.activeCount == 0 {
		precondition("RemoveLocation", "location %q is not active", id)
	}

	t.order.remove(rec)

	bins := make([]uint32, 0, len(rec.activeInBin))
	for bin := range rec.activeInBin {
		bins = append(bins, bin)
	}

	replaced, bare := 0, 0
	now := t.clk.UTCNow()
	for _, binIdx := range bins {
		a := rec.activeInBin[binIdx]
		replacement := t.leastLoadedNotIn(binIdx)
		t.expireAssignment(a, now.Add(t.gracePeriod))
		if replacement != nil {
			t.createAssignment(replacement, binIdx)
			replaced++
		} else {
			bare++
		}
	}

	dlog.Infof(ctx, "placement: removed location %q, replaced=%d unreplaced=%d", id, replaced, bare)
}
