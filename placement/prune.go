// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"context"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/cachegrid/binplace/internal/llist"
)

// Prune drops every tombstone whose expiry has passed, then purges
// any location left with no remaining assignments at all, per §4.5.
// It is idempotent and never touches the ordering's membership beyond
// that purge.
func (t *Table) Prune(ctx context.Context, now time.Time) {
	droppedAssignments, droppedLocations := 0, 0
	touched := make(map[*locationRecord]struct{})

	for i := range t.bins {
		b := &t.bins[i]
		var next *llist.Entry[*assignment]
		for e := b.assignments.Oldest; e != nil; e = next {
			next = e.Next()
			a := e.Value
			if a.active() || a.expiry.After(now) {
				continue
			}
			b.assignments.Delete(e)
			a.loc.assignments.Delete(a.locEntry)
			touched[a.loc] = struct{}{}
			droppedAssignments++
		}
	}

	for rec := range touched {
		if rec.assignments.Len == 0 {
			delete(t.locations, string(rec.id))
			droppedLocations++
		}
	}

	dlog.Infof(ctx, "placement: pruned %d tombstones, %d locations", droppedAssignments, droppedLocations)
}
