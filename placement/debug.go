// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"bytes"
	"encoding/hex"
	"sort"

	"git.lukeshu.com/go/lowmemjson"
)

// debugLocation is one location's entry in DebugJSON's output: a
// human-readable summary, not a wire format. Field names are exported
// only so lowmemjson can see them; nothing in this package decodes
// this shape back.
type debugLocation struct {
	ID          string
	ActiveCount int
	Bins        []uint32
}

// debugView is the whole-table shape DebugJSON renders, locations
// least-loaded first.
type debugView struct {
	K             int
	BinCount      int
	LocationCount int
	Locations     []debugLocation
}

// DebugJSON renders a human-readable dump of the table's current
// balance: every active location, its active count, and which bins it
// holds, ordered least- to most-loaded. It is for inspection only; it
// is not the §6.3 wire format and round-trips through nothing.
func (t *Table) DebugJSON() ([]byte, error) {
	view := debugView{
		K:             t.k,
		BinCount:      NumBins,
		LocationCount: len(t.locations),
	}
	t.order.walk(func(rec *locationRecord) {
		bins := make([]uint32, 0, len(rec.activeInBin))
		for bin := range rec.activeInBin {
			bins = append(bins, bin)
		}
		sort.Slice(bins, func(i, j int) bool { return bins[i] < bins[j] })
		view.Locations = append(view.Locations, debugLocation{
			ID:          hex.EncodeToString(rec.id),
			ActiveCount: rec.activeCount,
			Bins:        bins,
		})
	})

	var buf bytes.Buffer
	if err := lowmemjson.Encode(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
