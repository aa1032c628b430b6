// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sizing holds the one compile-time constant both placement
// and snapshot need to agree on without either importing the other.
package sizing

// NumBins is B, the fixed bin count (§3).
const NumBins = 1 << 16
