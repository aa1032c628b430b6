// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rbtree implements a generic red-black tree keyed by a
// caller-supplied comparison, with deletion available either by key or
// directly by node handle.
package rbtree

import "golang.org/x/exp/constraints"

// Ordered is satisfied by any type with a three-way comparison against
// its own type: negative if the receiver sorts before other, zero if
// equal, positive if it sorts after.
type Ordered[T any] interface {
	Cmp(other T) int
}

// NativeOrdered wraps a constraints.Ordered value so it satisfies
// Ordered, the way lib/containers/ordered.go's NativeOrdered[T] does.
type NativeOrdered[T constraints.Ordered] struct {
	Val T
}

func (a NativeOrdered[T]) Cmp(b NativeOrdered[T]) int {
	switch {
	case a.Val < b.Val:
		return -1
	case a.Val > b.Val:
		return 1
	default:
		return 0
	}
}

var _ Ordered[NativeOrdered[int]] = NativeOrdered[int]{}
