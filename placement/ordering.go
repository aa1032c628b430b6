// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package placement

import (
	"strings"

	"github.com/cachegrid/binplace/internal/rbtree"
)

// orderKey is the (active_count, id) key the balance ordering sorts
// active locations by, per §3's "Ordering" paragraph.
type orderKey struct {
	count int
	id    string
}

func (a orderKey) Cmp(b orderKey) int {
	switch {
	case a.count < b.count:
		return -1
	case a.count > b.count:
		return 1
	default:
		return strings.Compare(a.id, b.id)
	}
}

// balanceOrdering wraps the generic rbtree with the (active_count, id)
// keying so locations can be min/max-selected in O(log n) and re-keyed
// whenever a mutation changes their active count.
type balanceOrdering struct {
	tree rbtree.Tree[orderKey, *locationRecord]
}

func newBalanceOrdering() *balanceOrdering {
	o := &balanceOrdering{}
	o.tree.KeyFn = func(rec *locationRecord) orderKey {
		return orderKey{count: rec.activeCount, id: string(rec.id)}
	}
	return o
}

func (o *balanceOrdering) Len() int { return o.tree.Len() }

// insert adds rec to the ordering at its current active count. rec
// must not already be in the ordering.
func (o *balanceOrdering) insert(rec *locationRecord) {
	rec.orderNode = o.tree.Insert(rec)
}

// remove takes rec out of the ordering. It is a no-op if rec is
// already absent.
func (o *balanceOrdering) remove(rec *locationRecord) {
	if rec.orderNode == nil {
		return
	}
	o.tree.DeleteNode(rec.orderNode)
	rec.orderNode = nil
}

// rekey must be called after rec.activeCount changes while rec is
// meant to remain in the ordering; it is a no-op for a rec that is
// not currently ordered (e.g. a location mid-removal).
func (o *balanceOrdering) rekey(rec *locationRecord) {
	if rec.orderNode == nil {
		return
	}
	o.remove(rec)
	o.insert(rec)
}

func (o *balanceOrdering) min() *locationRecord {
	n := o.tree.Min()
	if n == nil {
		return nil
	}
	return n.Value
}

func (o *balanceOrdering) max() *locationRecord {
	n := o.tree.Max()
	if n == nil {
		return nil
	}
	return n.Value
}

// walk visits every actively-ordered location from least to most
// loaded.
func (o *balanceOrdering) walk(fn func(*locationRecord)) {
	_ = o.tree.Walk(func(n *rbtree.Node[*locationRecord]) error {
		fn(n.Value)
		return nil
	})
}
