// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package llist implements a minimal intrusive doubly-linked list, the
// way lib/containers/linkedlist.go does in the teacher repo: an O(1)
// delete-by-handle collection, with no iteration-order guarantees beyond
// "oldest to newest" traversal.
package llist

import "fmt"

// Entry is one element of a List[T]. Its zero value is not yet in any
// list.
type Entry[T any] struct {
	list         *List[T]
	older, newer *Entry[T]

	Value T
}

// List is a doubly-linked list of Entry[T].
type List[T any] struct {
	Len            int
	Oldest, Newest *Entry[T]
}

func (l *List[T]) IsEmpty() bool { return l.Oldest == nil }

// Store appends a new entry holding val to the list and returns it.
func (l *List[T]) Store(val T) *Entry[T] {
	entry := &Entry[T]{list: l, Value: val}
	l.Len++
	entry.older = l.Newest
	l.Newest = entry
	if entry.older == nil {
		l.Oldest = entry
	} else {
		entry.older.newer = entry
	}
	return entry
}

// Delete removes entry from the list. It panics if entry is nil or
// not currently a member of this list.
func (l *List[T]) Delete(entry *Entry[T]) {
	if entry == nil || entry.list != l {
		panic(fmt.Errorf("llist: entry %p is not in this list", entry))
	}
	l.Len--
	if entry.newer == nil {
		l.Newest = entry.older
	} else {
		entry.newer.older = entry.older
	}
	if entry.older == nil {
		l.Oldest = entry.newer
	} else {
		entry.older.newer = entry.newer
	}
	entry.list = nil
	entry.older = nil
	entry.newer = nil
}

// Next returns the entry stored after e (towards Newest), or nil at
// the end of the list.
func (e *Entry[T]) Next() *Entry[T] {
	if e == nil {
		return nil
	}
	return e.newer
}
