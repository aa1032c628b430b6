// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package llist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreOrderAndDelete(t *testing.T) {
	var l List[string]

	a := l.Store("a")
	b := l.Store("b")
	c := l.Store("c")
	require.Equal(t, 3, l.Len)

	var got []string
	for e := l.Oldest; e != nil; e = e.Next() {
		got = append(got, e.Value)
	}
	require.Equal(t, []string{"a", "b", "c"}, got)

	l.Delete(b)
	require.Equal(t, 2, l.Len)

	got = nil
	for e := l.Oldest; e != nil; e = e.Next() {
		got = append(got, e.Value)
	}
	require.Equal(t, []string{"a", "c"}, got)

	require.Equal(t, l.Oldest, a)
	require.Equal(t, l.Newest, c)
}

func TestDeleteEntireList(t *testing.T) {
	var l List[int]
	entries := []*Entry[int]{l.Store(1), l.Store(2), l.Store(3)}
	for _, e := range entries {
		l.Delete(e)
	}
	require.True(t, l.IsEmpty())
	require.Zero(t, l.Len)
	require.Nil(t, l.Oldest)
	require.Nil(t, l.Newest)
}

func TestDeletePanicsOnForeignEntry(t *testing.T) {
	var a, b List[int]
	entry := a.Store(1)
	require.Panics(t, func() { b.Delete(entry) })
}

func TestDeletePanicsOnNil(t *testing.T) {
	var l List[int]
	require.Panics(t, func() { l.Delete(nil) })
}
