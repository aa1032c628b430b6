// Copyright (C) 2026  The Cachegrid Authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package rbtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newIntTree() *Tree[NativeOrdered[int], int] {
	return &Tree[NativeOrdered[int], int]{
		KeyFn: func(v int) NativeOrdered[int] { return NativeOrdered[int]{Val: v} },
	}
}

// checkInvariants walks the whole tree checking the four red-black
// properties that aren't trivially true by construction (root is
// black, red nodes have black children, every root-to-nil path has
// the same black-height, and BST ordering holds).
func checkInvariants(t *testing.T, tree *Tree[NativeOrdered[int], int]) {
	t.Helper()

	require.Equal(t, black, tree.root.getColor())

	require.NoError(t, tree.Walk(func(n *Node[int]) error {
		if n.getColor() == red {
			require.Equal(t, black, n.left.getColor())
			require.Equal(t, black, n.right.getColor())
		}
		return nil
	}))

	var blackHeight func(n *Node[int]) int
	blackHeight = func(n *Node[int]) int {
		if n == nil {
			return 1
		}
		left := blackHeight(n.left)
		right := blackHeight(n.right)
		require.Equal(t, left, right, "black-height mismatch")
		if n.getColor() == black {
			return left + 1
		}
		return left
	}
	blackHeight(tree.root)

	var prev *int
	require.NoError(t, tree.Walk(func(n *Node[int]) error {
		if prev != nil {
			require.Less(t, *prev, n.Value)
		}
		v := n.Value
		prev = &v
		return nil
	}))
}

func TestInsertDelete(t *testing.T) {
	tree := newIntTree()
	present := map[int]bool{}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		v := rng.Intn(200)
		if present[v] {
			tree.Delete(NativeOrdered[int]{Val: v})
			delete(present, v)
		} else {
			tree.Insert(v)
			present[v] = true
		}
		checkInvariants(t, tree)
		require.Equal(t, len(present), tree.Len())
	}
}

func TestDeleteNodeByHandle(t *testing.T) {
	tree := newIntTree()
	var handles []*Node[int]
	for _, v := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6, 0} {
		handles = append(handles, tree.Insert(v))
	}
	checkInvariants(t, tree)

	// Delete by handle must work even though the handle was obtained
	// before any of the later inserts, i.e. without re-searching by key.
	tree.DeleteNode(handles[0])
	checkInvariants(t, tree)
	require.Equal(t, 9, tree.Len())
	require.Nil(t, tree.Lookup(NativeOrdered[int]{Val: 5}))
}

func TestMinMaxNextPrev(t *testing.T) {
	tree := newIntTree()
	for _, v := range []int{5, 3, 8, 1, 9} {
		tree.Insert(v)
	}
	require.Equal(t, 1, tree.Min().Value)
	require.Equal(t, 9, tree.Max().Value)

	var walked []int
	for n := tree.Min(); n != nil; n = tree.Next(n) {
		walked = append(walked, n.Value)
	}
	require.Equal(t, []int{1, 3, 5, 8, 9}, walked)

	var back []int
	for n := tree.Max(); n != nil; n = tree.Prev(n) {
		back = append(back, n.Value)
	}
	require.Equal(t, []int{9, 8, 5, 3, 1}, back)
}

func TestInsertReplacesSameKey(t *testing.T) {
	tree := newIntTree()
	n1 := tree.Insert(5)
	n2 := tree.Insert(5)
	require.Same(t, n1, n2)
	require.Equal(t, 1, tree.Len())
}
