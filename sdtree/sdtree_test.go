// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sdtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDepth(t *testing.T) {
	require.EqualValues(t, 0, Depth(1))
	require.EqualValues(t, 1, Depth(2))
	require.EqualValues(t, 1, Depth(3))
	require.EqualValues(t, 3, Depth(8))
	require.EqualValues(t, 3, Depth(15))
}

func TestAncestorCommonCases(t *testing.T) {
	require.EqualValues(t, 0, Ancestor(0, 5))
	require.EqualValues(t, 0, Ancestor(5, 0))
	require.EqualValues(t, 1, Ancestor(8, 13))
	require.EqualValues(t, 2, Ancestor(8, 11))
	require.EqualValues(t, 4, Ancestor(8, 9))
	require.EqualValues(t, 9, Ancestor(9, 9))
}

func TestIsDescendant(t *testing.T) {
	require.True(t, IsDescendant(1, 8))
	require.True(t, IsDescendant(2, 8))
	require.True(t, IsDescendant(4, 8))
	require.True(t, IsDescendant(8, 8))
	require.False(t, IsDescendant(5, 8))
	require.False(t, IsDescendant(8, 4))
}

func TestLeafCount(t *testing.T) {
	count, first, last := LeafCount(3)
	require.EqualValues(t, 8, count)
	require.EqualValues(t, 8, first)
	require.EqualValues(t, 15, last)
}

func TestCountBits(t *testing.T) {
	buf := []byte{0b00010010}
	count, first, last := CountBits(buf)
	require.Equal(t, 2, count)
	require.Equal(t, 1, first)
	require.Equal(t, 4, last)

	count, first, last = CountBits([]byte{0})
	require.Equal(t, 0, count)
	require.Equal(t, -1, first)
	require.Equal(t, -1, last)
}

func TestSetLegalLeavesAllLegal(t *testing.T) {
	buf := make([]byte, BitmapSize(3))
	require.NoError(t, SetLegalLeaves(buf, 3, 0, 0))
	count, _, _ := CountBits(buf)
	require.Equal(t, 8, count)
}

func TestSetLegalLeavesExcludesDescendant(t *testing.T) {
	buf := make([]byte, BitmapSize(3))
	// S_{2,9}: descendants of vertex 2 (leaves 8,9,10,11) excluding
	// descendants of vertex 9 (leaf 9 itself).
	require.NoError(t, SetLegalLeaves(buf, 3, 2, 9))
	for _, leaf := range []uint32{8, 10, 11} {
		require.True(t, bitSet(buf, leaf-8), "leaf %d should be legal", leaf)
	}
	require.False(t, bitSet(buf, 9-8), "leaf 9 should be excluded")
	for _, leaf := range []uint32{12, 13, 14, 15} {
		require.False(t, bitSet(buf, leaf-8), "leaf %d outside S_{2,9}", leaf)
	}
}

func TestCheckLeaf(t *testing.T) {
	ok, err := CheckLeaf(3, 0, 0, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CheckLeaf(3, 2, 9, 9)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = CheckLeaf(3, 2, 9, 10)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = CheckLeaf(3, 2, 9, 20)
	require.ErrorIs(t, err, ErrBadParam)
}

func TestCreateIDsCoverNoRevocation(t *testing.T) {
	buf := make([]byte, BitmapSize(3))
	pairs, err := CreateIDsCover(3, buf)
	require.NoError(t, err)
	require.Equal(t, []Pair{{0, 0}}, pairs)
}

func TestCreateIDsCoverSingleRevoked(t *testing.T) {
	buf := make([]byte, BitmapSize(3))
	setBit(buf, 9-8) // leaf 9 revoked
	pairs, err := CreateIDsCover(3, buf)
	require.NoError(t, err)
	require.Equal(t, []Pair{{1, 9}}, pairs)
}

// TREE-COVER-1: h = 3, R = 0b00010010 (leaves at positions 1 and 4 revoked).
func TestCreateIDsCoverTreeCover1(t *testing.T) {
	buf := []byte{0b00010010}
	pairs, err := CreateIDsCover(3, buf)
	require.NoError(t, err)
	require.Equal(t, []Pair{{2, 9}, {3, 12}}, pairs)
}

// coverPartitionsLegalLeaves asserts the cover correctness/tightness
// properties: the union of the cover's legal-leaf sets equals exactly the
// non-revoked leaves, pairwise disjoint, with d bounded by 2r-1 (or d=1,
// pair (0,0), when r=0).
func coverPartitionsLegalLeaves(t *testing.T, h uint8, revoked []byte) {
	t.Helper()
	pairs, err := CreateIDsCover(h, revoked)
	require.NoError(t, err)

	rCount, _, _ := CountBits(revoked)
	if rCount == 0 {
		require.Equal(t, []Pair{{0, 0}}, pairs)
		return
	}
	require.LessOrEqual(t, len(pairs), 2*rCount-1)

	first := uint32(1) << h
	count, _, _ := LeafCount(h)
	last := first + count - 1

	covered := make(map[uint32]bool)
	for _, p := range pairs {
		for v := first; v <= last; v++ {
			ok, err := CheckLeaf(h, p.A, p.B, v)
			require.NoError(t, err)
			if ok {
				require.False(t, covered[v], "leaf %d covered by more than one pair", v)
				covered[v] = true
			}
		}
	}
	for v := first; v <= last; v++ {
		wantLegal := !bitSet(revoked, v-first)
		require.Equal(t, wantLegal, covered[v], "leaf %d legal mismatch", v)
	}
}

func TestCreateIDsCoverPartitionsProperty(t *testing.T) {
	h := uint8(4)
	scenarios := [][]byte{
		{0x00, 0x00},
		{0x01, 0x00},
		{0x80, 0x01},
		{0xff, 0xff},
		{0b01111111, 0b11111110},
		{0b10101010, 0b01010101},
	}
	for _, r := range scenarios {
		coverPartitionsLegalLeaves(t, h, append([]byte(nil), r...))
	}
}

func TestCreateIDsCoverRejectsBadInput(t *testing.T) {
	_, err := CreateIDsCover(2, make([]byte, 1))
	require.ErrorIs(t, err, ErrBadParam)

	_, err = CreateIDsCover(3, make([]byte, 2))
	require.ErrorIs(t, err, ErrBadParam)
}
