// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sdtree implements pure vertex-number arithmetic over a complete
// binary tree and the Subset-Difference cover construction used by the
// broadcast-encryption key schedule: depth/ancestor/descendant tests, leaf
// enumeration, legal-leaf-set membership, and the revoked-set-to-cover
// reduction itself.
package sdtree

import (
	"errors"
	"math/bits"
)

// ErrBadParam is returned for malformed tree-arithmetic arguments: a height
// outside [3,25], a vertex number outside the tree, or a (a,b) pair where b
// is not a proper descendant of a.
var ErrBadParam = errors.New("sdtree: malformed parameter")

// MinHeight and MaxHeight bound the tree heights this package supports.
const (
	MinHeight = 3
	MaxHeight = 25
)

// Pair is one Subset-Difference cover entry (a, b): the legal-leaf set
// S_{a,b} consists of the leaves that descend from a but not from b.
type Pair struct {
	A, B uint32
}

func validHeight(h uint8) bool {
	return h >= MinHeight && h <= MaxHeight
}

// Depth returns floor(log2(v)). The root has depth 0. Depth(0) is
// undefined; callers must not pass v = 0.
func Depth(v uint32) uint8 {
	return uint8(bits.Len32(v) - 1)
}

// Ancestor returns the lowest common ancestor of a and b in the tree, or 0
// if either argument is 0.
func Ancestor(a, b uint32) uint32 {
	if a == 0 || b == 0 {
		return 0
	}
	da, db := Depth(a), Depth(b)
	for da > db {
		a >>= 1
		da--
	}
	for db > da {
		b >>= 1
		db--
	}
	for a != b {
		a >>= 1
		b >>= 1
	}
	return a
}

// IsDescendant reports whether desc is a descendant of (or equal to) anc.
func IsDescendant(anc, desc uint32) bool {
	if anc == 0 || desc == 0 {
		return false
	}
	dAnc, dDesc := Depth(anc), Depth(desc)
	if dDesc < dAnc {
		return false
	}
	return desc>>(dDesc-dAnc) == anc
}

// LeafCount returns the number of leaves of a height-h tree (2^h), along
// with the vertex numbers of the first and last leaf.
func LeafCount(h uint8) (count uint32, first uint32, last uint32) {
	first = uint32(1) << h
	count = first
	last = first + count - 1
	return count, first, last
}

// BitmapSize returns the number of octets in a height-h leaf bitmap.
func BitmapSize(h uint8) int {
	return 1 << (h - 3)
}

func bitSet(buf []byte, i uint32) bool {
	return buf[i/8]&(1<<(i%8)) != 0
}

func setBit(buf []byte, i uint32) {
	buf[i/8] |= 1 << (i % 8)
}

// CountBits reports the population count of a leaf bitmap and the 0-based,
// LSB-first indices of its first and last set bits. If the bitmap has no
// set bits, first and last are both -1.
func CountBits(buf []byte) (count int, first int, last int) {
	first, last = -1, -1
	for i := 0; i < len(buf)*8; i++ {
		if bitSet(buf, uint32(i)) {
			if first == -1 {
				first = i
			}
			last = i
			count++
		}
	}
	return count, first, last
}

// FirstLeaf returns the smallest leaf vertex number in [lo, hi] whose bit is
// set in buf (a height-h leaf bitmap), and whether one was found.
func FirstLeaf(buf []byte, h uint8, lo, hi uint32) (uint32, bool) {
	first := uint32(1) << h
	for v := lo; v <= hi; v++ {
		if bitSet(buf, v-first) {
			return v, true
		}
	}
	return 0, false
}

// SetLegalLeaves sets, in buf (a height-h leaf bitmap), the bit for every
// leaf in S_{a,b}: the leaves descending from a but not from b. The special
// case a = b = 0 marks every leaf legal. The function only sets bits; it
// never clears any — callers control clearing.
func SetLegalLeaves(buf []byte, h uint8, a, b uint32) error {
	if !validHeight(h) {
		return ErrBadParam
	}
	first := uint32(1) << h
	count, _, _ := LeafCount(h)
	last := first + count - 1

	if a == 0 && b == 0 {
		for v := first; v <= last; v++ {
			setBit(buf, v-first)
		}
		return nil
	}
	if a == 0 || Depth(a) >= h || !IsDescendant(a, b) || b == a {
		return ErrBadParam
	}
	for v := first; v <= last; v++ {
		if IsDescendant(a, v) && !IsDescendant(b, v) {
			setBit(buf, v-first)
		}
	}
	return nil
}

// CheckLeaf reports whether leaf c is a member of S_{a,b} for a height-h
// tree. a = b = 0 always reports true (every leaf is legal).
func CheckLeaf(h uint8, a, b, c uint32) (bool, error) {
	if !validHeight(h) {
		return false, ErrBadParam
	}
	first := uint32(1) << h
	last := first + first - 1
	if c < first || c > last {
		return false, ErrBadParam
	}
	if a == 0 && b == 0 {
		return true, nil
	}
	if a == 0 || Depth(a) >= h || !IsDescendant(a, b) || b == a {
		return false, ErrBadParam
	}
	return IsDescendant(a, c) && !IsDescendant(b, c), nil
}

// CreateIDsCover reduces a height-h revoked-leaf bitmap to a Subset-
// Difference cover: a list of pairs (a_i, b_i) whose legal-leaf sets
// S_{a_i,b_i} partition exactly the non-revoked leaves. If no leaf is
// revoked, the single pair (0, 0) is returned, meaning "every leaf legal".
//
// After one scan of the whole 2^h-bit bitmap to collect the revoked leaves,
// the reduction walks only the Steiner tree spanning them (every revoked
// leaf's ancestor chain to the root), O(r·h) vertices. At every branching
// vertex of that Steiner tree it either propagates a single pending
// descendant upward unresolved, or — once both children carry a pending
// descendant — emits one cover pair per child branch whose pending vertex
// is not the child itself, and collapses the branch to the vertex itself. The root terminates the walk: a lone pending descendant there
// yields one final pair against the root, a double-pending branch there
// emits its pair(s) and nothing further is needed.
func CreateIDsCover(h uint8, revoked []byte) ([]Pair, error) {
	if !validHeight(h) {
		return nil, ErrBadParam
	}
	if len(revoked) != BitmapSize(h) {
		return nil, ErrBadParam
	}

	first := uint32(1) << h
	count, _, _ := LeafCount(h)
	last := first + count - 1

	var revokedLeaves []uint32
	for v := first; v <= last; v++ {
		if bitSet(revoked, v-first) {
			revokedLeaves = append(revokedLeaves, v)
		}
	}
	if len(revokedLeaves) == 0 {
		return []Pair{{0, 0}}, nil
	}

	steiner := make(map[uint32]bool, len(revokedLeaves)*int(h))
	for _, leaf := range revokedLeaves {
		for v := leaf; v >= 1; v >>= 1 {
			if steiner[v] {
				break
			}
			steiner[v] = true
			if v == 1 {
				break
			}
		}
	}
	isRevoked := make(map[uint32]bool, len(revokedLeaves))
	for _, leaf := range revokedLeaves {
		isRevoked[leaf] = true
	}

	var pairs []Pair
	var resolve func(v uint32) uint32
	resolve = func(v uint32) uint32 {
		if Depth(v) == h {
			if isRevoked[v] {
				return v
			}
			return 0
		}
		left, right := 2*v, 2*v+1
		var lp, rp uint32
		if steiner[left] {
			lp = resolve(left)
		}
		if steiner[right] {
			rp = resolve(right)
		}
		switch {
		case lp == 0 && rp == 0:
			return 0
		case lp == 0:
			if v == 1 {
				pairs = append(pairs, Pair{1, rp})
				return 0
			}
			return rp
		case rp == 0:
			if v == 1 {
				pairs = append(pairs, Pair{1, lp})
				return 0
			}
			return lp
		default:
			if lp != left {
				pairs = append(pairs, Pair{left, lp})
			}
			if rp != right {
				pairs = append(pairs, Pair{right, rp})
			}
			if v == 1 {
				return 0
			}
			return v
		}
	}
	resolve(1)
	return pairs, nil
}
