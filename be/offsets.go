// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be

import (
	"github.com/luxfi/bee2go/sdtree"
)

// tagSize is the length in octets of the X2 integrity tag (belt CBC-MAC).
const tagSize = 8

// ivSize is the length in octets of the payload synchronization vector T.
const ivSize = 16

// offsetAKey[h-3][d] is the start index, within the dense per-vertex key
// table for a height-h tree, of the band holding the keys C(a,·) for every
// vertex a at depth d. Index 0 of the table is always the shared key
// C(0,0), so offsetAKey[h-3][0] == 1, and offsetAKey[h-3][h] is the total
// entry count. The band for depth d holds, layer by layer, one key per
// proper descendant of each depth-d vertex:
//
//	offsetAKey[h-3][d+1] = offsetAKey[h-3][d] + 2^d * (2^(h-d+1) - 2)
//
// Within a band the keys are addressed purely by the descendant number x:
// C(a,x) sits at offsetAKey[h-3][depth(a)] + x - 2^(depth(a)+1).
var offsetAKey [sdtree.MaxHeight - sdtree.MinHeight + 1][sdtree.MaxHeight + 1]uint32

func init() {
	for h := sdtree.MinHeight; h <= sdtree.MaxHeight; h++ {
		offsetAKey[h-3][0] = 1
		for d := 0; d < h; d++ {
			offsetAKey[h-3][d+1] = offsetAKey[h-3][d] + uint32(1<<d)*uint32(1<<(h-d+1)-2)
		}
	}
}

// aKeyIndex returns the index of C(a,x) in the dense key table, where x is
// a proper descendant of the depth-da vertex a.
func aKeyIndex(h, da uint8, x uint32) int {
	return int(offsetAKey[h-3][da]) + int(x) - int(uint32(1)<<(da+1))
}

// AKeysCount returns the number of entries in the per-vertex key table for
// a height-h tree.
func AKeysCount(h uint8) int {
	return int(offsetAKey[h-3][h])
}

// UserKeysCount returns the number of keys a single user holds for a
// height-h tree: h(h+1)/2 + 1.
func UserKeysCount(h uint8) int {
	return int(h)*int(h+1)/2 + 1
}

// sizeP returns the octet width of one encoded vertex number in the X1
// header of a height-h tree: ceil((h+1)/8). The cover-count field d uses
// the same width.
func sizeP(h uint8) int {
	return (int(h) + 1 + 7) / 8
}

// countCover bounds the cover size for r revoked leaves: 2r-1 pairs, and a
// single pair when nothing is revoked.
func countCover(r int) int {
	if r == 0 {
		return 1
	}
	return 2*r - 1
}

// putVertex writes v little-endian into buf, whose length fixes the field
// width.
func putVertex(buf []byte, v uint32) {
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
}

// getVertex reads a little-endian vertex number from buf, whose length
// fixes the field width.
func getVertex(buf []byte) uint32 {
	var v uint32
	for i := range buf {
		v |= uint32(buf[i]) << (8 * i)
	}
	return v
}

func validLevel(level int) bool {
	return level == 128 || level == 192 || level == 256
}

func validHeight(h uint8) bool {
	return h >= sdtree.MinHeight && h <= sdtree.MaxHeight
}
