// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bash

// roundConstants is the literal 24-entry round-constant table of the bash
// permutation, STB 34.101.77 constants C1..C24. Entries 10, 21 and 22 are
// 4-bit right shifts of entries 6, 17 and 18 and so print one hex digit
// shorter; that is the standard's own construction, not a transcription
// slip.
var roundConstants = [24]uint64{
	0x3bf5080ac8ba94b1,
	0xc1d1659c1bbd92f6,
	0x60e8b2ce0ddec97b,
	0xec5fb8fe790fbc13,
	0xaa043de6436706a7,
	0x8929ff6a5e535bfd,
	0x98bf1e2c50c97550,
	0x4c5f8f162864baa8,
	0x262fc78b14325d54,
	0x1317e3c58a192eaa,
	0x098bf1e2c50c9755,
	0xd8ee19681d669304,
	0x6c770cb40eb34982,
	0x363b865a0759a4c1,
	0xc73622b47c4c0ace,
	0x639b115a3e260567,
	0xede6693460f3da1d,
	0xaad8d5034f9935a0,
	0x556c6a81a7cc9ad0,
	0x2ab63540d3e64d68,
	0x155b1aa069f326b4,
	0x0aad8d5034f9935a,
	0x0556c6a81a7cc9ad,
	0xde8082cd72debc78,
}

// pLayerSrc[d] is the source lane feeding destination lane d of the fixed
// 24-lane P-layer permutation:
//
//	[S0..S7]   -> [S6,S3,S0,S5,S2,S7,S4,S1]
//	[S8..S15]  -> [S15,S10,S9,S12,S11,S14,S13,S8]
//	[S16..S23] -> [S17,S16,S19,S18,S21,S20,S23,S22]
var pLayerSrc = [24]int{
	6, 3, 0, 5, 2, 7, 4, 1,
	15, 10, 9, 12, 11, 14, 13, 8,
	17, 16, 19, 18, 21, 20, 23, 22,
}

// rotSeq generates the 8-element rotation-amount iterate starting at seed,
// using the recurrence f(x) = (7x) mod 64 the standard derives the S-layer
// rotations from.
func rotSeq(seed uint64) [8]uint64 {
	var s [8]uint64
	s[0] = seed
	for i := 1; i < 8; i++ {
		s[i] = (7 * s[i-1]) % 64
	}
	return s
}

var (
	m1Seq = rotSeq(8)
	n1Seq = rotSeq(53)
	m2Seq = rotSeq(14)
	n2Seq = rotSeq(1)
)

// rotTuple holds the four per-lane rotation amounts consumed by one
// S-layer triple (the m1/n1/m2/n2 tuples of the S-layer formula).
type rotTuple struct {
	m1, n1, m2, n2 [4]uint64
}

func tupleFromSlice(s [8]uint64, lo, hi int) [4]uint64 {
	var t [4]uint64
	copy(t[:], s[lo:hi])
	return t
}

// tripleRot holds the rotation tuples for the two parallel S-layer triples:
// (W0,W2,W4) consumes iterate slice 0..3, (W1,W3,W5) consumes slice 4..7.
var tripleRot = [2]rotTuple{
	{
		m1: tupleFromSlice(m1Seq, 0, 4),
		n1: tupleFromSlice(n1Seq, 0, 4),
		m2: tupleFromSlice(m2Seq, 0, 4),
		n2: tupleFromSlice(n2Seq, 0, 4),
	},
	{
		m1: tupleFromSlice(m1Seq, 4, 8),
		n1: tupleFromSlice(n1Seq, 4, 8),
		m2: tupleFromSlice(m2Seq, 4, 8),
		n2: tupleFromSlice(n2Seq, 4, 8),
	},
}
