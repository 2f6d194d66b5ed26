// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bash

import "math/bits"

// sLayer applies the bash S-box to one (X,Y,Z) triple of 4-lane groups,
// following the reference macro step order exactly:
//
//	T = rotl(X, m1)
//	U = X ^ Y ^ Z
//	V = Y ^ rotl(U, n1)
//	W = (Z ^ rotl(Z, m2)) ^ rotl(V, n2)
//	X' = U ^ (^W | (V^T))
//	Y' = (V^T) ^ (U | W)
//	Z' = W ^ (U & (V^T))
func sLayer(x, y, z [4]uint64, rot rotTuple) (nx, ny, nz [4]uint64) {
	for k := 0; k < 4; k++ {
		t := bits.RotateLeft64(x[k], int(rot.m1[k]))
		u := x[k] ^ y[k] ^ z[k]
		v := y[k] ^ bits.RotateLeft64(u, int(rot.n1[k]))
		w := (z[k] ^ bits.RotateLeft64(z[k], int(rot.m2[k]))) ^ bits.RotateLeft64(v, int(rot.n2[k]))
		vt := v ^ t
		notW := ^w

		nx[k] = u ^ (notW | vt)
		ny[k] = vt ^ (u | w)
		nz[k] = w ^ (u & vt)
	}
	return nx, ny, nz
}

// pLayer applies the fixed 24-lane permutation described by pLayerSrc to a
// set of six 4-lane groups.
func pLayer(groups [6][4]uint64) [6][4]uint64 {
	var lanes, out [24]uint64
	for g := 0; g < 6; g++ {
		for l := 0; l < 4; l++ {
			lanes[g*4+l] = groups[g][l]
		}
	}
	for d := 0; d < 24; d++ {
		out[d] = lanes[pLayerSrc[d]]
	}
	var result [6][4]uint64
	for g := 0; g < 6; g++ {
		for l := 0; l < 4; l++ {
			result[g][l] = out[g*4+l]
		}
	}
	return result
}

// round applies one full bash round (S-layer on both triples, P-layer,
// round-constant injection into lane S23) to a set of six groups.
func round(groups [6][4]uint64, constant uint64) [6][4]uint64 {
	groups[0], groups[2], groups[4] = sLayer(groups[0], groups[2], groups[4], tripleRot[0])
	groups[1], groups[3], groups[5] = sLayer(groups[1], groups[3], groups[5], tripleRot[1])
	groups = pLayer(groups)
	groups[5][3] ^= constant
	return groups
}

// vectorPermuter operates on the state as six 4-lane groups, mirroring the
// reference's AVX2 register layout (W0..W5) and applying both S-layer
// triples and the P-layer as whole-group operations.
type vectorPermuter struct{}

func (vectorPermuter) Permute(state *[StateBytes]byte) {
	groups := loadGroups(state)
	for r := 0; r < 24; r++ {
		groups = round(groups, roundConstants[r])
	}
	storeGroups(state, groups)
}

// scalarPermuter operates on the state as a flat 24-lane array, extracting
// each S-layer triple's 4-lane slices by index before calling the shared
// round arithmetic. It is provided as a portable fallback that does not
// assume any particular register grouping of the underlying hardware.
type scalarPermuter struct{}

func (scalarPermuter) Permute(state *[StateBytes]byte) {
	lanes := loadLanes(state)
	for r := 0; r < 24; r++ {
		var groups [6][4]uint64
		for g := 0; g < 6; g++ {
			for l := 0; l < 4; l++ {
				groups[g][l] = lanes[g*4+l]
			}
		}
		groups = round(groups, roundConstants[r])
		for g := 0; g < 6; g++ {
			for l := 0; l < 4; l++ {
				lanes[g*4+l] = groups[g][l]
			}
		}
	}
	storeLanes(state, lanes)
}
