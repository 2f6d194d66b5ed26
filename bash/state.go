// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bash implements the bash sponge permutation and sponge-mode
// hashing construction (STB 34.101.77): a 1536-bit (192-octet) state
// permuted by a fixed 24-round function, wrapped in a sponge that supports
// streaming input (StepH), streaming output (StepG), and streaming output
// verification (StepV).
package bash

import "encoding/binary"

// StateBytes is the width of the bash permutation state in octets (1536 bits).
const StateBytes = 192

// LaneCount is the number of 64-bit lanes the state is divided into.
const LaneCount = 24

// Permuter applies the bash round function in place to a 192-octet buffer.
// Two implementations are provided: a flat-lane scalar permuter and a
// grouped-register vector permuter, mirroring the reference's choice between
// a portable scalar build and an AVX2 build operating on six 4-lane
// registers. Both compute the identical documented arithmetic and are
// therefore expected to agree bit-for-bit on every input.
type Permuter interface {
	Permute(state *[StateBytes]byte)
}

// DefaultPermuter is the permuter used by Hash and by new Contexts that do
// not specify one explicitly.
var DefaultPermuter Permuter = vectorPermuter{}

// loadLanes reads the 24 little-endian 64-bit lanes out of a state buffer.
func loadLanes(state *[StateBytes]byte) [LaneCount]uint64 {
	var lanes [LaneCount]uint64
	for i := 0; i < LaneCount; i++ {
		lanes[i] = binary.LittleEndian.Uint64(state[i*8 : i*8+8])
	}
	return lanes
}

// storeLanes writes 24 little-endian 64-bit lanes back into a state buffer.
func storeLanes(state *[StateBytes]byte, lanes [LaneCount]uint64) {
	for i := 0; i < LaneCount; i++ {
		binary.LittleEndian.PutUint64(state[i*8:i*8+8], lanes[i])
	}
}

// loadGroups reads the state as six 4-lane groups W0..W5, matching the
// reference's SIMD register layout (W0=S0..S3, W1=S4..S7, ..., W5=S20..S23).
func loadGroups(state *[StateBytes]byte) [6][4]uint64 {
	lanes := loadLanes(state)
	var groups [6][4]uint64
	for g := 0; g < 6; g++ {
		for l := 0; l < 4; l++ {
			groups[g][l] = lanes[g*4+l]
		}
	}
	return groups
}

// storeGroups writes six 4-lane groups back into a flat state buffer.
func storeGroups(state *[StateBytes]byte, groups [6][4]uint64) {
	var lanes [LaneCount]uint64
	for g := 0; g < 6; g++ {
		for l := 0; l < 4; l++ {
			lanes[g*4+l] = groups[g][l]
		}
	}
	storeLanes(state, lanes)
}
