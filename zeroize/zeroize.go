// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zeroize provides the secret-hygiene primitives shared by every
// package in this module that holds key material in a scratch buffer:
// a buffer wipe the compiler cannot optimize away, and a constant-time
// byte-slice comparison for MAC and hash verification.
package zeroize

import (
	"crypto/subtle"
	"runtime"
)

// Wipe overwrites every byte of buf with zero. It is marked noinline and
// keeps buf alive past the final write so the store cannot be eliminated
// as dead code by the compiler or by inlining into a caller that never
// reads buf again.
//
//go:noinline
func Wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// WipeAll wipes every buffer in bufs, in order. Convenience for the common
// case of several scratch buffers needing to be cleared on the same exit
// path (e.g. a KRP scratch key alongside a path-descent accumulator).
func WipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		Wipe(b)
	}
}

// WipeUint32 overwrites every element of buf with zero, with the same
// non-eliminable guarantee as Wipe. Used for scratch arrays of tree-path
// vertex numbers, which reveal a receiver's leaf position if left resident.
//
//go:noinline
func WipeUint32(buf []uint32) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// ConstantTimeEqual reports whether a and b hold the same bytes, taking
// time independent of where they first differ. Unequal lengths are
// reported as unequal without inspecting contents.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
