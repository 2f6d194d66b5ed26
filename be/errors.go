// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be

import "errors"

// ErrBadParam covers malformed call shapes: a height outside [3,25], a bad
// security level, a size mismatch between a declared and an actual buffer.
var ErrBadParam = errors.New("be: malformed parameter")

// ErrBadFormat covers a well-shaped call whose parsed header violates an
// invariant: a cover count of zero, a declared size that disagrees with the
// actual buffer, or a cover entry outside the tree.
var ErrBadFormat = errors.New("be: malformed header")

// ErrBadMAC is returned when an integrity check over X1 fails.
var ErrBadMAC = errors.New("be: MAC verification failed")

// ErrRevoked is returned when a receiver's leaf is covered by no subset in
// the header.
var ErrRevoked = errors.New("be: leaf is revoked")

// ErrNotEnoughMemory completes the error taxonomy for allocation failure.
// No function in this package returns it: the entry points and their
// allocating wrappers allocate with make, which does not report failure
// as an error.
var ErrNotEnoughMemory = errors.New("be: not enough memory")

// ErrInternal guards an impossible state: the cover walk in AnalyzBMsgX
// exhausted every entry's matching U-key without finding one, despite
// CheckLeaf reporting the user's leaf as covered. This must never trigger
// on well-formed inputs; it exists for defense in depth.
var ErrInternal = errors.New("be: internal invariant violated")
