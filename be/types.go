// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package be implements the broadcast-encryption key schedule and header
// codec: deriving a per-vertex key table from a server master key,
// selecting a user's key subset, and forming/analyzing the sender and
// receiver halves of a broadcast header. Cover construction comes from
// sdtree; every cryptographic operation on key material goes through the
// external belt.Cipher collaborator. The bash hash is not consumed here —
// it is what a caller may use upstream to derive the master key.
package be

import (
	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"
)

// AKey is one entry of the server's per-vertex key table: the derived key
// for legal-leaf set S_{A,B}.
type AKey struct {
	A, B uint32
	Key  []byte
}

// UserKey is one entry of a receiver's key subset: the same (A,B,Key) shape
// as AKey, restricted to the keys one user's leaf entitles it to hold.
type UserKey struct {
	A, B uint32
	Key  []byte
}

var logger = log.NewTestLogger(level.Info)
