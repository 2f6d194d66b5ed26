// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package belt declares the external block-cipher collaborator contract
// (STB 34.101.31, "belt") consumed by the broadcast-encryption core. The
// core treats belt purely as a black box: it never implements ECB, CBC-MAC,
// the key-replication primitive, or the authenticated data-wrap mode —
// every operation on session and derived keys goes through this interface.
package belt

import "errors"

// ErrAuth is returned (directly or wrapped) by DWPUnwrap implementations
// when the authentication tag does not match. Callers distinguish it from
// operational failures to map it onto their own integrity error.
var ErrAuth = errors.New("belt: authentication failed")

// BlockSize is the belt block length in octets, fixed by the standard.
const BlockSize = 16

// TagSize is the length in octets of a belt CBC-MAC tag as consumed by the
// header codec.
const TagSize = 8

// Level carries the three 32-bit words of a KRP diversification level.
type Level [3]uint32

// Header carries the four 32-bit words of a KRP diversification header.
type Header [4]uint32

// Cipher is the external belt collaborator. Implementations are expected
// to validate key lengths (16, 24, or 32 octets) and return an error for
// any other length; this package does not constrain key length itself.
type Cipher interface {
	// ECBEncrypt encrypts src into dst under key. len(src) must be at
	// least BlockSize; a ragged tail is handled by the implementation
	// (belt ECB absorbs it with ciphertext stealing).
	ECBEncrypt(dst, src []byte, key []byte) error
	// ECBDecrypt decrypts src into dst under key, inverting ECBEncrypt.
	ECBDecrypt(dst, src []byte, key []byte) error
	// MAC writes an 8-octet CBC-MAC of src under key into dst.
	MAC(dst []byte, src []byte, key []byte) error
	// KRP derives a key of len(dst) octets from key, diversified by level
	// and header, writing the result into dst. dst and key may alias;
	// implementations must read key in full before writing dst.
	KRP(dst []byte, key []byte, level Level, header Header) error
	// DWPWrap authenticated-encrypts pt under key and iv, associating aad,
	// writing ciphertext to ct (len(ct) == len(pt)) and an 8-octet tag to tag.
	DWPWrap(ct, tag, pt []byte, aad []byte, key []byte, iv [16]byte) error
	// DWPUnwrap authenticated-decrypts ct under key, iv and aad, verifying
	// tag, writing plaintext to pt (len(pt) == len(ct)).
	DWPUnwrap(pt, ct []byte, aad []byte, tag []byte, key []byte, iv [16]byte) error
}
