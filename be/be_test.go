// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bee2go/be"
	"github.com/luxfi/bee2go/beltref"
	"github.com/luxfi/bee2go/sdtree"
)

var cipher = beltref.Cipher{}

func TestAKeysCountMatchesOffsetRecurrence(t *testing.T) {
	// Hand-checked totals for the smallest heights: 1 shared key plus one
	// key per (internal vertex, proper descendant) pair.
	require.Equal(t, 35, be.AKeysCount(3))
	require.Equal(t, 99, be.AKeysCount(4))
	require.Equal(t, 259, be.AKeysCount(5))
}

func TestUserKeysCount(t *testing.T) {
	require.Equal(t, 7, be.UserKeysCount(3))
	require.Equal(t, 11, be.UserKeysCount(4))
	require.Equal(t, 326, be.UserKeysCount(25))
}

func TestGenUsersKeysSizingAndShape(t *testing.T) {
	master := bytes.Repeat([]byte{0xAA}, 32)

	count, err := be.GenUsersKeys(3, 256, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 35, count)

	aKeys, err := be.GenUsersKeysAlloc(3, 256, master, cipher)
	require.NoError(t, err)
	require.Len(t, aKeys, 35)

	require.EqualValues(t, 0, aKeys[0].A)
	require.EqualValues(t, 0, aKeys[0].B)
	for i, k := range aKeys {
		require.Len(t, k.Key, 32, "entry %d", i)
		if i == 0 {
			continue
		}
		require.NotZero(t, k.A, "entry %d", i)
		require.True(t, sdtree.IsDescendant(k.A, k.B), "entry %d: %d not under %d", i, k.B, k.A)
		require.NotEqual(t, k.A, k.B, "entry %d", i)
	}
}

func TestGenUsersKeysRejectsBadParams(t *testing.T) {
	master := bytes.Repeat([]byte{0xAA}, 32)
	out := make([]be.AKey, be.AKeysCount(3))

	_, err := be.GenUsersKeys(2, 256, master, cipher, out)
	require.ErrorIs(t, err, be.ErrBadParam)

	_, err = be.GenUsersKeys(3, 100, master, cipher, out)
	require.ErrorIs(t, err, be.ErrBadParam)

	_, err = be.GenUsersKeys(3, 256, master[:16], cipher, out)
	require.ErrorIs(t, err, be.ErrBadParam)

	_, err = be.GenUsersKeys(3, 256, master, cipher, out[:10])
	require.ErrorIs(t, err, be.ErrBadParam)
}

func TestGetUserKeysSubsetStructure(t *testing.T) {
	h := uint8(3)
	master := bytes.Repeat([]byte{0xAA}, 32)
	aKeys, err := be.GenUsersKeysAlloc(h, 256, master, cipher)
	require.NoError(t, err)

	for user := uint32(1); user <= 8; user++ {
		uKeys, err := be.GetUserKeysAlloc(h, 256, user, aKeys)
		require.NoError(t, err)
		require.Len(t, uKeys, be.UserKeysCount(h))

		require.EqualValues(t, 0, uKeys[0].A)
		require.EqualValues(t, 0, uKeys[0].B)
		require.Equal(t, aKeys[0].Key, uKeys[0].Key)

		leaf := user + 7
		for _, k := range uKeys[1:] {
			// Every subset key hangs a sibling off the leaf's root path:
			// the ancestor admits the leaf, the excluded vertex does not.
			require.True(t, sdtree.IsDescendant(k.A, leaf))
			require.False(t, sdtree.IsDescendant(k.B, leaf))
			require.True(t, sdtree.IsDescendant(k.A, k.B))
		}
	}
}

func TestGetUserKeysMatchesTable(t *testing.T) {
	h := uint8(3)
	master := bytes.Repeat([]byte{0x07}, 32)
	aKeys, err := be.GenUsersKeysAlloc(h, 256, master, cipher)
	require.NoError(t, err)
	uKeys, err := be.GetUserKeysAlloc(h, 256, 1, aKeys)
	require.NoError(t, err)

	// Each subset entry must be a verbatim copy of the table entry with
	// the same (a,b).
	for _, uk := range uKeys {
		var found bool
		for _, ak := range aKeys {
			if ak.A == uk.A && ak.B == uk.B {
				require.Equal(t, ak.Key, uk.Key)
				found = true
				break
			}
		}
		require.True(t, found, "subset key (%d,%d) missing from table", uk.A, uk.B)
	}
}

func TestFormBMsgXSizingIsUpperBound(t *testing.T) {
	h := uint8(4)
	scenarios := [][]byte{
		{0x00, 0x00},
		{0x01, 0x00},
		{0b11111110, 0b01111111},
		{0b10101010, 0b01010101},
	}
	for _, revoked := range scenarios {
		bound, err := be.FormBMsgX(h, revoked, nil)
		require.NoError(t, err)
		out := make([]byte, bound)
		size, err := be.FormBMsgX(h, revoked, out)
		require.NoError(t, err)
		require.LessOrEqual(t, size, bound)
	}
}

func TestFormBMsgXNoRevocationEncodesSinglePair(t *testing.T) {
	h := uint8(4)
	bx, err := be.FormBMsgXAlloc(h, make([]byte, sdtree.BitmapSize(h)))
	require.NoError(t, err)
	// d=1 then the pair (0,0), one octet per field at this height.
	require.Equal(t, []byte{1, 0, 0}, bx)
}

func TestFormBMsgXRejectsAllRevoked(t *testing.T) {
	h := uint8(3)
	revoked := []byte{0xff}
	_, err := be.FormBMsgXAlloc(h, revoked)
	require.ErrorIs(t, err, be.ErrBadParam)
}

func TestFormEMsgXSizingMatchesRealCall(t *testing.T) {
	h := uint8(4)
	master := bytes.Repeat([]byte{0xAA}, 32)
	sessionKey := bytes.Repeat([]byte{0xBB}, 32)
	revoked := []byte{0b00000110, 0}

	bx, err := be.FormBMsgXAlloc(h, revoked)
	require.NoError(t, err)

	size, err := be.FormEMsgX(h, 256, nil, nil, nil, bx, nil)
	require.NoError(t, err)
	out := make([]byte, size)
	written, err := be.FormEMsgX(h, 256, master, sessionKey, cipher, bx, out)
	require.NoError(t, err)
	require.Equal(t, size, written)
}

// roundTrip forms a full broadcast for the given revoked bitmap and decodes
// it as every user, asserting plaintext recovery for legal users and
// ErrRevoked for revoked ones. Returns the number of successful decodes.
func roundTrip(t *testing.T, h uint8, level int, revoked []byte) int {
	t.Helper()
	keySize := level / 8
	master := bytes.Repeat([]byte{0xAA}, keySize)
	sessionKey := bytes.Repeat([]byte{0xBB}, keySize)
	nonce := bytes.Repeat([]byte{0xDD}, 16)
	msg := bytes.Repeat([]byte{0xEE}, 5)

	aKeys, err := be.GenUsersKeysAlloc(h, level, master, cipher)
	require.NoError(t, err)
	defer be.WipeAKeys(aKeys)

	bx, err := be.FormBMsgXAlloc(h, revoked)
	require.NoError(t, err)
	ex, err := be.FormEMsgXAlloc(h, level, master, sessionKey, cipher, bx)
	require.NoError(t, err)
	ay, err := be.FormAMsgYAlloc(level, sessionKey, nonce, msg, cipher)
	require.NoError(t, err)

	n := uint32(1) << h
	decoded := 0
	for user := uint32(1); user <= n; user++ {
		uKeys, err := be.GetUserKeysAlloc(h, level, user, aKeys)
		require.NoError(t, err)

		op, err := be.AnalyzBMsgX(h, level, user, uKeys, cipher, bx)
		if revoked[(user-1)/8]&(1<<((user-1)%8)) != 0 {
			require.ErrorIs(t, err, be.ErrRevoked, "user %d", user)
			be.WipeUserKeys(uKeys)
			continue
		}
		require.NoError(t, err, "user %d", user)
		require.Equal(t, len(bx), sizeOfHeader(h, op.D))

		gotKey, mac, err := be.AnalyzEMsgX(level, ex, op.D, op.E, op.DKey, cipher)
		require.NoError(t, err, "user %d", user)
		require.Equal(t, sessionKey, gotKey, "user %d recovered a different session key", user)

		require.NoError(t, be.CheckMsgX(h, level, bx, gotKey, mac, cipher), "user %d", user)

		pt, err := be.AnalyzAMsgYAlloc(level, gotKey, ay, cipher)
		require.NoError(t, err, "user %d", user)
		require.Equal(t, msg, pt, "user %d", user)

		be.WipeUserKeys(uKeys)
		decoded++
	}
	return decoded
}

func sizeOfHeader(h uint8, d int) int {
	sp := (int(h) + 1 + 7) / 8
	return sp + 2*d*sp
}

// BE-RT-1: h=4, level 256, nothing revoked; every user decodes.
func TestBroadcastRoundTripNoRevocation(t *testing.T) {
	decoded := roundTrip(t, 4, 256, []byte{0x00, 0x00})
	require.Equal(t, 16, decoded)
}

// BE-RT-2: user 1 revoked; the other fifteen decode.
func TestBroadcastRoundTripOneRevoked(t *testing.T) {
	decoded := roundTrip(t, 4, 256, []byte{0b00000001, 0b00000000})
	require.Equal(t, 15, decoded)
}

// BE-RT-3: users 2..15 revoked; exactly users 1 and 16 decode.
func TestBroadcastRoundTripMostRevoked(t *testing.T) {
	decoded := roundTrip(t, 4, 256, []byte{0b11111110, 0b01111111})
	require.Equal(t, 2, decoded)
}

func TestBroadcastRoundTripLevel128(t *testing.T) {
	decoded := roundTrip(t, 3, 128, []byte{0b00010010})
	require.Equal(t, 6, decoded)
}

func TestBroadcastRoundTripLevel192(t *testing.T) {
	decoded := roundTrip(t, 3, 192, []byte{0b00000001})
	require.Equal(t, 7, decoded)
}

func TestCheckMsgXDetectsAnyFlippedHeaderBit(t *testing.T) {
	h := uint8(4)
	master := bytes.Repeat([]byte{0xAA}, 32)
	sessionKey := bytes.Repeat([]byte{0xBB}, 32)
	revoked := []byte{0b00000001, 0}

	bx, err := be.FormBMsgXAlloc(h, revoked)
	require.NoError(t, err)
	ex, err := be.FormEMsgXAlloc(h, 256, master, sessionKey, cipher, bx)
	require.NoError(t, err)
	mac := ex[:8]

	require.NoError(t, be.CheckMsgX(h, 256, bx, sessionKey, mac, cipher))

	for i := 0; i < len(bx)*8; i++ {
		tampered := append([]byte(nil), bx...)
		tampered[i/8] ^= 1 << (i % 8)
		err := be.CheckMsgX(h, 256, tampered, sessionKey, mac, cipher)
		require.ErrorIs(t, err, be.ErrBadMAC, "flipped bit %d went undetected", i)
	}
}

func TestAnalyzAMsgYDetectsTampering(t *testing.T) {
	sessionKey := bytes.Repeat([]byte{0xBB}, 32)
	nonce := bytes.Repeat([]byte{0xDD}, 16)
	msg := bytes.Repeat([]byte{0xEE}, 5)

	ay, err := be.FormAMsgYAlloc(256, sessionKey, nonce, msg, cipher)
	require.NoError(t, err)

	for _, i := range []int{0, 16, len(ay) - 1} {
		tampered := append([]byte(nil), ay...)
		tampered[i] ^= 0x01
		_, err := be.AnalyzAMsgYAlloc(256, sessionKey, tampered, cipher)
		require.ErrorIs(t, err, be.ErrBadMAC, "tampered octet %d went undetected", i)
	}
}

func TestAnalyzAMsgYSizing(t *testing.T) {
	sessionKey := bytes.Repeat([]byte{0xBB}, 32)
	nonce := bytes.Repeat([]byte{0xDD}, 16)
	msg := bytes.Repeat([]byte{0xEE}, 100)

	size, err := be.FormAMsgY(256, nil, nil, msg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 16+100+8, size)

	ay, err := be.FormAMsgYAlloc(256, sessionKey, nonce, msg, cipher)
	require.NoError(t, err)
	require.Len(t, ay, size)

	ptSize, err := be.AnalyzAMsgY(256, nil, ay, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 100, ptSize)
}

func TestAnalyzBMsgXRejectsMalformedHeaders(t *testing.T) {
	h := uint8(4)
	master := bytes.Repeat([]byte{0xAA}, 32)
	aKeys, err := be.GenUsersKeysAlloc(h, 256, master, cipher)
	require.NoError(t, err)
	uKeys, err := be.GetUserKeysAlloc(h, 256, 1, aKeys)
	require.NoError(t, err)

	// Zero cover count.
	_, err = be.AnalyzBMsgX(h, 256, 1, uKeys, cipher, []byte{0, 0, 0})
	require.ErrorIs(t, err, be.ErrBadFormat)

	// Declared size disagrees with the actual buffer.
	_, err = be.AnalyzBMsgX(h, 256, 1, uKeys, cipher, []byte{2, 0, 0})
	require.ErrorIs(t, err, be.ErrBadFormat)

	// Cover count beyond the format cap for this height.
	big := make([]byte, sizeOfHeader(h, 100))
	big[0] = 100
	_, err = be.AnalyzBMsgX(h, 256, 1, uKeys, cipher, big)
	require.ErrorIs(t, err, be.ErrBadFormat)

	// A pair whose b does not descend from a.
	bad := []byte{1, 9, 4}
	_, err = be.AnalyzBMsgX(h, 256, 1, uKeys, cipher, bad)
	require.ErrorIs(t, err, be.ErrBadFormat)
}

func TestAnalyzEMsgXRejectsBadShape(t *testing.T) {
	dKey := bytes.Repeat([]byte{0x11}, 32)
	ex := make([]byte, 8+2*32)

	_, _, err := be.AnalyzEMsgX(256, ex, 2, 0, dKey, cipher)
	require.ErrorIs(t, err, be.ErrBadParam)

	_, _, err = be.AnalyzEMsgX(256, ex, 2, 3, dKey, cipher)
	require.ErrorIs(t, err, be.ErrBadParam)

	_, _, err = be.AnalyzEMsgX(256, ex[:len(ex)-1], 2, 1, dKey, cipher)
	require.ErrorIs(t, err, be.ErrBadParam)
}

// The derived cover key must agree between sender and receiver for every
// legal user and every cover entry shape: direct subset hit, snip-off of a
// deep pair, and the no-revocation shared chain.
func TestKeyDerivationAgreement(t *testing.T) {
	h := uint8(5)
	level := 256
	master := bytes.Repeat([]byte{0x42}, 32)
	sessionKey := bytes.Repeat([]byte{0x24}, 32)

	aKeys, err := be.GenUsersKeysAlloc(h, level, master, cipher)
	require.NoError(t, err)

	scenarios := [][]byte{
		make([]byte, sdtree.BitmapSize(h)),     // r = 0
		{0x01, 0x00, 0x00, 0x00},               // one corner revoked
		{0x00, 0x10, 0x00, 0x80},               // scattered
		{0xfe, 0xff, 0x0f, 0x00},               // a whole region gone
	}
	for _, revoked := range scenarios {
		bx, err := be.FormBMsgXAlloc(h, revoked)
		require.NoError(t, err)
		ex, err := be.FormEMsgXAlloc(h, level, master, sessionKey, cipher, bx)
		require.NoError(t, err)

		for user := uint32(1); user <= 32; user++ {
			if revoked[(user-1)/8]&(1<<((user-1)%8)) != 0 {
				continue
			}
			uKeys, err := be.GetUserKeysAlloc(h, level, user, aKeys)
			require.NoError(t, err)
			op, err := be.AnalyzBMsgX(h, level, user, uKeys, cipher, bx)
			require.NoError(t, err, "user %d", user)
			gotKey, _, err := be.AnalyzEMsgX(level, ex, op.D, op.E, op.DKey, cipher)
			require.NoError(t, err)
			require.Equal(t, sessionKey, gotKey, "user %d, entry %d", user, op.E)
		}
	}
}
