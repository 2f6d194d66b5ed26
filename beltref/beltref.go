// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package beltref is a test-only stand-in for the belt block-cipher family
// (STB 34.101.31). No repository in the retrieval pack implements BelT
// itself, and the broadcast-encryption core never depends on this package
// directly — it is wired only from be's tests, through the belt.Cipher
// interface, so the core's own tests can exercise real round-trips without
// reimplementing a national-standard cipher from scratch.
package beltref

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/luxfi/bee2go/belt"
	"golang.org/x/crypto/hkdf"
)

// ErrBadKeyLength is returned when a caller supplies a key whose length is
// not 16, 24, or 32 octets.
var ErrBadKeyLength = errors.New("beltref: key length must be 16, 24, or 32 octets")

// ErrBadBlockLength is returned when an ECB operation is given a source
// shorter than belt.BlockSize or a destination of a different length, and
// when a MAC or DWP call gets a tag buffer that is not belt.TagSize octets
// or DWP plaintext and ciphertext buffers of different lengths.
var ErrBadBlockLength = errors.New("beltref: bad buffer length")

// Cipher implements belt.Cipher using AES-ECB in place of belt's own block
// cipher, HMAC-SHA-256 truncated to belt.TagSize in place of the CBC-MAC,
// HKDF-Expand in place of the key-replication primitive, and AES-CTR
// followed by a truncated HMAC in place of DWP.
type Cipher struct{}

var _ belt.Cipher = Cipher{}

func checkKeyLength(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return ErrBadKeyLength
	}
}

// ECBEncrypt handles any length of at least one block. A ragged tail is
// absorbed with ciphertext stealing, as belt's own ECB does for the
// 24-octet keys a 192-bit session wraps: the last full block's ciphertext
// donates the padding for the tail block, and the two trade places on the
// wire.
func (Cipher) ECBEncrypt(dst, src []byte, key []byte) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	if len(src) < belt.BlockSize || len(dst) != len(src) {
		return ErrBadBlockLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	tail := len(src) % belt.BlockSize
	whole := len(src) - tail
	for off := 0; off+belt.BlockSize <= whole-tailSteal(tail); off += belt.BlockSize {
		block.Encrypt(dst[off:off+belt.BlockSize], src[off:off+belt.BlockSize])
	}
	if tail == 0 {
		return nil
	}
	last := whole - belt.BlockSize
	var stolen, final [belt.BlockSize]byte
	block.Encrypt(stolen[:], src[last:whole])
	copy(final[:tail], src[whole:])
	copy(final[tail:], stolen[tail:])
	block.Encrypt(dst[last:whole], final[:])
	copy(dst[whole:], stolen[:tail])
	return nil
}

// ECBDecrypt inverts ECBEncrypt, including the stolen-tail arrangement.
func (Cipher) ECBDecrypt(dst, src []byte, key []byte) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	if len(src) < belt.BlockSize || len(dst) != len(src) {
		return ErrBadBlockLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	tail := len(src) % belt.BlockSize
	whole := len(src) - tail
	for off := 0; off+belt.BlockSize <= whole-tailSteal(tail); off += belt.BlockSize {
		block.Decrypt(dst[off:off+belt.BlockSize], src[off:off+belt.BlockSize])
	}
	if tail == 0 {
		return nil
	}
	last := whole - belt.BlockSize
	var stolen, final [belt.BlockSize]byte
	block.Decrypt(final[:], src[last:whole])
	copy(stolen[:tail], src[whole:])
	copy(stolen[tail:], final[tail:])
	block.Decrypt(dst[last:whole], stolen[:])
	copy(dst[whole:], final[:tail])
	return nil
}

// tailSteal reports how many octets of the last full block are consumed by
// the stealing step: the whole block when a ragged tail exists, nothing
// otherwise.
func tailSteal(tail int) int {
	if tail != 0 {
		return belt.BlockSize
	}
	return 0
}

func (Cipher) MAC(dst []byte, src []byte, key []byte) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	if len(dst) != belt.TagSize {
		return ErrBadBlockLength
	}
	h := hmac.New(sha256.New, key)
	h.Write(src)
	copy(dst, h.Sum(nil)[:belt.TagSize])
	return nil
}

func (Cipher) KRP(dst []byte, key []byte, level belt.Level, header belt.Header) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	info := make([]byte, 28)
	for i, w := range level {
		binary.LittleEndian.PutUint32(info[i*4:], w)
	}
	for i, w := range header {
		binary.LittleEndian.PutUint32(info[12+i*4:], w)
	}
	r := hkdf.Expand(sha256.New, key, info)
	_, err := r.Read(dst)
	return err
}

func (c Cipher) DWPWrap(ct, tag, pt []byte, aad []byte, key []byte, iv [16]byte) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	if len(ct) != len(pt) || len(tag) != belt.TagSize {
		return ErrBadBlockLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	stream := cipher.NewCTR(block, iv[:])
	stream.XORKeyStream(ct, pt)

	mac := hmac.New(sha256.New, key)
	mac.Write(aad)
	mac.Write(iv[:])
	mac.Write(ct)
	copy(tag, mac.Sum(nil)[:belt.TagSize])
	return nil
}

func (c Cipher) DWPUnwrap(pt, ct []byte, aad []byte, tag []byte, key []byte, iv [16]byte) error {
	if err := checkKeyLength(key); err != nil {
		return err
	}
	if len(pt) != len(ct) || len(tag) != belt.TagSize {
		return ErrBadBlockLength
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(aad)
	mac.Write(iv[:])
	mac.Write(ct)
	expected := mac.Sum(nil)[:belt.TagSize]
	if !hmac.Equal(expected, tag) {
		return belt.ErrAuth
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	stream := cipher.NewCTR(block, iv[:])
	stream.XORKeyStream(pt, ct)
	return nil
}
