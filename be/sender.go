// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be

import (
	"github.com/luxfi/bee2go/belt"
	"github.com/luxfi/bee2go/sdtree"
	"github.com/luxfi/bee2go/zeroize"
)

// FormBMsgX builds the X1 header for a revoked-leaf bitmap: the cover
// count d followed by d little-endian (a,b) pairs, every field sizeP(h)
// octets wide. A nil out performs the sizing call only, returning an upper
// bound on the header size (the cover is not built yet); the real call
// returns the exact number of octets written. Revoking every leaf is
// rejected: an empty cover has no wire encoding.
func FormBMsgX(h uint8, revoked []byte, out []byte) (int, error) {
	if !validHeight(h) || len(revoked) != sdtree.BitmapSize(h) {
		return 0, ErrBadParam
	}
	sp := sizeP(h)

	if out == nil {
		r, _, _ := sdtree.CountBits(revoked)
		return sp + 2*countCover(r)*sp, nil
	}

	pairs, err := sdtree.CreateIDsCover(h, revoked)
	if err != nil {
		return 0, ErrBadParam
	}
	if len(pairs) == 0 {
		return 0, ErrBadParam
	}
	size := sp + 2*len(pairs)*sp
	if len(out) < size {
		return 0, ErrBadParam
	}
	putVertex(out[:sp], uint32(len(pairs)))
	off := sp
	for _, p := range pairs {
		putVertex(out[off:off+sp], p.A)
		off += sp
		putVertex(out[off:off+sp], p.B)
		off += sp
	}
	logger.Debug("formed broadcast header", "height", h, "cover", len(pairs), "size", size)
	return size, nil
}

// FormBMsgXAlloc is the allocating convenience form of FormBMsgX. The
// returned slice is trimmed to the exact header size.
func FormBMsgXAlloc(h uint8, revoked []byte) ([]byte, error) {
	bound, err := FormBMsgX(h, revoked, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, bound)
	size, err := FormBMsgX(h, revoked, out)
	if err != nil {
		return nil, err
	}
	return out[:size], nil
}

// deriveCoverKey walks the key-derivation chain for one cover pair (a,b):
// seed from the master key diversified by a, one step per edge of the
// unique a-to-b path (header 1 left, 2 right), then one snip-off step with
// header 0. The result, depth(b)-depth(a)+2 applications of KRP, lands in
// dst. The (0,0) pair uses the shared-key chain instead: master to the
// intermediate, intermediate to C(0,0), one snip-off step.
func deriveCoverKey(dst []byte, master []byte, a, b uint32, cipher belt.Cipher) error {
	if a == 0 && b == 0 {
		if err := cipher.KRP(dst, master, belt.Level{}, belt.Header{}); err != nil {
			return err
		}
		if err := cipher.KRP(dst, dst, belt.Level{1}, belt.Header{}); err != nil {
			return err
		}
		return cipher.KRP(dst, dst, belt.Level{2}, belt.Header{})
	}

	if err := cipher.KRP(dst, master, belt.Level{}, belt.Header{a}); err != nil {
		return err
	}
	steps := int(sdtree.Depth(b)-sdtree.Depth(a)) + 1
	path := make([]uint32, steps)
	defer zeroize.WipeUint32(path)
	path[steps-1] = b
	for i := steps - 1; i >= 1; i-- {
		path[i-1] = path[i] / 2
	}
	for i := 1; i < steps; i++ {
		hdr := belt.Header{2}
		if path[i] == 2*path[i-1] {
			hdr = belt.Header{1}
		}
		if err := cipher.KRP(dst, dst, belt.Level{uint32(i)}, hdr); err != nil {
			return err
		}
	}
	return cipher.KRP(dst, dst, belt.Level{uint32(steps)}, belt.Header{})
}

// FormEMsgX builds the concatenation X2..X(d+2): an 8-octet CBC-MAC of the
// X1 header under the session key, then one ECB-encrypted copy of the
// session key per cover entry, each under that entry's derived cover key.
// bx must be a header produced by FormBMsgX. A nil out performs the sizing
// call only; the cover count is read from bx, so the size is exact.
func FormEMsgX(h uint8, level int, master, sessionKey []byte, cipher belt.Cipher, bx []byte, out []byte) (int, error) {
	if !validHeight(h) || !validLevel(level) || bx == nil {
		return 0, ErrBadParam
	}
	sp := sizeP(h)
	keySize := level / 8
	if len(bx) < sp {
		return 0, ErrBadFormat
	}
	d := int(getVertex(bx[:sp]))
	n := 1 << h
	if d == 0 || d > 2*n-4 {
		return 0, ErrBadFormat
	}
	if len(bx) != sp+2*d*sp {
		return 0, ErrBadFormat
	}
	size := tagSize + d*keySize
	if out == nil {
		return size, nil
	}
	if cipher == nil || len(master) != keySize || len(sessionKey) != keySize || len(out) < size {
		return 0, ErrBadParam
	}

	if err := cipher.MAC(out[:tagSize], bx, sessionKey); err != nil {
		return 0, err
	}

	dk := make([]byte, keySize)
	defer zeroize.Wipe(dk)

	off := sp
	outOff := tagSize
	for t := 0; t < d; t++ {
		a := getVertex(bx[off : off+sp])
		off += sp
		b := getVertex(bx[off : off+sp])
		off += sp
		if a == 0 && b == 0 {
			if d != 1 {
				zeroize.Wipe(out[:size])
				return 0, ErrBadFormat
			}
		} else if a == 0 || a == b || !sdtree.IsDescendant(a, b) {
			zeroize.Wipe(out[:size])
			return 0, ErrBadFormat
		}
		if err := deriveCoverKey(dk, master, a, b, cipher); err != nil {
			zeroize.Wipe(out[:size])
			return 0, err
		}
		if err := cipher.ECBEncrypt(out[outOff:outOff+keySize], sessionKey, dk); err != nil {
			zeroize.Wipe(out[:size])
			return 0, err
		}
		outOff += keySize
	}
	return size, nil
}

// FormEMsgXAlloc is the allocating convenience form of FormEMsgX.
func FormEMsgXAlloc(h uint8, level int, master, sessionKey []byte, cipher belt.Cipher, bx []byte) ([]byte, error) {
	size, err := FormEMsgX(h, level, master, sessionKey, cipher, bx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := FormEMsgX(h, level, master, sessionKey, cipher, bx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FormAMsgY wraps the payload: the 16-octet synchronization vector T,
// then the DWP ciphertext of the plaintext under the session key, then
// the 8-octet DWP tag. A nil out performs the sizing call only.
func FormAMsgY(level int, sessionKey, nonce, plaintext []byte, cipher belt.Cipher, out []byte) (int, error) {
	if !validLevel(level) || len(plaintext) == 0 {
		return 0, ErrBadParam
	}
	size := ivSize + len(plaintext) + tagSize
	if out == nil {
		return size, nil
	}
	keySize := level / 8
	if cipher == nil || len(sessionKey) != keySize || len(nonce) != ivSize || len(out) < size {
		return 0, ErrBadParam
	}
	var iv [16]byte
	copy(iv[:], nonce)
	copy(out[:ivSize], nonce)
	ct := out[ivSize : ivSize+len(plaintext)]
	tag := out[ivSize+len(plaintext) : size]
	if err := cipher.DWPWrap(ct, tag, plaintext, nil, sessionKey, iv); err != nil {
		zeroize.Wipe(out[:size])
		return 0, ErrInternal
	}
	return size, nil
}

// FormAMsgYAlloc is the allocating convenience form of FormAMsgY.
func FormAMsgYAlloc(level int, sessionKey, nonce, plaintext []byte, cipher belt.Cipher) ([]byte, error) {
	size, err := FormAMsgY(level, sessionKey, nonce, plaintext, cipher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := FormAMsgY(level, sessionKey, nonce, plaintext, cipher, out); err != nil {
		return nil, err
	}
	return out, nil
}
