// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be

import (
	"errors"

	"github.com/luxfi/bee2go/belt"
	"github.com/luxfi/bee2go/sdtree"
	"github.com/luxfi/bee2go/zeroize"
)

// Opening is the result of a receiver's X1 analysis: the cover count D
// read from the header, the 1-based index E of the cover entry admitting
// this receiver, and the derived decryption key for the E-th wrapped
// session-key block. The caller owns DKey and must wipe it when done.
type Opening struct {
	D    int
	E    int
	DKey []byte
}

// AnalyzBMsgX parses the X1 header for user u (1-based) against the user's
// stored key subset. It scans the cover for an entry whose legal-leaf set
// contains u's leaf, locates the one subset key the user holds on that
// entry's derivation path, and finishes the sender's chain from there:
// one KRP step per remaining path edge, then the snip-off step with header
// 0. ErrRevoked is reported when no cover entry admits the leaf.
func AnalyzBMsgX(h uint8, level int, user uint32, uKeys []UserKey, cipher belt.Cipher, bx []byte) (*Opening, error) {
	if !validHeight(h) || !validLevel(level) || cipher == nil {
		return nil, ErrBadParam
	}
	n := uint32(1) << h
	if user == 0 || user > n {
		return nil, ErrBadParam
	}
	if len(uKeys) < UserKeysCount(h) {
		return nil, ErrBadParam
	}
	sp := sizeP(h)
	keySize := level / 8
	if len(bx) < sp {
		return nil, ErrBadFormat
	}
	d := int(getVertex(bx[:sp]))
	if d == 0 || d > 2*int(n)-4 {
		return nil, ErrBadFormat
	}
	if len(bx) != sp+2*d*sp {
		return nil, ErrBadFormat
	}
	leaf := user + n - 1

	// offsetUKey[i] is the index, within the user's subset, of the first
	// key whose ancestor is the leaf's depth-i ancestor. Index 0 is C(0,0).
	offsetUKey := make([]int, h+1)
	offsetUKey[0] = 1
	for j := uint8(0); j < h; j++ {
		offsetUKey[j+1] = offsetUKey[j] + int(h-j)
	}

	var (
		found  bool // some cover entry admits the leaf
		direct bool // the admitting entry is held verbatim in the subset
		e      int  // 0-based index of the admitting entry
		keyIdx int  // index of the starting subset key
		k      int  // level counter for the remaining KRP chain
		ea, eb uint32
	)
	off := sp
	for t := 0; t < d; t++ {
		a := getVertex(bx[off : off+sp])
		off += sp
		b := getVertex(bx[off : off+sp])
		off += sp
		if a == 0 && b == 0 {
			e, ea, eb = t, a, b
			keyIdx, k = 0, 2
			if uKeys[0].A != 0 || uKeys[0].B != 0 {
				return nil, ErrInternal
			}
			found, direct = true, true
			break
		}
		ok, err := sdtree.CheckLeaf(h, a, b, leaf)
		if err != nil {
			return nil, ErrBadFormat
		}
		if ok {
			e, ea, eb = t, a, b
			if b == 2*a || b == 2*a+1 {
				// b is a child of a: the user's subset holds C(a,b) itself.
				k = 2
				keyIdx = offsetUKey[sdtree.Depth(a)]
				if uKeys[keyIdx].A != a || uKeys[keyIdx].B != b {
					return nil, ErrInternal
				}
				direct = true
			}
			found = true
			break
		}
	}
	if !found {
		logger.Debug("receiver revoked", "height", h, "user", user, "cover", d)
		return nil, ErrRevoked
	}

	scratch := make([]byte, keySize)
	defer zeroize.Wipe(scratch)

	if direct {
		if len(uKeys[keyIdx].Key) != keySize {
			return nil, ErrBadParam
		}
		copy(scratch, uKeys[keyIdx].Key)
	} else {
		// The leaf's path from ea down, and the cover path from ea to eb.
		// The subset key the user holds is C(ea, x) for the first cover-path
		// vertex x hanging off the leaf path; the chain resumes below x.
		pathLen := int(sdtree.Depth(leaf)-sdtree.Depth(ea)) + 1
		path := make([]uint32, pathLen)
		defer zeroize.WipeUint32(path)
		path[pathLen-1] = leaf
		for t := pathLen - 1; t >= 1; t-- {
			path[t-1] = path[t] / 2
		}

		coverLen := int(sdtree.Depth(eb)-sdtree.Depth(ea)) + 1
		tau := make([]uint32, coverLen)
		defer zeroize.WipeUint32(tau)
		tau[coverLen-1] = eb

		resume := 0
		for t := coverLen - 1; t >= 1 && resume == 0; t-- {
			tau[t-1] = tau[t] / 2
			for j := 1; j < pathLen; j++ {
				if tau[t-1] == path[j-1] {
					da := int(sdtree.Depth(ea))
					db := int(sdtree.Depth(tau[t]))
					keyIdx = offsetUKey[da] + db - da - 1
					k = db - da + 1
					resume = t + 1
					break
				}
			}
		}
		if resume == 0 {
			return nil, ErrInternal
		}
		if len(uKeys[keyIdx].Key) != keySize {
			return nil, ErrBadParam
		}
		copy(scratch, uKeys[keyIdx].Key)
		for t := resume; t < coverLen; t++ {
			hdr := belt.Header{2}
			if tau[t] == 2*tau[t-1] {
				hdr = belt.Header{1}
			}
			if err := cipher.KRP(scratch, scratch, belt.Level{uint32(k)}, hdr); err != nil {
				return nil, err
			}
			k++
		}
	}

	dKey := make([]byte, keySize)
	if err := cipher.KRP(dKey, scratch, belt.Level{uint32(k)}, belt.Header{}); err != nil {
		zeroize.Wipe(dKey)
		return nil, err
	}
	logger.Debug("receiver admitted", "height", h, "user", user, "cover", d, "entry", e+1)
	return &Opening{D: d, E: e + 1, DKey: dKey}, nil
}

// AnalyzEMsgX recovers the session key from the X2..X(d+2) concatenation:
// the e-th (1-based) ECB block is decrypted under the derived key. The
// 8-octet MAC carried at the front of the message is returned alongside
// for a subsequent CheckMsgX. The caller owns and must wipe sessionKey.
func AnalyzEMsgX(level int, ex []byte, d, e int, dKey []byte, cipher belt.Cipher) (sessionKey, mac []byte, err error) {
	if !validLevel(level) || cipher == nil {
		return nil, nil, ErrBadParam
	}
	keySize := level / 8
	if len(dKey) != keySize || d == 0 || e == 0 || e > d {
		return nil, nil, ErrBadParam
	}
	if len(ex) != tagSize+d*keySize {
		return nil, nil, ErrBadParam
	}
	sessionKey = make([]byte, keySize)
	off := tagSize + (e-1)*keySize
	if err := cipher.ECBDecrypt(sessionKey, ex[off:off+keySize], dKey); err != nil {
		zeroize.Wipe(sessionKey)
		return nil, nil, ErrInternal
	}
	mac = append([]byte(nil), ex[:tagSize]...)
	return sessionKey, mac, nil
}

// CheckMsgX verifies the integrity of the X1 header: the CBC-MAC under the
// recovered session key is recomputed and compared in constant time with
// the tag carried in X2.
func CheckMsgX(h uint8, level int, bx []byte, sessionKey, mac []byte, cipher belt.Cipher) error {
	if !validHeight(h) || !validLevel(level) || cipher == nil {
		return ErrBadParam
	}
	keySize := level / 8
	if len(sessionKey) != keySize || len(mac) != tagSize {
		return ErrBadParam
	}
	if len(bx) < 3*sizeP(h) {
		return ErrBadParam
	}
	tag := make([]byte, tagSize)
	defer zeroize.Wipe(tag)
	if err := cipher.MAC(tag, bx, sessionKey); err != nil {
		return ErrInternal
	}
	if !zeroize.ConstantTimeEqual(tag, mac) {
		return ErrBadMAC
	}
	return nil
}

// AnalyzAMsgY unwraps the payload message Y: the leading 16-octet
// synchronization vector keys the DWP unwrap of the ciphertext body, and
// the trailing 8-octet tag authenticates it. A nil out performs the sizing
// call only. A tag mismatch surfaces as ErrBadMAC; the output buffer is
// wiped before any error return.
func AnalyzAMsgY(level int, sessionKey []byte, ay []byte, cipher belt.Cipher, out []byte) (int, error) {
	if !validLevel(level) {
		return 0, ErrBadParam
	}
	if len(ay) < ivSize+tagSize+1 {
		return 0, ErrBadParam
	}
	size := len(ay) - ivSize - tagSize
	if out == nil {
		return size, nil
	}
	keySize := level / 8
	if cipher == nil || len(sessionKey) != keySize || len(out) < size {
		return 0, ErrBadParam
	}
	var iv [16]byte
	copy(iv[:], ay[:ivSize])
	ct := ay[ivSize : len(ay)-tagSize]
	tag := ay[len(ay)-tagSize:]
	if err := cipher.DWPUnwrap(out[:size], ct, nil, tag, sessionKey, iv); err != nil {
		zeroize.Wipe(out[:size])
		if errors.Is(err, belt.ErrAuth) {
			return 0, ErrBadMAC
		}
		return 0, ErrInternal
	}
	return size, nil
}

// AnalyzAMsgYAlloc is the allocating convenience form of AnalyzAMsgY.
func AnalyzAMsgYAlloc(level int, sessionKey []byte, ay []byte, cipher belt.Cipher) ([]byte, error) {
	size, err := AnalyzAMsgY(level, sessionKey, ay, cipher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := AnalyzAMsgY(level, sessionKey, ay, cipher, out); err != nil {
		return nil, err
	}
	return out[:size], nil
}
