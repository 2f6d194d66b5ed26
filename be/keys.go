// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package be

import (
	"github.com/luxfi/bee2go/belt"
	"github.com/luxfi/bee2go/sdtree"
	"github.com/luxfi/bee2go/zeroize"
)

// GenUsersKeys derives the server's dense per-vertex key table from the
// master key. A nil out performs the sizing call only: the entry count for
// height h is returned and nothing is derived. Otherwise out must hold at
// least AKeysCount(h) entries; each entry's Key slice is allocated here.
//
// The table is laid out as described at offsetAKey: the shared key C(0,0)
// at index 0, then one band per ancestor depth. For every internal vertex
// i a fresh seed is diversified from the master key, and the subtree below
// i is filled top-down, each child key derived from its parent with header
// 1 (left) or 2 (right) and the level counting the depth below i.
//
// On any error the already-written entries of out are tainted and the
// caller must wipe them (WipeAKeys); local scratch is wiped here.
func GenUsersKeys(h uint8, level int, master []byte, cipher belt.Cipher, out []AKey) (int, error) {
	if !validHeight(h) {
		return 0, ErrBadParam
	}
	count := AKeysCount(h)
	if out == nil {
		return count, nil
	}
	if !validLevel(level) || cipher == nil {
		return 0, ErrBadParam
	}
	keySize := level / 8
	if len(master) != keySize || len(out) < count {
		return 0, ErrBadParam
	}
	n := uint32(1) << h

	scratch := make([]byte, keySize)
	defer zeroize.Wipe(scratch)
	if err := cipher.KRP(scratch, master, belt.Level{}, belt.Header{}); err != nil {
		return 0, err
	}

	out[0].A, out[0].B = 0, 0
	out[0].Key = make([]byte, keySize)
	if err := cipher.KRP(out[0].Key, scratch, belt.Level{1}, belt.Header{}); err != nil {
		return 0, err
	}

	// One temporary seed per internal vertex. The whole buffer is wiped on
	// every exit path.
	seeds := make([]byte, keySize*int(n-1))
	defer zeroize.Wipe(seeds)

	for i := uint32(1); i < n; i++ {
		seed := seeds[int(i-1)*keySize : int(i)*keySize]
		if err := cipher.KRP(seed, master, belt.Level{}, belt.Header{i}); err != nil {
			return 0, err
		}
		d := sdtree.Depth(i)
		for t := uint8(0); t < h-d; t++ {
			lvl := belt.Level{uint32(t) + 1}
			for j := i << t; j < (i+1)<<t; j++ {
				var parent []byte
				if j == i {
					parent = seed
				} else {
					parent = out[aKeyIndex(h, d, j)].Key
				}
				left := &out[aKeyIndex(h, d, 2*j)]
				left.A, left.B = i, 2*j
				left.Key = make([]byte, keySize)
				if err := cipher.KRP(left.Key, parent, lvl, belt.Header{1}); err != nil {
					return 0, err
				}
				right := &out[aKeyIndex(h, d, 2*j+1)]
				right.A, right.B = i, 2*j+1
				right.Key = make([]byte, keySize)
				if err := cipher.KRP(right.Key, parent, lvl, belt.Header{2}); err != nil {
					return 0, err
				}
			}
		}
	}
	return count, nil
}

// GenUsersKeysAlloc is the allocating convenience form of GenUsersKeys.
func GenUsersKeysAlloc(h uint8, level int, master []byte, cipher belt.Cipher) ([]AKey, error) {
	count, err := GenUsersKeys(h, level, master, cipher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]AKey, count)
	if _, err := GenUsersKeys(h, level, master, cipher, out); err != nil {
		WipeAKeys(out)
		return nil, err
	}
	return out, nil
}

// GetUserKeys selects, from the server's dense key table, the subset of
// keys user u (1-based, u in [1, 2^h]) is entitled to hold: C(0,0), then
// for every ancestor of u's leaf, one key per sibling hanging off the
// leaf's root-path below that ancestor. A nil out performs the sizing call
// only and ignores aKeys.
func GetUserKeys(h uint8, level int, user uint32, aKeys []AKey, out []UserKey) (int, error) {
	if !validHeight(h) {
		return 0, ErrBadParam
	}
	count := UserKeysCount(h)
	if out == nil {
		return count, nil
	}
	if !validLevel(level) {
		return 0, ErrBadParam
	}
	n := uint32(1) << h
	if user == 0 || user > n {
		return 0, ErrBadParam
	}
	if len(aKeys) < AKeysCount(h) || len(out) < count {
		return 0, ErrBadParam
	}
	keySize := level / 8

	// Root path of the user's leaf: path[t] is the ancestor at depth t.
	path := make([]uint32, h+1)
	path[h] = user + n - 1
	for t := int(h) - 1; t >= 0; t-- {
		path[t] = path[t+1] / 2
	}
	defer zeroize.WipeUint32(path)

	if len(aKeys[0].Key) != keySize {
		return 0, ErrBadParam
	}
	out[0].A, out[0].B = 0, 0
	out[0].Key = append([]byte(nil), aKeys[0].Key...)

	idx := 1
	for i := uint8(0); i < h; i++ {
		for j := i; j < h; j++ {
			// The key the user holds is C(path[i], sibling(path[j+1])).
			base := aKeyIndex(h, i, 2*path[j])
			var src *AKey
			uk := &out[idx]
			uk.A = path[i]
			if path[j+1] == 2*path[j] {
				src = &aKeys[base+1]
				uk.B = 2*path[j] + 1
			} else {
				src = &aKeys[base]
				uk.B = 2 * path[j]
			}
			if len(src.Key) != keySize {
				return 0, ErrBadParam
			}
			uk.Key = append([]byte(nil), src.Key...)
			idx++
		}
	}
	return count, nil
}

// GetUserKeysAlloc is the allocating convenience form of GetUserKeys.
func GetUserKeysAlloc(h uint8, level int, user uint32, aKeys []AKey) ([]UserKey, error) {
	count, err := GetUserKeys(h, level, user, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]UserKey, count)
	if _, err := GetUserKeys(h, level, user, aKeys, out); err != nil {
		WipeUserKeys(out)
		return nil, err
	}
	return out, nil
}

// WipeAKeys wipes the key octets of every entry. Entries whose Key was
// never allocated are skipped.
func WipeAKeys(keys []AKey) {
	for i := range keys {
		zeroize.Wipe(keys[i].Key)
	}
}

// WipeUserKeys wipes the key octets of every entry.
func WipeUserKeys(keys []UserKey) {
	for i := range keys {
		zeroize.Wipe(keys[i].Key)
	}
}
