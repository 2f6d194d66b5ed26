// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bash

import (
	"errors"

	"github.com/luxfi/bee2go/zeroize"
)

// ErrBadLevel is returned when a requested security level is not a multiple
// of 16 in the range (0,256].
var ErrBadLevel = errors.New("bash: security level must be a multiple of 16 in (0,256]")

// ErrShortBuffer is returned when a caller asks StepG/StepV to produce more
// output octets than the supplied buffer can hold.
var ErrShortBuffer = errors.New("bash: output buffer shorter than requested length")

// ErrOutputTooLarge is returned when a caller asks StepG/StepV to squeeze
// more than l/4 octets in a single call, the capacity-bounded ceiling a
// bash sponge context was constructed for.
var ErrOutputTooLarge = errors.New("bash: requested output exceeds the context's security level capacity")

// padByte is the domain-separation octet written into the state at the
// absorb/squeeze boundary.
const padByte = 0x40

// Context holds the running state of one sponge session: a 192-octet state,
// the rate derived from the security level, and a cursor into the current
// rate-sized block. A Context moves through absorb (StepH) then squeeze
// (StepG/StepV) phases; the transition happens automatically on the first
// squeeze call.
type Context struct {
	state     [StateBytes]byte
	permuter  Permuter
	rate      int
	level     int
	pos       int
	squeezing bool
}

// NewContext creates a sponge Context at the given security level (in bits;
// must be a multiple of 16 in (0,256]) using p as the permutation. A nil p
// selects DefaultPermuter. The level is recorded into the trailing octet of
// the fresh state as a domain-separation tag, per the designated bash state
// layout.
func NewContext(level int, p Permuter) (*Context, error) {
	if level <= 0 || level > 256 || level%16 != 0 {
		return nil, ErrBadLevel
	}
	if p == nil {
		p = DefaultPermuter
	}
	c := &Context{
		permuter: p,
		rate:     StateBytes - level/4,
		level:    level,
	}
	c.state[StateBytes-1] = byte(level / 8)
	return c, nil
}

// StepH absorbs data into the sponge. It is a no-op once squeezing has
// started (after the first StepG or StepV call) — a Context is not meant to
// be used for interleaved absorb/squeeze.
func (c *Context) StepH(data []byte) {
	if c.squeezing {
		return
	}
	for len(data) > 0 {
		space := c.rate - c.pos
		n := space
		if n > len(data) {
			n = len(data)
		}
		for i := 0; i < n; i++ {
			c.state[c.pos+i] ^= data[i]
		}
		c.pos += n
		data = data[n:]
		if c.pos == c.rate {
			c.permuter.Permute(&c.state)
			c.pos = 0
		}
	}
}

// finalize injects the domain-separation pad octet and permutes once,
// moving the Context from the absorb phase into the squeeze phase.
func (c *Context) finalize() {
	c.state[c.pos] = padByte
	c.permuter.Permute(&c.state)
	c.pos = 0
	c.squeezing = true
}

// StepG squeezes n octets of sponge output into out[:n]. Finalizes the
// absorb phase on the first call. len(out) must be at least n.
func (c *Context) StepG(out []byte, n int) error {
	if len(out) < n {
		return ErrShortBuffer
	}
	if n > c.level/4 {
		return ErrOutputTooLarge
	}
	if !c.squeezing {
		c.finalize()
	}
	for n > 0 {
		if c.pos == c.rate {
			c.permuter.Permute(&c.state)
			c.pos = 0
		}
		avail := c.rate - c.pos
		m := avail
		if m > n {
			m = n
		}
		copy(out[:m], c.state[c.pos:c.pos+m])
		out = out[m:]
		c.pos += m
		n -= m
	}
	return nil
}

// StepV squeezes n octets and compares them to expected[:n] in constant
// time, reporting whether they match. len(expected) must be at least n.
func (c *Context) StepV(expected []byte, n int) (bool, error) {
	if len(expected) < n {
		return false, ErrShortBuffer
	}
	got := make([]byte, n)
	if err := c.StepG(got, n); err != nil {
		return false, err
	}
	ok := zeroize.ConstantTimeEqual(got, expected[:n])
	zeroize.Wipe(got)
	return ok, nil
}

// Hash computes a one-shot bash hash of src at the given security level,
// writing len(out) octets of digest to out.
func Hash(out []byte, level int, src []byte) error {
	c, err := NewContext(level, nil)
	if err != nil {
		return err
	}
	c.StepH(src)
	return c.StepG(out, len(out))
}

// Hash128 computes a 32-octet (128-bit level) bash digest of src.
func Hash128(src []byte) ([]byte, error) {
	out := make([]byte, 32)
	if err := Hash(out, 128, src); err != nil {
		return nil, err
	}
	return out, nil
}

// Hash192 computes a 48-octet (192-bit level) bash digest of src.
func Hash192(src []byte) ([]byte, error) {
	out := make([]byte, 48)
	if err := Hash(out, 192, src); err != nil {
		return nil, err
	}
	return out, nil
}

// Hash256 computes a 64-octet (256-bit level) bash digest of src.
func Hash256(src []byte) ([]byte, error) {
	out := make([]byte, 64)
	if err := Hash(out, 256, src); err != nil {
		return nil, err
	}
	return out, nil
}
