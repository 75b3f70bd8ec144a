// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rights

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/bitmark-inc/contextd/fault"
)

// zero bytes between seed and use tag
const nonceSize = 32

// domain separators of the two sequences
const (
	bakingUse    = "level baking:"
	endorsingUse = "level endorsement:"
)

// sequence - the random stream for one priority or slot of a level
type sequence struct {
	state [blake2b.Size256]byte
}

// newSequence - seed the stream of a use at a cycle position, offset
// being the priority (baking) or slot (endorsing)
//
// the seed is followed by a nonce sized run of zero bytes before the
// use tag and position are appended
func newSequence(seed []byte, use string, position int32, offset int32) *sequence {
	buffer := make([]byte, 0, len(seed)+nonceSize+len(use)+4)
	buffer = append(buffer, seed...)
	buffer = append(buffer, make([]byte, nonceSize)...)
	buffer = append(buffer, use...)
	buffer = append(buffer, int32Bytes(position)...)
	rd := blake2b.Sum256(buffer)

	o := int32Bytes(offset)
	for i := 0; i < 4; i += 1 {
		rd[i] ^= o[i]
	}
	return &sequence{state: blake2b.Sum256(rd[:])}
}

// take - next uniformly distributed value in [0, bound)
//
// each draw advances the state by one hash and reads the value from
// the hash of the advanced state, values from the biased tail of the
// int32 range are redrawn
func (s *sequence) take(bound int32) (int32, error) {
	if bound <= 0 {
		return 0, errors.Wrapf(fault.InvalidValue, "roll bound: %d", bound)
	}
	limit := math.MaxInt32 - math.MaxInt32%bound
	for {
		s.state = blake2b.Sum256(s.state[:])
		h := blake2b.Sum256(s.state[:])

		// negation leaves the int32 minimum unchanged
		r := int32(binary.BigEndian.Uint32(h[:4]))
		if r < 0 {
			r = -r
		}
		if r >= limit {
			continue
		}
		return r % bound, nil
	}
}

func int32Bytes(n int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}
