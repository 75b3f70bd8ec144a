// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"math/big"

	"github.com/bitmark-inc/contextd/fault"
)

// ToZarithN - encode a non-negative integer as Zarith natural
//
// Structure of the result
// byte 1:  ext | B06 | B05 | B04 | B03 | B02 | B01 | B00
// byte 2:  ext | B13 | B12 | B11 | B10 | B09 | B08 | B07
// …        repeated while any higher bits remain
//
// ext is set on every byte except the last
func ToZarithN(value *big.Int) ([]byte, error) {
	if value.Sign() < 0 {
		return nil, fault.InvalidValue
	}
	return appendGroups(nil, new(big.Int).Set(value)), nil
}

// ToZarithZ - encode a signed integer as Zarith integer
//
// Structure of the result
// byte 1:  ext | sign | B05 | B04 | B03 | B02 | B01 | B00
// byte 2:  ext | B12  | B11 | B10 | B09 | B08 | B07 | B06
// …        repeated while any higher bits remain
func ToZarithZ(value *big.Int) []byte {
	v := new(big.Int).Abs(value)

	first := lowBits(v, 6)
	if value.Sign() < 0 {
		first |= 0x40
	}
	v.Rsh(v, 6)
	if 0 == v.Sign() {
		return []byte{first}
	}
	return appendGroups([]byte{first | 0x80}, v)
}

// FromZarithN - decode a Zarith natural from the start of a buffer
//
// also returns the number of bytes used
func FromZarithN(buffer []byte) (*big.Int, int, error) {
	return fromZarith(buffer, false)
}

// FromZarithZ - decode a Zarith integer from the start of a buffer
//
// also returns the number of bytes used
func FromZarithZ(buffer []byte) (*big.Int, int, error) {
	return fromZarith(buffer, true)
}

func fromZarith(buffer []byte, signed bool) (*big.Int, int, error) {
	if 0 == len(buffer) {
		return nil, 0, fault.MalformedZarith
	}

	result := new(big.Int)
	group := new(big.Int)

	negative := false
	shift := uint(0)
	count := 0

	for count < len(buffer) {
		b := buffer[count]
		count += 1

		payload := b & 0x7f
		width := uint(7)
		if signed && 1 == count {
			negative = 0 != b&0x40
			payload = b & 0x3f
			width = 6
		}

		group.SetUint64(uint64(payload))
		result.Or(result, group.Lsh(group, shift))
		shift += width

		if 0 == b&0x80 {
			// a zero final group after the first byte has a shorter form
			if count > 1 && 0 == b {
				return nil, 0, fault.MalformedZarith
			}
			if negative {
				if 0 == result.Sign() {
					return nil, 0, fault.MalformedZarith
				}
				result.Neg(result)
			}
			return result, count, nil
		}
	}

	// last byte still had continuation set
	return nil, 0, fault.MalformedZarith
}

// emit 7 bit groups of v, least significant first, consuming v
func appendGroups(result []byte, v *big.Int) []byte {
	for {
		b := lowBits(v, 7)
		v.Rsh(v, 7)
		if 0 == v.Sign() {
			return append(result, b)
		}
		result = append(result, b|0x80)
	}
}

func lowBits(v *big.Int, n uint) byte {
	words := v.Bits()
	if 0 == len(words) {
		return 0
	}
	return byte(words[0]) & (1<<n - 1)
}
