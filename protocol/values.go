// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"math/big"

	"github.com/bitmark-inc/contextd/codec"
)

// DecodeMutez - a complete unsigned zarith amount
func DecodeMutez(b []byte) (*big.Int, error) {
	v, err := codec.Decode(codec.N, b)
	if nil != err {
		return nil, err
	}
	return v.(codec.Big).Int, nil
}

// DecodeInt32 - a complete big endian 32 bit integer
func DecodeInt32(b []byte) (int32, error) {
	v, err := codec.Decode(codec.Int32, b)
	if nil != err {
		return 0, err
	}
	return int32(v.(codec.Int)), nil
}

// DecodeUint16 - a complete big endian 16 bit integer
func DecodeUint16(b []byte) (uint16, error) {
	v, err := codec.Decode(codec.Uint16, b)
	if nil != err {
		return 0, err
	}
	return uint16(v.(codec.Int)), nil
}
