// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

// ProtocolHashLength - bytes in a protocol hash
const ProtocolHashLength = 32

// ProtocolHash - identifies an economic protocol
type ProtocolHash [ProtocolHashLength]byte

// ProtocolHashFromBytes - copy a 32 byte hash
func ProtocolHashFromBytes(b []byte) (ProtocolHash, error) {
	h := ProtocolHash{}
	if ProtocolHashLength != len(b) {
		return h, errors.Wrapf(fault.InvalidValue, "protocol hash length: %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ProtocolHashFromString - parse the P… form
func ProtocolHashFromString(s string) (ProtocolHash, error) {
	h := ProtocolHash{}
	payload, err := fromBase58Check(s, prefixProtocol, ProtocolHashLength)
	if nil != err {
		return h, err
	}
	copy(h[:], payload)
	return h, nil
}

// String - base58check form
func (h ProtocolHash) String() string {
	return toBase58Check(prefixProtocol, h[:])
}

// MarshalText - base58check form for JSON
func (h ProtocolHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// NonceHashLength - bytes in a seed nonce hash
const NonceHashLength = 32

// NonceHashString - base58check form of a seed nonce hash
func NonceHashString(b []byte) (string, error) {
	if NonceHashLength != len(b) {
		return "", errors.Wrapf(fault.InvalidValue, "nonce hash length: %d", len(b))
	}
	return toBase58Check(prefixNonce, b), nil
}
