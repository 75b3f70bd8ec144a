// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

const checksumLength = 4

// base58check version prefixes
var (
	prefixTz1      = []byte{6, 161, 159}
	prefixTz2      = []byte{6, 161, 161}
	prefixTz3      = []byte{6, 161, 164}
	prefixKT1      = []byte{2, 90, 121}
	prefixEdpk     = []byte{13, 15, 37, 217}
	prefixSppk     = []byte{3, 254, 226, 86}
	prefixP2pk     = []byte{3, 178, 139, 127}
	prefixProtocol = []byte{2, 170}
	prefixNonce    = []byte{69, 220, 169}
)

func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// toBase58Check - prefix ‖ payload ‖ checksum in base58
func toBase58Check(prefix []byte, payload []byte) string {
	buffer := make([]byte, 0, len(prefix)+len(payload)+checksumLength)
	buffer = append(buffer, prefix...)
	buffer = append(buffer, payload...)
	buffer = append(buffer, checksum(buffer)...)
	return base58.Encode(buffer)
}

// fromBase58Check - verify checksum and prefix, return the payload
func fromBase58Check(s string, prefix []byte, payloadLength int) ([]byte, error) {
	decoded, err := base58.Decode(s)
	if nil != err {
		return nil, errors.Wrapf(fault.InvalidAddress, "%q: %s", s, err)
	}
	if len(decoded) != len(prefix)+payloadLength+checksumLength {
		return nil, errors.Wrapf(fault.InvalidAddress, "%q: decoded length %d", s, len(decoded))
	}
	split := len(decoded) - checksumLength
	if !bytes.Equal(checksum(decoded[:split]), decoded[split:]) {
		return nil, errors.Wrapf(fault.InvalidChecksum, "%q", s)
	}
	if !bytes.HasPrefix(decoded, prefix) {
		return nil, errors.Wrapf(fault.InvalidAddress, "%q: wrong prefix", s)
	}
	return decoded[len(prefix):split], nil
}
