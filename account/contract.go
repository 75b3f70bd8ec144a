// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/bitmark-inc/contextd/fault"
)

// ContractId - binary contract identifier
//
// implicit:   0x00 | curve | hash20
// originated: 0x01 | hash20 | 0x00
type ContractId [ContractIdLength]byte

// ContractIdFromBytes - copy a 22 byte contract id
func ContractIdFromBytes(b []byte) (ContractId, error) {
	c := ContractId{}
	if ContractIdLength != len(b) {
		return c, errors.Wrapf(fault.InvalidAddress, "contract id length: %d", len(b))
	}
	switch b[0] {
	case 0x00:
		if !Curve(b[1]).valid() {
			return c, errors.Wrapf(fault.InvalidAddress, "contract id curve: %d", b[1])
		}
	case 0x01:
	default:
		return c, errors.Wrapf(fault.InvalidAddress, "contract id tag: %d", b[0])
	}
	copy(c[:], b)
	return c, nil
}

// ContractIdFromHex - contract id as it appears in context paths
func ContractIdFromHex(s string) (ContractId, error) {
	b, err := hex.DecodeString(s)
	if nil != err {
		return ContractId{}, errors.Wrapf(fault.InvalidAddress, "contract id hex: %q", s)
	}
	return ContractIdFromBytes(b)
}

// ContractIdFromAddress - parse tz1/tz2/tz3 or KT1 addresses
func ContractIdFromAddress(s string) (ContractId, error) {
	if strings.HasPrefix(s, "KT1") {
		payload, err := fromBase58Check(s, prefixKT1, HashLength)
		if nil != err {
			return ContractId{}, err
		}
		c := ContractId{}
		c[0] = 0x01
		copy(c[1:], payload)
		return c, nil
	}
	pkh, err := PublicKeyHashFromString(s)
	if nil != err {
		return ContractId{}, err
	}
	return pkh.ContractId(), nil
}

// IsImplicit - true for key hash controlled contracts
func (c ContractId) IsImplicit() bool {
	return 0x00 == c[0]
}

// Address - tz… for implicit and KT1… for originated contracts
func (c ContractId) Address() string {
	if c.IsImplicit() {
		pkh := PublicKeyHash{Curve: Curve(c[1])}
		copy(pkh.Hash[:], c[2:])
		return pkh.String()
	}
	return toBase58Check(prefixKT1, c[1:1+HashLength])
}

// Hex - form used as the last segment of a contract's context path
func (c ContractId) Hex() string {
	return hex.EncodeToString(c[:])
}

// Index - six path segments spreading contracts across the context tree
//
// each segment is one byte of blake2b-256(contract id) in hex
func (c ContractId) Index() []string {
	digest := blake2b.Sum256(c[:])
	segments := make([]string, IndexSegments)
	for i := range segments {
		segments[i] = hex.EncodeToString(digest[i : i+1])
	}
	return segments
}

// String - the address form
func (c ContractId) String() string {
	return c.Address()
}
