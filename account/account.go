// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/bitmark-inc/contextd/fault"
)

// Curve - signature scheme of a key, its value is the wire tag
type Curve byte

// enumeration of supported curves
const (
	Ed25519   Curve = 0
	Secp256k1 Curve = 1
	P256      Curve = 2
)

// miscellaneous constants
const (
	HashLength       = 20
	ContractIdLength = 22
	IndexSegments    = 6
)

var curveNames = map[Curve]string{
	Ed25519:   "ed25519",
	Secp256k1: "secp256k1",
	P256:      "p256",
}

var addressCurves = map[string]Curve{
	"tz1": Ed25519,
	"tz2": Secp256k1,
	"tz3": P256,
}

var publicKeySizes = map[Curve]int{
	Ed25519:   32,
	Secp256k1: 33,
	P256:      33,
}

// String - name used in context paths
func (c Curve) String() string {
	if s, ok := curveNames[c]; ok {
		return s
	}
	return "unknown"
}

// CurveFromString - convert a context path name to a curve
func CurveFromString(s string) (Curve, error) {
	for c, name := range curveNames {
		if name == s {
			return c, nil
		}
	}
	return 0, errors.Wrapf(fault.InvalidPublicKey, "unknown curve: %q", s)
}

func (c Curve) valid() bool {
	_, ok := curveNames[c]
	return ok
}

func (c Curve) hashPrefix() []byte {
	switch c {
	case Secp256k1:
		return prefixTz2
	case P256:
		return prefixTz3
	default:
		return prefixTz1
	}
}

// PublicKeyHash - curve and blake2b-160 digest of the public key
type PublicKeyHash struct {
	Curve Curve
	Hash  [HashLength]byte
}

// PublicKeyHashFromString - parse a tz1/tz2/tz3 address
func PublicKeyHashFromString(s string) (PublicKeyHash, error) {
	pkh := PublicKeyHash{}
	if len(s) < 3 {
		return pkh, errors.Wrapf(fault.InvalidAddress, "%q: not a public key hash", s)
	}
	c, ok := addressCurves[s[:3]]
	if !ok {
		return pkh, errors.Wrapf(fault.InvalidAddress, "%q: not a public key hash", s)
	}
	payload, err := fromBase58Check(s, c.hashPrefix(), HashLength)
	if nil != err {
		return pkh, err
	}
	pkh.Curve = c
	copy(pkh.Hash[:], payload)
	return pkh, nil
}

// PublicKeyHashFromTaggedBytes - curve tag byte followed by the 20 byte hash
func PublicKeyHashFromTaggedBytes(b []byte) (PublicKeyHash, error) {
	pkh := PublicKeyHash{}
	if 1+HashLength != len(b) {
		return pkh, errors.Wrapf(fault.InvalidAddress, "tagged hash length: %d", len(b))
	}
	pkh.Curve = Curve(b[0])
	if !pkh.Curve.valid() {
		return pkh, errors.Wrapf(fault.InvalidPublicKey, "curve tag: %d", b[0])
	}
	copy(pkh.Hash[:], b[1:])
	return pkh, nil
}

// PublicKeyHashFromHex - curve name and hex digest as they appear in context paths
func PublicKeyHashFromHex(curve string, hexHash string) (PublicKeyHash, error) {
	pkh := PublicKeyHash{}
	c, err := CurveFromString(curve)
	if nil != err {
		return pkh, err
	}
	b, err := hex.DecodeString(hexHash)
	if nil != err || HashLength != len(b) {
		return pkh, errors.Wrapf(fault.InvalidAddress, "hash hex: %q", hexHash)
	}
	pkh.Curve = c
	copy(pkh.Hash[:], b)
	return pkh, nil
}

// TaggedBytes - curve tag followed by the hash
func (pkh PublicKeyHash) TaggedBytes() []byte {
	return append([]byte{byte(pkh.Curve)}, pkh.Hash[:]...)
}

// String - base58check address
func (pkh PublicKeyHash) String() string {
	return toBase58Check(pkh.Curve.hashPrefix(), pkh.Hash[:])
}

// MarshalText - address form for JSON
func (pkh PublicKeyHash) MarshalText() ([]byte, error) {
	return []byte(pkh.String()), nil
}

// UnmarshalText - parse from the address form
func (pkh *PublicKeyHash) UnmarshalText(s []byte) error {
	p, err := PublicKeyHashFromString(string(s))
	if nil != err {
		return err
	}
	*pkh = p
	return nil
}

// ContractId - the implicit contract controlled by this key hash
func (pkh PublicKeyHash) ContractId() ContractId {
	c := ContractId{}
	c[0] = 0x00
	c[1] = byte(pkh.Curve)
	copy(c[2:], pkh.Hash[:])
	return c
}

// PublicKey - a curve tagged public key
type PublicKey struct {
	Curve Curve
	Key   []byte
}

// PublicKeyFromTaggedBytes - curve tag followed by the key bytes
func PublicKeyFromTaggedBytes(b []byte) (PublicKey, error) {
	if 0 == len(b) {
		return PublicKey{}, errors.Wrap(fault.InvalidPublicKey, "empty key")
	}
	c := Curve(b[0])
	size, ok := publicKeySizes[c]
	if !ok {
		return PublicKey{}, errors.Wrapf(fault.InvalidPublicKey, "curve tag: %d", b[0])
	}
	if len(b)-1 != size {
		return PublicKey{}, errors.Wrapf(fault.InvalidPublicKey, "%s key length: %d", c, len(b)-1)
	}
	key := make([]byte, size)
	copy(key, b[1:])
	return PublicKey{Curve: c, Key: key}, nil
}

// Hash - the public key hash (blake2b-160 of the key bytes)
func (k PublicKey) Hash() PublicKeyHash {
	h, err := blake2b.New(HashLength, nil)
	if nil != err {
		panic(err)
	}
	h.Write(k.Key)

	pkh := PublicKeyHash{Curve: k.Curve}
	copy(pkh.Hash[:], h.Sum(nil))
	return pkh
}

// String - base58check public key (edpk, sppk or p2pk)
func (k PublicKey) String() string {
	switch k.Curve {
	case Secp256k1:
		return toBase58Check(prefixSppk, k.Key)
	case P256:
		return toBase58Check(prefixP2pk, k.Key)
	default:
		return toBase58Check(prefixEdpk, k.Key)
	}
}

// MarshalText - base58check form for JSON
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
