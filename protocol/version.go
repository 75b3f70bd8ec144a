// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
)

// Version - the closed set of known economic protocols
type Version int

// known versions in activation order
const (
	Unsupported Version = iota
	Proto001
	Proto002
	Proto003
	Proto004
	Proto005
	Proto005_2
	Proto006
)

type versionInfo struct {
	name string
	hash string
}

var versions = map[Version]versionInfo{
	Proto001:   {"001", "PtCJ7pwoxe8JasnHY8YonnLYjcVHmhiARPJvqcC6VfHT5s8k8sY"},
	Proto002:   {"002", "PsYLVpVvgbLhAhoqAkMFUo6gudkJ9weNXhUYCiLDzcUpFpkk8Wt"},
	Proto003:   {"003", "PsddFKi32cMJ2qPjf43Qv5GDWLDPZb3T3bF6fLKiF5HtvHNU7aP"},
	Proto004:   {"004", ""}, // TODO: bind the Athens hash once the canonical value is confirmed
	Proto005:   {"005", "PsBABY5HQTSkA4297zNHfsZNKtxULfL18y95qb3m53QJiXGmrbU"},
	Proto005_2: {"005_2", "PsBabyM1eUXZseaJdmXFApDSBqj8YBfwELoxZHHW77EMcAbbwAS"},
	Proto006:   {"006", "PsCARTHAGazKbHtnKfLzQg3kms52kSRpgnDY982a9oYsSXRLQEb"},
}

// reverse lookup built once from the table above, a version without
// a valid hash is simply not reachable from stored context
var byHash = make(map[account.ProtocolHash]Version)

func init() {
	for v, info := range versions {
		if "" == info.hash {
			continue
		}
		h, err := account.ProtocolHashFromString(info.hash)
		if nil != err {
			continue
		}
		byHash[h] = v
	}
}

// FromHash - the version bound to a protocol hash
func FromHash(hash account.ProtocolHash) (Version, error) {
	v, ok := byHash[hash]
	if !ok {
		return Unsupported, errors.Wrapf(fault.UnsupportedProtocol, "protocol: %s", hash)
	}
	return v, nil
}

// FromString - the version bound to a base58 protocol hash
func FromString(s string) (Version, error) {
	hash, err := account.ProtocolHashFromString(s)
	if nil != err {
		return Unsupported, err
	}
	return FromHash(hash)
}

// String - short version name
func (v Version) String() string {
	info, ok := versions[v]
	if !ok {
		return "unsupported"
	}
	return info.name
}

// Hash - base58 protocol hash of a known version
func (v Version) Hash() string {
	return versions[v].hash
}

// IsBabylon - true for versions using the Babylon context layout
func (v Version) IsBabylon() bool {
	switch v {
	case Proto005, Proto005_2, Proto006:
		return true
	default:
		return false
	}
}

// HasRights - true for versions with a baking and endorsing rights sampler
func (v Version) HasRights() bool {
	return Proto005_2 == v || Proto006 == v
}
