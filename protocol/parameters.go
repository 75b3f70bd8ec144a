// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/storage"
)

// DefaultCacheSize - decoded constants kept by default
const DefaultCacheSize = 32

var (
	protocolPath  = storage.MustParsePath("protocol")
	constantsPath = storage.MustParsePath("data/v1/constants")
)

// Parameters - protocol and constants in force at a level
type Parameters struct {
	Level     uint64
	Hash      account.ProtocolHash
	Version   Version
	Constants *Constants
}

type cacheKey struct {
	version Version
	digest  [blake2b.Size256]byte
}

var constantsCache struct {
	sync.RWMutex
	entries *lru.Cache
}

func init() {
	c, err := lru.New(DefaultCacheSize)
	if nil != err {
		panic(err)
	}
	constantsCache.entries = c
}

// SetCacheSize - replace the decoded constants cache
func SetCacheSize(size int) error {
	c, err := lru.New(size)
	if nil != err {
		return errors.Wrapf(fault.InvalidCount, "constants cache size: %d", size)
	}
	constantsCache.Lock()
	constantsCache.entries = c
	constantsCache.Unlock()
	return nil
}

func cache() *lru.Cache {
	constantsCache.RLock()
	defer constantsCache.RUnlock()
	return constantsCache.entries
}

// ParametersAt - read the protocol hash and constants at a level
func ParametersAt(reader storage.Reader, level uint64) (*Parameters, error) {
	raw, err := storage.Mandatory(reader, level, protocolPath)
	if nil != err {
		return nil, err
	}
	hash, err := account.ProtocolHashFromBytes(raw)
	if nil != err {
		return nil, err
	}
	version, err := FromHash(hash)
	if nil != err {
		return nil, err
	}

	b, err := storage.Mandatory(reader, level, constantsPath)
	if nil != err {
		return nil, err
	}
	constants, err := cachedConstants(version, b)
	if nil != err {
		return nil, err
	}

	return &Parameters{
		Level:     level,
		Hash:      hash,
		Version:   version,
		Constants: constants,
	}, nil
}

func cachedConstants(version Version, b []byte) (*Constants, error) {
	key := cacheKey{
		version: version,
		digest:  blake2b.Sum256(b),
	}
	c := cache()
	if item, ok := c.Get(key); ok {
		return item.(*Constants), nil
	}
	constants, err := DecodeConstants(version, b)
	if nil != err {
		return nil, err
	}
	c.Add(key, constants)
	return constants, nil
}
