// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/contextd/metrics"
)

const (
	defaultCleanup    = 1 * time.Minute
	defaultExpiration = 2 * time.Minute
)

// memoised prefix scans, valid forever since committed levels never change
type prefixCache struct {
	cache *cache.Cache
}

func newPrefixCache() *prefixCache {
	return newPrefixCacheWithExpiration(defaultExpiration)
}

func newPrefixCacheWithExpiration(expiration time.Duration) *prefixCache {
	return &prefixCache{
		cache: cache.New(expiration, defaultCleanup),
	}
}

func cacheKey(level uint64, prefix Path) string {
	return strconv.FormatUint(level, 10) + ":" + prefix.String()
}

// returns a copy so callers may reorder the result
func (c *prefixCache) get(level uint64, prefix Path) ([]Entry, bool) {
	obj, found := c.cache.Get(cacheKey(level, prefix))
	if !found {
		metrics.StoragePrefixCacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.StoragePrefixCacheCounter.WithLabelValues("hit").Inc()

	entries := obj.([]Entry)
	result := make([]Entry, len(entries))
	copy(result, entries)
	return result, true
}

func (c *prefixCache) set(level uint64, prefix Path, entries []Entry) {
	stored := make([]Entry, len(entries))
	copy(stored, entries)
	c.cache.Set(cacheKey(level, prefix), stored, cache.DefaultExpiration)
}

func (c *prefixCache) clear() {
	c.cache.Flush()
}
