// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"math/bits"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/metrics"
	"github.com/bitmark-inc/logger"
)

// Reader - read access to committed levels
//
// results are copies, callers may modify them freely
type Reader interface {
	Get(level uint64, path Path) (Bucket, error)
	GetByPrefix(level uint64, prefix Path) ([]Entry, error)
}

// Handle - the store as seen by the query service
type Handle interface {
	Reader
	Commit(level uint64, diff Diff) error
	Head() (uint64, bool)
	Genesis() (uint64, bool)
}

// record - one committed level
//
// with p = level - genesis + 1, lanes[h] holds the latest writes of
// levels at positions (p - 2^h, p] for h = 0 … trailing zeros of p
type record struct {
	level uint64
	lanes []*window
}

// Store - versioned context store
type Store struct {
	sync.RWMutex
	commitLock sync.Mutex

	log     *logger.L
	genesis uint64
	records []*record

	db    *leveldb.DB
	cache *prefixCache
}

// New - empty in-memory store
func New() *Store {
	return &Store{
		log:   logger.New("storage"),
		cache: newPrefixCache(),
	}
}

// Head - highest committed level, false if nothing is committed
func (s *Store) Head() (uint64, bool) {
	s.RLock()
	defer s.RUnlock()
	if 0 == len(s.records) {
		return 0, false
	}
	return s.genesis + uint64(len(s.records)) - 1, true
}

// Genesis - first committed level, false if nothing is committed
func (s *Store) Genesis() (uint64, bool) {
	s.RLock()
	defer s.RUnlock()
	if 0 == len(s.records) {
		return 0, false
	}
	return s.genesis, true
}

// Commit - append the writes of the level following head
//
// the first commit fixes the genesis level
func (s *Store) Commit(level uint64, diff Diff) error {
	entries, err := diff.entries()
	if nil == err {
		err = s.append(level, entries, true)
	}
	if nil != err {
		metrics.StorageCommitCounter.WithLabelValues(metrics.ResultError).Inc()
		return err
	}
	metrics.StorageCommitCounter.WithLabelValues(metrics.ResultOK).Inc()
	metrics.StorageHeadGauge.Set(float64(level))
	return nil
}

// entries must be sorted and hold private copies of the values
func (s *Store) append(level uint64, entries []Entry, persist bool) error {
	s.commitLock.Lock()
	defer s.commitLock.Unlock()

	s.RLock()
	records := s.records
	genesis := s.genesis
	s.RUnlock()

	if 0 != len(records) {
		head := genesis + uint64(len(records)) - 1
		if level <= head {
			return errors.Wrapf(fault.LevelExists, "level: %d  head: %d", level, head)
		}
		if level != head+1 {
			return errors.Wrapf(fault.LevelNotContiguous, "level: %d  head: %d", level, head)
		}
	} else {
		genesis = level
	}

	r := buildRecord(records, level, uint64(len(records))+1, entries)

	if persist && nil != s.db {
		err := writeRecord(s.db, level, entries)
		if nil != err {
			s.log.Errorf("write level: %d  error: %s", level, err)
			return err
		}
	}

	s.Lock()
	s.genesis = genesis
	s.records = append(s.records, r)
	s.Unlock()

	s.log.Debugf("committed level: %d  paths: %d", level, len(entries))
	return nil
}

// build the lanes of the record at position p from the lower records
//
// records is only read, committed records never change
func buildRecord(records []*record, level uint64, p uint64, entries []Entry) *record {
	height := bits.TrailingZeros64(p)
	r := &record{
		level: level,
		lanes: make([]*window, height+1),
	}
	r.lanes[0] = newWindow(entries)
	for h := 1; h <= height; h += 1 {
		q := p - 1<<uint(h-1)
		older := records[q-1].lanes[h-1]
		r.lanes[h] = mergeWindows(r.lanes[h-1], older)
	}
	return r
}

// windows covering positions [1, p], newest first
//
// must be called with the read lock held
func (s *Store) windows(level uint64) ([]*window, error) {
	if 0 == len(s.records) || level < s.genesis || level-s.genesis >= uint64(len(s.records)) {
		return nil, errors.Wrapf(fault.LevelNotFound, "level: %d", level)
	}
	p := level - s.genesis + 1
	result := make([]*window, 0, bits.OnesCount64(p))
	for p > 0 {
		h := bits.TrailingZeros64(p)
		result = append(result, s.records[p-1].lanes[h])
		p -= 1 << uint(h)
	}
	return result, nil
}

// Get - the bucket visible for a path at a level
//
// a tombstone is returned as a Deleted bucket, a path never written
// before the level gives PathNotFound
func (s *Store) Get(level uint64, path Path) (Bucket, error) {
	if err := path.validate(true); nil != err {
		return Bucket{}, err
	}
	key := path.String()

	s.RLock()
	defer s.RUnlock()

	windows, err := s.windows(level)
	if nil != err {
		return Bucket{}, err
	}

	metrics.StorageLookupCounter.WithLabelValues("get").Inc()
	for i, w := range windows {
		if b, ok := w.get(key); ok {
			metrics.StorageLookupHops.WithLabelValues("get").Observe(float64(i + 1))
			return b.clone(), nil
		}
	}
	metrics.StorageLookupHops.WithLabelValues("get").Observe(float64(len(windows)))
	return Bucket{}, errors.Wrapf(fault.PathNotFound, "level: %d  path: %s", level, key)
}

// GetByPrefix - every visible entry under a prefix in path order
//
// tombstones are included, an empty prefix gives the whole context
func (s *Store) GetByPrefix(level uint64, prefix Path) ([]Entry, error) {
	if err := prefix.validate(false); nil != err {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	windows, err := s.windows(level)
	if nil != err {
		return nil, err
	}

	metrics.StorageLookupCounter.WithLabelValues("prefix").Inc()
	if entries, ok := s.cache.get(level, prefix); ok {
		return cloneEntries(entries), nil
	}

	tree := treemap.NewWith(pathComparator)
	for _, w := range windows {
		for _, e := range w.withPrefix(prefix) {
			if _, found := tree.Get(e.Path); !found {
				tree.Put(e.Path, e.Bucket)
			}
		}
	}
	metrics.StorageLookupHops.WithLabelValues("prefix").Observe(float64(len(windows)))

	entries := make([]Entry, 0, tree.Size())
	it := tree.Iterator()
	for it.Next() {
		entries = append(entries, Entry{
			Path:   it.Key().(Path),
			Bucket: it.Value().(Bucket),
		})
	}

	s.cache.set(level, prefix, entries)
	return cloneEntries(entries), nil
}

// Snapshot - the whole visible context at a level
func (s *Store) Snapshot(level uint64) ([]Entry, error) {
	return s.GetByPrefix(level, Path{})
}

// Close - release the database, if any
func (s *Store) Close() error {
	s.commitLock.Lock()
	defer s.commitLock.Unlock()
	s.Lock()
	defer s.Unlock()

	s.cache.clear()
	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
