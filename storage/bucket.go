// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sort"
)

// Bucket - the state of one path at a level
type Bucket struct {
	Value   []byte
	Deleted bool
}

// Exists - a stored value
func Exists(value []byte) Bucket {
	return Bucket{Value: value}
}

// Deleted - a tombstone, distinct from a path that was never written
func Deleted() Bucket {
	return Bucket{Deleted: true}
}

// copy sharing no memory with committed storage
func (b Bucket) clone() Bucket {
	if nil == b.Value {
		return b
	}
	v := make([]byte, len(b.Value))
	copy(v, b.Value)
	return Bucket{Value: v, Deleted: b.Deleted}
}

// Entry - a path with its bucket
type Entry struct {
	Path   Path
	Bucket Bucket
}

func cloneEntries(entries []Entry) []Entry {
	result := make([]Entry, len(entries))
	for i, e := range entries {
		p := make(Path, len(e.Path))
		copy(p, e.Path)
		result[i] = Entry{Path: p, Bucket: e.Bucket.clone()}
	}
	return result
}

// Diff - writes of one level keyed by "/" joined path
type Diff map[string]Bucket

// sorted, validated entries of a diff
func (d Diff) entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(d))
	for key, bucket := range d {
		p, err := ParsePath(key)
		if nil != err {
			return nil, err
		}
		b := Bucket{Deleted: bucket.Deleted}
		if !bucket.Deleted {
			b.Value = make([]byte, len(bucket.Value))
			copy(b.Value, bucket.Value)
		}
		entries = append(entries, Entry{Path: p, Bucket: b})
	}
	sort.Slice(entries, func(i, j int) bool {
		return Compare(entries[i].Path, entries[j].Path) < 0
	})
	return entries, nil
}
