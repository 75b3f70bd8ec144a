// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sort"
)

// window - the latest write of every path touched in a run of levels
//
// entries are sorted by path, index maps the joined path to its entry
type window struct {
	entries []Entry
	index   map[string]int
}

func newWindow(entries []Entry) *window {
	w := &window{
		entries: entries,
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		w.index[e.Path.String()] = i
	}
	return w
}

// merge two adjacent windows, the newer one wins on equal paths
func mergeWindows(newer *window, older *window) *window {
	a := newer.entries
	b := older.entries
	merged := make([]Entry, 0, len(a)+len(b))

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := Compare(a[i].Path, b[j].Path); {
		case c < 0:
			merged = append(merged, a[i])
			i += 1
		case c > 0:
			merged = append(merged, b[j])
			j += 1
		default:
			merged = append(merged, a[i])
			i += 1
			j += 1
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)

	return newWindow(merged)
}

func (w *window) get(key string) (Bucket, bool) {
	i, ok := w.index[key]
	if !ok {
		return Bucket{}, false
	}
	return w.entries[i].Bucket, true
}

// entries whose path starts with the prefix, in path order
func (w *window) withPrefix(prefix Path) []Entry {
	start := sort.Search(len(w.entries), func(i int) bool {
		return Compare(w.entries[i].Path, prefix) >= 0
	})
	end := start
	for end < len(w.entries) && w.entries[end].Path.HasPrefix(prefix) {
		end += 1
	}
	return w.entries[start:end]
}
