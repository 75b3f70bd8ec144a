// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

// Mandatory - the value at a path that must exist
//
// a missing path or a tombstone gives MandatoryKeyMissing
func Mandatory(r Reader, level uint64, path Path) ([]byte, error) {
	b, found, err := Optional(r, level, path)
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(fault.MandatoryKeyMissing, "level: %d  path: %s", level, path)
	}
	return b, nil
}

// Optional - the value at a path if it exists
//
// a missing path or a tombstone returns false, other errors are passed on
func Optional(r Reader, level uint64, path Path) ([]byte, bool, error) {
	bucket, err := r.Get(level, path)
	if fault.Is(err, fault.PathNotFound) {
		return nil, false, nil
	}
	if nil != err {
		return nil, false, err
	}
	if bucket.Deleted {
		return nil, false, nil
	}
	return bucket.Value, true, nil
}

// Existing - prefix scan with tombstones removed
func Existing(r Reader, level uint64, prefix Path) ([]Entry, error) {
	entries, err := r.GetByPrefix(level, prefix)
	if nil != err {
		return nil, err
	}
	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Bucket.Deleted {
			result = append(result, e)
		}
	}
	return result, nil
}
