// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/storage"
)

func TestMandatoryOptional(t *testing.T) {
	s := storage.New()
	defer s.Close()

	commitAll(t, s, 1,
		storage.Diff{"data/a": storage.Exists([]byte{1}), "data/b": storage.Exists([]byte{2})},
		storage.Diff{"data/b": storage.Deleted()},
	)

	v, err := storage.Mandatory(s, 2, path("data/a"))
	assert.Nil(t, err, "mandatory error")
	assert.Equal(t, []byte{1}, v, "mandatory value")

	_, err = storage.Mandatory(s, 2, path("data/b"))
	assert.True(t, fault.Is(err, fault.MandatoryKeyMissing), "deleted: %v", err)
	_, err = storage.Mandatory(s, 2, path("data/c"))
	assert.True(t, fault.Is(err, fault.MandatoryKeyMissing), "missing: %v", err)

	_, found, err := storage.Optional(s, 2, path("data/b"))
	assert.Nil(t, err, "optional error")
	assert.False(t, found, "tombstone found")

	_, _, err = storage.Optional(s, 3, path("data/a"))
	assert.True(t, fault.Is(err, fault.LevelNotFound), "bad level: %v", err)

	entries, err := storage.Existing(s, 2, prefix("data"))
	assert.Nil(t, err, "existing error")
	assert.Equal(t, []storage.Entry{{Path: path("data/a"), Bucket: storage.Exists([]byte{1})}}, entries, "existing entries")
}
