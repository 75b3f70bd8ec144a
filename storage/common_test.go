// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/storage"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func path(s string) storage.Path {
	return storage.MustParsePath(s)
}

func prefix(s string) storage.Path {
	p, err := storage.ParsePrefix(s)
	if nil != err {
		panic(err)
	}
	return p
}

// commit consecutive levels, failing the test on error
func commitAll(t *testing.T, s *storage.Store, first uint64, diffs ...storage.Diff) {
	t.Helper()
	for i, d := range diffs {
		err := s.Commit(first+uint64(i), d)
		if nil != err {
			t.Fatalf("commit level: %d  error: %s", first+uint64(i), err)
		}
	}
}
