// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/contextd/counter"
)

func TestCounter(t *testing.T) {
	var c counter.Counter
	assert.True(t, c.IsZero(), "zero at start")

	for i := 0; i < 5; i += 1 {
		c.Increment()
	}
	assert.Equal(t, uint64(5), c.Uint64(), "after increments")

	assert.Equal(t, uint64(4), c.Decrement(), "decrement result")
	for i := 0; i < 4; i += 1 {
		c.Decrement()
	}
	assert.True(t, c.IsZero(), "back to zero")

	// twos complement -1
	c.Decrement()
	assert.Equal(t, ^uint64(0), c.Uint64(), "underflow")
}

func TestConcurrentConnections(t *testing.T) {
	var c counter.Counter
	var wg sync.WaitGroup

	for i := 0; i < 50; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment()
			c.Decrement()
			c.Increment()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), c.Uint64(), "open connections")
}
