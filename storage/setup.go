// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/bitmark-inc/contextd/fault"
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// holds the process wide store
var globalData struct {
	sync.Mutex
	store *Store
}

// Initialise - open the process wide store
//
// an empty database name gives a memory only store
func Initialise(database string, readOnly bool) error {
	globalData.Lock()
	defer globalData.Unlock()

	if nil != globalData.store {
		return fault.AlreadyInitialised
	}

	if "" == database {
		globalData.store = New()
		globalData.store.log.Info("memory only store")
		return nil
	}

	s, err := Open(database, readOnly)
	if nil != err {
		return err
	}
	globalData.store = s
	s.log.Infof("opened database: %s  read only: %t", database, readOnly)
	return nil
}

// Finalise - close the process wide store
func Finalise() {
	globalData.Lock()
	defer globalData.Unlock()

	if nil == globalData.store {
		return
	}
	err := globalData.store.Close()
	if nil != err {
		globalData.store.log.Errorf("close error: %s", err)
	}
	globalData.store = nil
}

// Context - the process wide store, nil before Initialise
func Context() *Store {
	globalData.Lock()
	defer globalData.Unlock()
	return globalData.store
}
