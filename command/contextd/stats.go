// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/bitmark-inc/contextd/metrics"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

// periodic heap gauge and head report,
// full memory statistics are logged only on request
type statistics struct {
	log      *logger.L
	store    storage.Handle
	memory   bool
	interval time.Duration
}

func newStatistics(store storage.Handle, memory bool) *statistics {
	return &statistics{
		log:      logger.New("memory"),
		store:    store,
		memory:   memory,
		interval: statsDelay,
	}
}

func (s *statistics) Run(args interface{}, shutdown <-chan struct{}) {
	s.log.Info("starting…")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.report()
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			s.report()
		}
	}

	s.log.Info("stopped")
}

func (s *statistics) report() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.ProcessHeapGauge.Set(float64(m.HeapAlloc))

	if s.memory {
		text, err := json.Marshal(m)
		if nil != err {
			s.log.Errorf("marshal error: %s", err)
		} else {
			s.log.Infof("stats: %s", text)
		}
		a := m.Alloc / mega
		t := m.TotalAlloc / mega
		v := m.Sys / mega
		s.log.Warnf("allocated: %d M  cumulative: %d M  OS virtual: %d M", a, t, v)
	}

	if head, ok := s.store.Head(); ok {
		genesis, _ := s.store.Genesis()
		s.log.Infof("context genesis: %d  head: %d", genesis, head)
	} else {
		s.log.Info("context empty")
	}
}
