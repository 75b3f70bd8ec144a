// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics

import prom "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "contextd"

	SubsystemStorage = "storage"
	SubsystemRPC     = "rpc"
	SubsystemProcess = "process"

	LabelOperation = "operation"
	LabelMethod    = "method"
	LabelResult    = "result"
)

// result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// storage
var (
	StorageCommitCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "commit_total",
			Help:      "Total number of level commits.",
		},
		[]string{LabelResult})
	StorageHeadGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "head_level",
			Help:      "Highest committed level.",
		})
	StorageLookupCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "lookup_total",
			Help:      "Total number of context lookups.",
		},
		[]string{LabelOperation})
	StorageLookupHops = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "lookup_hops",
			Help:      "Histogram of index windows visited per lookup.",
			Buckets:   prom.LinearBuckets(1, 2, 16),
		},
		[]string{LabelOperation})
	StoragePrefixCacheCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemStorage,
			Name:      "prefix_cache_total",
			Help:      "Total number of prefix scan cache hits and misses.",
		},
		[]string{LabelResult})
)

// rpc
var (
	RPCCallCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRPC,
			Name:      "call_total",
			Help:      "Total number of rpc calls.",
		},
		[]string{LabelMethod, LabelResult})
	RPCCallHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRPC,
			Name:      "cost_seconds",
			Help:      "Histogram of rpc call latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelMethod})
	RPCConnectionGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRPC,
			Name:      "connections",
			Help:      "Number of open rpc connections.",
		})
)

// process
var (
	ProcessHeapGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemProcess,
			Name:      "heap_alloc_bytes",
			Help:      "Bytes of allocated heap objects.",
		})
)

// RegisterMetrics - add every collector to the default registry
func RegisterMetrics() {
	RegisterMetricsWith(prom.DefaultRegisterer)
}

// RegisterMetricsWith - add every collector to a specific registry
func RegisterMetricsWith(r prom.Registerer) {
	// storage
	r.MustRegister(StorageCommitCounter)
	r.MustRegister(StorageHeadGauge)
	r.MustRegister(StorageLookupCounter)
	r.MustRegister(StorageLookupHops)
	r.MustRegister(StoragePrefixCacheCounter)
	// rpc
	r.MustRegister(RPCCallCounter)
	r.MustRegister(RPCCallHistogram)
	r.MustRegister(RPCConnectionGauge)
	// process
	r.MustRegister(ProcessHeapGauge)
}
