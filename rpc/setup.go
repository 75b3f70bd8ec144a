// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/rpc/certificate"
	"github.com/bitmark-inc/contextd/rpc/handler"
	"github.com/bitmark-inc/contextd/rpc/listeners"
	"github.com/bitmark-inc/contextd/rpc/server"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

const (
	rpcName  = "client_rpc"
	httpName = "http_rpc"
)

// LimitConfiguration - request rate of the context queries,
// zero selects the defaults
type LimitConfiguration struct {
	Rate  float64 `gluamapper:"rate" json:"rate"`
	Burst int     `gluamapper:"burst" json:"burst"`
}

// globals
type rpcData struct {
	sync.RWMutex // to allow locking

	log *logger.L // logger

	listeners []listeners.Listener

	// set once during initialise
	initialised bool
}

// global data
var globalData rpcData

// connection counters
var (
	connectionCountRPC counter.Counter
)

// Initialise - start the RPC and HTTP listeners over a store
func Initialise(
	rpcConfiguration *listeners.RPCConfiguration,
	httpConfiguration *listeners.HTTPConfiguration,
	limits *LimitConfiguration,
	version string,
	store storage.Handle,
) error {

	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	s := server.Create(log, version, store, &connectionCountRPC, rate.Limit(limits.Rate), limits.Burst)

	tlsConfig, _, err := certificate.Get(log, rpcName, rpcConfiguration.Certificate, rpcConfiguration.PrivateKey)
	if nil != err {
		return err
	}

	rpcListener, err := listeners.NewRPC(
		rpcConfiguration,
		log,
		&connectionCountRPC,
		s,
		tlsConfig,
	)
	if nil != err {
		return err
	}
	err = rpcListener.Serve()
	if nil != err {
		return err
	}
	globalData.listeners = append(globalData.listeners, rpcListener)

	httpTLS, _, err := certificate.Get(log, httpName, httpConfiguration.Certificate, httpConfiguration.PrivateKey)
	if nil != err {
		stop()
		return err
	}

	hdlr := handler.New(log, s, store, time.Now(), version, httpConfiguration.MaximumConnections)
	httpListener, err := listeners.NewHTTP(httpConfiguration, log, httpTLS, hdlr)
	if nil != err {
		stop()
		return err
	}
	if nil != httpListener {
		err = httpListener.Serve()
		if nil != err {
			stop()
			return err
		}
		globalData.listeners = append(globalData.listeners, httpListener)
	}

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - stop all listeners
func Finalise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	stop()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// must be called with the lock held
func stop() {
	for _, l := range globalData.listeners {
		_ = l.Stop()
	}
	globalData.listeners = nil
}
