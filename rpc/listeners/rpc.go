// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"crypto/tls"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/metrics"
	"github.com/bitmark-inc/logger"
)

const (
	logName            = "client_rpc"
	minConnectionCount = 1
)

// RPCConfiguration - configuration file data for RPC setup,
// TLS is used when both certificate and key are given
type RPCConfiguration struct {
	MaximumConnections uint64   `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
}

type rpcListener struct {
	sync.Mutex
	log            *logger.L
	count          *counter.Counter
	server         *rpc.Server
	maxConnections uint64
	tlsConfig      *tls.Config
	networks       []string
	addresses      []string
	listeners      []net.Listener
}

// NewRPC - JSON-RPC over TCP, a nil TLS configuration serves plain text
func NewRPC(
	configuration *RPCConfiguration,
	log *logger.L,
	count *counter.Counter,
	server *rpc.Server,
	tlsConfig *tls.Config,
) (Listener, error) {
	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid %s maximum connection limit: %d", logName, configuration.MaximumConnections)
		return nil, fault.MissingParameters
	}

	if 0 == len(configuration.Listen) {
		log.Errorf("missing %s listen", logName)
		return nil, fault.MissingParameters
	}

	// validate all listen addresses
	networks, addresses, err := parseListenAddress(configuration.Listen, log)
	if nil != err {
		return nil, err
	}

	return &rpcListener{
		log:            log,
		count:          count,
		server:         server,
		maxConnections: configuration.MaximumConnections,
		tlsConfig:      tlsConfig,
		networks:       networks,
		addresses:      addresses,
	}, nil
}

// Serve - bind every address and accept in the background
func (r *rpcListener) Serve() error {
	r.Lock()
	defer r.Unlock()

	for i, listen := range r.addresses {
		r.log.Infof("starting RPC server: %s", listen)

		var l net.Listener
		var err error
		if nil == r.tlsConfig {
			l, err = net.Listen(r.networks[i], listen)
		} else {
			l, err = tls.Listen(r.networks[i], listen, r.tlsConfig)
		}
		if nil != err {
			r.log.Errorf("rpc server listen error: %s", err)
			return err
		}
		r.listeners = append(r.listeners, l)

		go doServeRPC(l, r.server, r.maxConnections, r.log, r.count)
	}
	return nil
}

// Stop - close the listening sockets, open connections finish their calls
func (r *rpcListener) Stop() error {
	r.Lock()
	defer r.Unlock()

	if 0 == len(r.listeners) {
		return fault.NotStarted
	}
	for _, l := range r.listeners {
		_ = l.Close()
	}
	r.listeners = nil
	return nil
}

func doServeRPC(listen net.Listener, server *rpc.Server, maximumConnections uint64, log *logger.L, count *counter.Counter) {
	for {
		conn, err := listen.Accept()
		if nil != err {
			log.Infof("rpc server accept terminated: %s", err)
			break
		}
		if count.Increment() <= maximumConnections {
			metrics.RPCConnectionGauge.Inc()
			go func() {
				server.ServeCodec(jsonrpc.NewServerCodec(conn))
				_ = conn.Close()
				count.Decrement()
				metrics.RPCConnectionGauge.Dec()
			}()
		} else {
			count.Decrement()
			log.Warnf("connection limit reached, refused: %s", conn.RemoteAddr())
			_ = conn.Close()
		}
	}
	_ = listen.Close()
}
