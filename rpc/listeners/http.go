// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/rpc/handler"
	"github.com/bitmark-inc/logger"
)

const (
	httpLogName      = "http_rpc"
	readWriteTimeout = 10 * time.Second
	keepAlivePeriod  = 3 * time.Minute
)

// HTTPConfiguration - configuration file data for HTTP setup,
// TLS is used when both certificate and key are given
type HTTPConfiguration struct {
	MaximumConnections uint64              `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string            `gluamapper:"listen" json:"listen"`
	Certificate        string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string              `gluamapper:"private_key" json:"private_key"`
	Allow              map[string][]string `gluamapper:"allow" json:"allow"`
}

type httpListener struct {
	sync.Mutex
	log       *logger.L
	networks  []string
	addresses []string
	tlsConfig *tls.Config
	mux       *http.ServeMux
	servers   []*http.Server
}

// NewHTTP - JSON-RPC bridge, details and metrics over HTTP,
// returns nil when no listen address is configured
func NewHTTP(
	configuration *HTTPConfiguration,
	log *logger.L,
	tlsConfig *tls.Config,
	hdlr handler.Handler,
) (Listener, error) {
	if 0 == len(configuration.Listen) {
		log.Infof("disable: %s", httpLogName)
		return nil, nil
	}

	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid %s maximum connection limit: %d", httpLogName, configuration.MaximumConnections)
		return nil, fault.MissingParameters
	}

	networks, addresses, err := parseListenAddress(configuration.Listen, log)
	if nil != err {
		return nil, err
	}

	// create access control
	local := make(map[string][]*net.IPNet)
	for path, cidrs := range configuration.Allow {
		set := make([]*net.IPNet, len(cidrs))
		local[path] = set
		for i, ip := range cidrs {
			_, cidr, err := net.ParseCIDR(strings.Trim(ip, " "))
			if nil != err {
				log.Errorf("%s allow: %q  error: %s", httpLogName, ip, err)
				return nil, err
			}
			set[i] = cidr
		}
	}
	hdlr.SetAllow(local)

	h := &httpListener{
		log:       log,
		networks:  networks,
		addresses: addresses,
		tlsConfig: tlsConfig,
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("/contextd/rpc", hdlr.RPC)
	h.mux.HandleFunc("/contextd/details", hdlr.Details)
	h.mux.HandleFunc("/metrics", hdlr.Metrics)
	h.mux.HandleFunc("/", hdlr.Root)

	return h, nil
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if nil != err {
		return nil, err
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}

// Serve - bind every address and serve in the background
func (h *httpListener) Serve() error {
	h.Lock()
	defer h.Unlock()

	for i, listen := range h.addresses {
		h.log.Infof("starting server: %s on: %q", httpLogName, listen)

		ln, err := net.Listen(h.networks[i], listen)
		if nil != err {
			h.log.Errorf("%s listen error: %s", httpLogName, err)
			return err
		}
		var l net.Listener = tcpKeepAliveListener{ln.(*net.TCPListener)}
		if nil != h.tlsConfig {
			cfg := h.tlsConfig.Clone()
			cfg.NextProtos = []string{"http/1.1"}
			l = tls.NewListener(l, cfg)
		}

		s := &http.Server{
			Addr:           listen,
			Handler:        h.mux,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		h.servers = append(h.servers, s)

		go func() {
			err := s.Serve(l)
			if http.ErrServerClosed != err {
				h.log.Errorf("%s terminated: %s", httpLogName, err)
			}
		}()
	}

	return nil
}

// Stop - close the servers
func (h *httpListener) Stop() error {
	h.Lock()
	defer h.Unlock()

	if 0 == len(h.servers) {
		return fault.NotStarted
	}
	for _, s := range h.servers {
		_ = s.Close()
	}
	h.servers = nil
	return nil
}
