// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

// access controlled paths
const (
	detailsPath = "details"
	metricsPath = "metrics"
)

// Handler - HTTP endpoints of the node
type Handler interface {
	Root(http.ResponseWriter, *http.Request)
	RPC(http.ResponseWriter, *http.Request)
	Details(http.ResponseWriter, *http.Request)
	Metrics(http.ResponseWriter, *http.Request)
	SetAllow(map[string][]*net.IPNet)
}

// type to allow rpc system to interface to http request
type internalConnection struct {
	in  io.Reader
	out io.Writer
}

func (c *internalConnection) Read(p []byte) (n int, err error) {
	return c.in.Read(p)
}

func (c *internalConnection) Write(d []byte) (n int, err error) {
	return c.out.Write(d)
}

func (c *internalConnection) Close() error {
	return nil
}

type handler struct {
	log                *logger.L
	server             *rpc.Server
	store              storage.Handle
	start              time.Time
	version            string
	allow              map[string][]*net.IPNet
	count              counter.Counter
	maximumConnections uint64
	metrics            http.Handler
}

// New - HTTP handler bridging JSON-RPC over POST
func New(log *logger.L, server *rpc.Server, store storage.Handle, start time.Time, version string, maximumConnections uint64) Handler {
	return &handler{
		log:                log,
		server:             server,
		store:              store,
		start:              start,
		version:            version,
		allow:              make(map[string][]*net.IPNet),
		maximumConnections: maximumConnections,
		metrics:            promhttp.Handler(),
	}
}

// SetAllow - networks permitted on the restricted paths
func (h *handler) SetAllow(allow map[string][]*net.IPNet) {
	h.allow = allow
}

// Root - this matches anything not matched and returns error
func (h *handler) Root(w http.ResponseWriter, _ *http.Request) {
	sendNotFound(w)
}

// RPC - performs a call to any normal RPC
func (h *handler) RPC(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if h.count.Increment() > h.maximumConnections {
		h.count.Decrement()
		sendTooManyRequestsError(w)
		return
	}
	defer h.count.Decrement()

	if nil == r.Body {
		sendInternalServerError(w)
		return
	}

	serverCodec := jsonrpc.NewServerCodec(&internalConnection{in: r.Body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err := h.server.ServeRequest(serverCodec)
	if nil != err {
		h.log.Warnf("serve request error: %s", err)
		sendInternalServerError(w)
		return
	}
}

// Details - to allow a GET for the same response as Node.Info
func (h *handler) Details(w http.ResponseWriter, r *http.Request) {
	if !h.permitted(w, r, detailsPath) {
		return
	}

	if h.count.Increment() > h.maximumConnections {
		h.count.Decrement()
		sendTooManyRequestsError(w)
		return
	}
	defer h.count.Decrement()

	type levels struct {
		Genesis uint64 `json:"genesis"`
		Head    uint64 `json:"head"`
		Empty   bool   `json:"empty"`
	}
	type reply struct {
		Version     string `json:"version"`
		Uptime      string `json:"uptime"`
		Connections uint64 `json:"connections"`
		Context     levels `json:"context"`
	}

	info := reply{
		Version:     h.version,
		Uptime:      time.Since(h.start).String(),
		Connections: h.count.Uint64(),
	}
	head, ok := h.store.Head()
	info.Context.Empty = !ok
	if ok {
		info.Context.Head = head
		info.Context.Genesis, _ = h.store.Genesis()
	}

	sendReply(w, info)
}

// Metrics - prometheus exposition of the registered collectors
func (h *handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !h.permitted(w, r, metricsPath) {
		return
	}
	h.metrics.ServeHTTP(w, r)
}

// check method and remote address, send the error response if refused
func (h *handler) permitted(w http.ResponseWriter, r *http.Request, path string) bool {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return false
	}

	last := strings.LastIndex(r.RemoteAddr, ":")
	if last >= 0 {
		ip := net.ParseIP(strings.Trim(r.RemoteAddr[:last], "[]"))
		if nil != ip {
			for _, network := range h.allow[path] {
				if network.Contains(ip) {
					return true
				}
			}
		}
	}

	h.log.Warnf("deny access: %q  path: %s", r.RemoteAddr, path)
	sendForbidden(w)
	return false
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(text)
}

// selected errors as required above
func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}

func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}

func sendTooManyRequestsError(w http.ResponseWriter) {
	sendError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}
