// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/rpc/ratelimit"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Node - type for RPC calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	Store   storage.Handle
	counter *counter.Counter
}

// New - node information service
func New(log *logger.L, store storage.Handle, start time.Time, version string, counter *counter.Counter) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
		Store:   store,
		counter: counter,
	}
}

// ---

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Version string    `json:"version"`
	Uptime  string    `json:"uptime"`
	RPCs    uint64    `json:"rpcs"`
	Context LevelInfo `json:"context"`
}

// LevelInfo - the committed range of the context store,
// both zero while nothing is committed
type LevelInfo struct {
	Genesis uint64 `json:"genesis"`
	Head    uint64 `json:"head"`
	Empty   bool   `json:"empty"`
}

// Info - return some information about this node
// only enough for clients to determine node state
// for more detail information use HTTP GET requests
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	if nil == node.Store {
		return fault.NotInitialised
	}

	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	reply.RPCs = node.counter.Uint64()

	head, ok := node.Store.Head()
	reply.Context.Empty = !ok
	if ok {
		reply.Context.Head = head
		reply.Context.Genesis, _ = node.Store.Genesis()
	}
	return nil
}
