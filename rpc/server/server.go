// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/rpc/context"
	"github.com/bitmark-inc/contextd/rpc/node"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

// Create - an RPC server offering the Context and Node services,
// a zero rate keeps the default limits of the context queries
func Create(log *logger.L, version string, store storage.Handle, rpcCount *counter.Counter, limit rate.Limit, burst int) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(context.New(log, store, limit, burst))
	_ = server.Register(node.New(log, store, start, version, rpcCount))

	return server
}
