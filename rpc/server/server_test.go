// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server_test

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/contextd/counter"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/rpc/context"
	"github.com/bitmark-inc/contextd/rpc/node"
	"github.com/bitmark-inc/contextd/rpc/server"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

var address string

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()

	store := storage.New()
	c := counter.Counter(0)
	r := server.Create(logger.New(fixtures.LogCategory), "1.0", store, &c, 0, 0)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if nil != err {
		panic(err)
	}
	address = l.Addr().String()

	go func() {
		for {
			conn, err := l.Accept()
			if nil != err {
				return
			}
			go r.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()

	rc := m.Run()

	_ = l.Close()
	_ = store.Close()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func dial(t *testing.T) *rpc.Client {
	client, err := jsonrpc.Dial("tcp", address)
	require.Nil(t, err, "dial error")
	return client
}

// following tests make sure proper methods are registered to server,
// each call runs against an empty store

func TestNodeInfo(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply node.InfoReply
	err := client.Call("Node.Info", &node.InfoArguments{}, &reply)
	assert.Nil(t, err, "wrong Node.Info")
	assert.Equal(t, "1.0", reply.Version, "wrong version")
	assert.True(t, reply.Context.Empty, "wrong empty")
}

func TestContextHead(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply context.HeadReply
	err := client.Call("Context.Head", &context.HeadArguments{}, &reply)
	assert.NotNil(t, err, "wrong Context.Head")
	assert.Contains(t, err.Error(), fault.LevelNotFound.Error(), "wrong reply")
}

func TestContextDelegate(t *testing.T) {
	client := dial(t)
	defer client.Close()

	arg := context.DelegateArguments{
		Block:    "head",
		Delegate: "not-an-address",
	}
	var reply context.DelegateReply
	err := client.Call("Context.Delegate", &arg, &reply)
	assert.NotNil(t, err, "wrong Context.Delegate")
	assert.Contains(t, err.Error(), fault.InvalidAddress.Error(), "wrong reply")
}

func TestContextCommit(t *testing.T) {
	client := dial(t)
	defer client.Close()

	arg := context.CommitArguments{
		Level: 1,
		Entries: []context.CommitEntry{
			{Path: "data/v1/nothing", Value: "00"},
		},
	}
	var reply context.CommitReply
	err := client.Call("Context.Commit", &arg, &reply)
	assert.Nil(t, err, "wrong Context.Commit")
	assert.Equal(t, uint64(1), reply.Head, "wrong head")

	var info node.InfoReply
	err = client.Call("Node.Info", &node.InfoArguments{}, &info)
	assert.Nil(t, err, "wrong Node.Info")
	assert.Equal(t, uint64(1), info.Context.Head, "wrong head")
}
