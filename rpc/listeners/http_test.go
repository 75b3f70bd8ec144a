// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners_test

import (
	"io/ioutil"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/rpc/listeners"
	"github.com/bitmark-inc/logger"
)

type testHandler struct {
	allow map[string][]*net.IPNet
}

func (h *testHandler) RPC(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("RPC"))
}

func (h *testHandler) Details(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("Details"))
}

func (h *testHandler) Metrics(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("Metrics"))
}

func (h *testHandler) Root(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("Root"))
}

func (h *testHandler) SetAllow(allow map[string][]*net.IPNet) {
	h.allow = allow
}

func get(t *testing.T, url string) string {
	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	var err error

	// the server goroutine may not be accepting yet
	for i := 0; i < 20; i += 1 {
		resp, err = client.Get(url)
		if nil == err {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Nil(t, err, "get: %s", url)
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	require.Nil(t, err, "read body")
	return string(b)
}

func TestHTTPListenerServe(t *testing.T) {
	listen := randomListen()
	conf := listeners.HTTPConfiguration{
		MaximumConnections: 5,
		Listen:             []string{listen},
		Allow: map[string][]string{
			"details": {"127.0.0.1/32"},
			"metrics": {" 127.0.0.0/8 "},
		},
	}

	h := &testHandler{}
	l, err := listeners.NewHTTP(&conf, logger.New(fixtures.LogCategory), nil, h)
	require.Nil(t, err, "wrong NewHTTP")
	require.NotNil(t, l, "disabled listener")
	assert.Equal(t, 2, len(h.allow), "wrong allow")
	assert.Equal(t, "127.0.0.0/8", h.allow["metrics"][0].String(), "wrong metrics network")

	err = l.Serve()
	require.Nil(t, err, "wrong Serve")
	defer l.Stop()

	base := "http://" + listen
	assert.Equal(t, "RPC", get(t, base+"/contextd/rpc"), "wrong rpc route")
	assert.Equal(t, "Details", get(t, base+"/contextd/details"), "wrong details route")
	assert.Equal(t, "Metrics", get(t, base+"/metrics"), "wrong metrics route")
	assert.Equal(t, "Root", get(t, base+"/other"), "wrong root route")
}

func TestHTTPListenerDisabled(t *testing.T) {
	conf := listeners.HTTPConfiguration{
		MaximumConnections: 5,
	}
	l, err := listeners.NewHTTP(&conf, logger.New(fixtures.LogCategory), nil, &testHandler{})
	assert.Nil(t, err, "wrong error")
	assert.Nil(t, l, "wrong listener")
}

func TestHTTPListenerWhenMaxConnectionCountTooSmall(t *testing.T) {
	conf := listeners.HTTPConfiguration{
		MaximumConnections: 0,
		Listen:             []string{randomListen()},
	}
	_, err := listeners.NewHTTP(&conf, logger.New(fixtures.LogCategory), nil, &testHandler{})
	assert.Equal(t, fault.MissingParameters, err, "wrong error")
}

func TestHTTPListenerWhenInvalidAllow(t *testing.T) {
	conf := listeners.HTTPConfiguration{
		MaximumConnections: 5,
		Listen:             []string{randomListen()},
		Allow: map[string][]string{
			"details": {"127.0.0.1"},
		},
	}
	_, err := listeners.NewHTTP(&conf, logger.New(fixtures.LogCategory), nil, &testHandler{})
	assert.NotNil(t, err, "wrong error")
}
