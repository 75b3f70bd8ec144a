// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"net/rpc"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/rpc/handler"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/logger"
)

const (
	notAllowed      = "method not allowed"
	tooManyRequests = "Too Many Requests"
)

type eResp struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type jResp struct {
	ID     int         `json:"id"`
	Result int         `json:"result"`
	Error  interface{} `json:"error"`
}

type jReq struct {
	ID     int      `json:"id"`
	Method string   `json:"method"`
	Params []AddArg `json:"params"`
}

type Add struct{}
type AddArg struct {
	A int `json:"A"`
	B int `json:"B"`
}

func (a Add) Add(arg *AddArg, reply *int) error {
	*reply = arg.A + arg.B
	return nil
}

func newHandler(maximumConnections uint64) (handler.Handler, *storage.Store) {
	s := rpc.NewServer()
	_ = s.Register(Add{})
	store := storage.New()
	h := handler.New(
		logger.New(fixtures.LogCategory),
		s,
		store,
		time.Now(),
		"1.0",
		maximumConnections,
	)
	return h, store
}

func allowTestNet(h handler.Handler, path string) {
	allow := make(map[string][]*net.IPNet)
	_, ipNet, _ := net.ParseCIDR("192.0.2.0/24")
	allow[path] = []*net.IPNet{ipNet}
	h.SetAllow(allow)
}

func TestRoot(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()

	req := httptest.NewRequest("GET", "http://not.found", nil)
	w := httptest.NewRecorder()
	h.Root(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)

	assert.Equal(t, "not found", j.Error, "wrong response")
	assert.Equal(t, http.StatusNotFound, j.Code, "wrong http code")
}

func TestRPC(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()

	add := AddArg{
		A: 1,
		B: 2,
	}
	arg := jReq{
		ID:     5,
		Method: "Add.Add",
		Params: []AddArg{add},
	}
	data, _ := json.Marshal(arg)

	req := httptest.NewRequest("POST", "http://not.exist", bytes.NewReader(data))
	w := httptest.NewRecorder()
	h.RPC(w, req)

	resp := w.Result()
	var j jResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "wrong status code")
	assert.Equal(t, 5, j.ID, "wrong id")
	assert.Equal(t, add.A+add.B, j.Result, "wrong result")
	assert.Nil(t, j.Error, "wrong error")
}

func TestRPCWhenWrongHTTPMethod(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()

	req := httptest.NewRequest("GET", "http://not.exist", nil)
	w := httptest.NewRecorder()
	h.RPC(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, notAllowed, j.Error, "wrong method")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "wrong status code")
}

func TestRPCWhenTooManyConnections(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(0)
	defer store.Close()

	req := httptest.NewRequest("POST", "http://not.exist", nil)
	w := httptest.NewRecorder()
	h.RPC(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, tooManyRequests, j.Error, "wrong error")
}

func TestRPCWhenServeError(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()

	data, _ := json.Marshal(jReq{})

	req := httptest.NewRequest("POST", "http://not.exist", bytes.NewReader(data))
	w := httptest.NewRecorder()
	h.RPC(w, req)

	resp := w.Result()
	b, _ := ioutil.ReadAll(resp.Body)
	assert.Contains(t, string(b), "internal server error", "wrong response")
}

func TestDetails(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()
	allowTestNet(h, "details")

	err := store.Commit(3, storage.Diff{"data/x": storage.Exists([]byte{1})})
	assert.Nil(t, err, "wrong commit")

	req := httptest.NewRequest("GET", "http://test.com/contextd/details", nil)
	w := httptest.NewRecorder()
	h.Details(w, req)

	resp := w.Result()
	var j struct {
		Version string `json:"version"`
		Context struct {
			Genesis uint64 `json:"genesis"`
			Head    uint64 `json:"head"`
			Empty   bool   `json:"empty"`
		} `json:"context"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "wrong status code")
	assert.Equal(t, "1.0", j.Version, "wrong version")
	assert.Equal(t, uint64(3), j.Context.Head, "wrong head")
	assert.Equal(t, uint64(3), j.Context.Genesis, "wrong genesis")
	assert.False(t, j.Context.Empty, "wrong empty")
}

func TestDetailsWhenWrongHTTPMethod(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()
	allowTestNet(h, "details")

	req := httptest.NewRequest("POST", "http://not.exist", nil)
	w := httptest.NewRecorder()
	h.Details(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, notAllowed, j.Error, "wrong method")
}

func TestDetailsWhenNotAllow(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()
	allowTestNet(h, "metrics")

	req := httptest.NewRequest("GET", "http://test.com", nil)
	w := httptest.NewRecorder()
	h.Details(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, "forbidden", j.Error, "wrong not allow")
	assert.Equal(t, http.StatusForbidden, j.Code, "wrong http code")
}

func TestDetailsWhenTooManyConnections(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(0)
	defer store.Close()
	allowTestNet(h, "details")

	req := httptest.NewRequest("GET", "http://not.exist", nil)
	w := httptest.NewRecorder()
	h.Details(w, req)

	resp := w.Result()
	var j eResp
	_ = json.NewDecoder(resp.Body).Decode(&j)
	assert.Equal(t, tooManyRequests, j.Error, "wrong error")
}

func TestMetrics(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	h, store := newHandler(5)
	defer store.Close()
	allowTestNet(h, "metrics")

	req := httptest.NewRequest("GET", "http://test.com/metrics", nil)
	w := httptest.NewRecorder()
	h.Metrics(w, req)

	resp := w.Result()
	b, _ := ioutil.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "wrong status code")
	assert.Contains(t, string(b), "go_goroutines", "wrong exposition")
}
