// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rights_test

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/rights"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/storage/mocks"
)

// Carthage constants: preserved_cycles 5, blocks_per_cycle 4096,
// endorsers_per_block 32, time_between_blocks [60, 40]
const carthageConstants = "050000100000000020000001000000800000000010000000000000003c0000000000000028002080fa7e80c4f50900003fffffffffff80a0d9e61d03e8c8d00700000101808092f40180a0c21e" +
	"00000003d0a54c00000003d0a54c" +
	"e807a0a90700000000001e0000000007d000001b58000001f400180000000000000008"

const (
	bakerA = "tz1bqaaHdXY8sx6SLQUsQMuheL1SiGGvhwmF"
	bakerB = "tz3WXYtyDUNL91qfiCJtVUX746QpNv5i5ve5"

	keyA = "00000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	keyB = "0202db58471f14e5286a13a30b29c6c685649bfd312e8b80b100a7f1307cabd4ca86"
)

const blockLevel = 10

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if nil != err {
		panic(err)
	}
	return b
}

func seed() []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = byte(100 + i)
	}
	return b
}

// cycle 0 samples snapshot 3 with rolls 0 … 3, roll 3 has no owner
func rightsStore(t *testing.T) *storage.Store {
	s := storage.New()
	err := s.Commit(blockLevel, storage.Diff{
		"data/cycle/0/random_seed":            storage.Exists(seed()),
		"data/cycle/0/roll_snapshot":          storage.Exists([]byte{0, 3}),
		"data/cycle/0/last_roll/3":            storage.Exists([]byte{0, 0, 0, 4}),
		"data/rolls/owner/snapshot/0/3/0/0/0": storage.Exists(mustHex(keyA)),
		"data/rolls/owner/snapshot/0/3/1/0/1": storage.Exists(mustHex(keyB)),
		"data/rolls/owner/snapshot/0/3/2/0/2": storage.Exists(mustHex(keyA)),
		"data/rolls/owner/snapshot/0/3/3/0/3": storage.Deleted(),
		"data/rolls/owner/snapshot/0/2/3/0/3": storage.Exists(mustHex(keyB)),
		"data/rolls/owner/current/0/0/0":      storage.Exists(mustHex(keyB)),
		"data/cycle/0/last_roll/2":            storage.Exists([]byte{0, 0, 0, 9}),
	})
	require.Nil(t, err, "commit error")
	return s
}

func parameters(t *testing.T, version protocol.Version) *protocol.Parameters {
	c, err := protocol.DecodeConstants(protocol.Proto006, mustHex(carthageConstants))
	require.Nil(t, err, "constants error")
	return &protocol.Parameters{
		Level:     blockLevel,
		Version:   version,
		Constants: c,
	}
}

func pkh(t *testing.T, s string) account.PublicKeyHash {
	p, err := account.PublicKeyHashFromString(s)
	require.Nil(t, err, "address")
	return p
}

func int64p(n int64) *int64 {
	return &n
}

func TestBakingRights(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	r, err := rights.BakingRights(s, parameters(t, protocol.Proto006), rights.BakingRequest{})
	require.Nil(t, err, "baking rights error")

	require.Equal(t, 2, len(r), "best priorities")
	assert.Equal(t, int64(blockLevel+1), r[0].Level, "default level")
	assert.Equal(t, bakerA, r[0].Delegate.String(), "priority 0 baker")
	assert.Equal(t, 0, r[0].Priority, "first priority")
	assert.Equal(t, bakerB, r[1].Delegate.String(), "second baker")
	assert.Equal(t, 3, r[1].Priority, "second priority")
	assert.Nil(t, r[0].EstimatedTime, "time without timestamp")

	again, err := rights.BakingRights(s, parameters(t, protocol.Proto005_2), rights.BakingRequest{})
	require.Nil(t, err, "repeat error")
	assert.Equal(t, r, again, "sampling is deterministic")
}

func TestAllBakingRights(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	r, err := rights.BakingRights(s, parameters(t, protocol.Proto006), rights.BakingRequest{All: true})
	require.Nil(t, err, "baking rights error")
	require.Equal(t, rights.DefaultMaxPriority, len(r), "every priority")

	expected := []string{bakerA, bakerA, bakerA, bakerB, bakerA, bakerA, bakerB, bakerA, bakerA, bakerA}
	for i, address := range expected {
		assert.Equal(t, i, r[i].Priority, "%d: priority", i)
		assert.Equal(t, address, r[i].Delegate.String(), "%d: delegate", i)
	}

	r, err = rights.BakingRights(s, parameters(t, protocol.Proto006), rights.BakingRequest{
		Request:     rights.Request{Delegates: []account.PublicKeyHash{pkh(t, bakerB)}},
		MaxPriority: 10,
		All:         true,
	})
	require.Nil(t, err, "filtered error")
	require.Equal(t, 2, len(r), "filtered count")
	for _, right := range r {
		assert.Equal(t, bakerB, right.Delegate.String(), "filtered delegate")
	}
	assert.Equal(t, 3, r[0].Priority, "first filtered priority")
}

func TestBakingEstimatedTime(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	timestamp := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := rights.BakingRights(s, parameters(t, protocol.Proto006), rights.BakingRequest{
		Request: rights.Request{Timestamp: &timestamp},
	})
	require.Nil(t, err, "baking rights error")
	require.Equal(t, 2, len(r), "best priorities")
	require.NotNil(t, r[0].EstimatedTime, "priority 0 time")
	assert.Equal(t, timestamp.Add(60*time.Second), *r[0].EstimatedTime, "priority 0 time")
	assert.Equal(t, timestamp.Add(180*time.Second), *r[1].EstimatedTime, "priority 3 time")

	b, err := json.Marshal(rights.BakingTree(r[:1]))
	require.Nil(t, err, "marshal error")
	assert.Equal(t, `[{"delegate":"`+bakerA+`","estimated_time":"2020-03-01T12:01:00Z","level":11,"priority":0}]`, string(b), "json")

	// the block's own level has no estimate
	r, err = rights.BakingRights(s, parameters(t, protocol.Proto006), rights.BakingRequest{
		Request: rights.Request{Level: int64p(blockLevel), Timestamp: &timestamp},
	})
	require.Nil(t, err, "block level error")
	assert.Nil(t, r[0].EstimatedTime, "block level time")
}

func TestEndorsingRights(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	r, err := rights.EndorsingRights(s, parameters(t, protocol.Proto006), rights.Request{})
	require.Nil(t, err, "endorsing rights error")
	require.Equal(t, 2, len(r), "endorsers")

	assert.Equal(t, int64(blockLevel), r[0].Level, "default level")
	assert.Equal(t, bakerB, r[0].Delegate.String(), "first endorser")
	assert.Equal(t, []int{0, 2, 4, 9, 10, 12, 13, 16, 17, 18, 19, 20, 22, 25, 26, 27, 31}, r[0].Slots, "first slots")
	assert.Equal(t, bakerA, r[1].Delegate.String(), "second endorser")
	assert.Equal(t, []int{1, 3, 5, 6, 7, 8, 11, 14, 15, 21, 23, 24, 28, 29, 30}, r[1].Slots, "second slots")
	assert.Nil(t, r[0].EstimatedTime, "block level time")

	b, err := json.Marshal(rights.EndorsingTree(r[1:]))
	require.Nil(t, err, "marshal error")
	assert.True(t, strings.HasPrefix(string(b), `[{"delegate":"`+bakerA+`","level":10,"slots":[1,3,5,`), "json: %s", b)
}

func TestEndorsingEstimatedTime(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	timestamp := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := rights.EndorsingRights(s, parameters(t, protocol.Proto006), rights.Request{
		Level:     int64p(blockLevel + 2),
		Delegates: []account.PublicKeyHash{pkh(t, bakerA)},
		Timestamp: &timestamp,
	})
	require.Nil(t, err, "endorsing rights error")
	require.Equal(t, 1, len(r), "filtered endorsers")
	assert.Equal(t, bakerA, r[0].Delegate.String(), "endorser")
	require.NotNil(t, r[0].EstimatedTime, "estimated time")
	assert.Equal(t, timestamp.Add(120*time.Second), *r[0].EstimatedTime, "estimated time")
}

func TestInvalidRequests(t *testing.T) {
	s := rightsStore(t)
	defer s.Close()

	params := parameters(t, protocol.Proto006)
	requests := []rights.Request{
		{Level: int64p(0)},
		{Cycle: int64p(6)},
		{Cycle: int64p(-1)},
		{Level: int64p(6*4096 + 1)},
	}
	for i, request := range requests {
		_, err := rights.EndorsingRights(s, params, request)
		assert.True(t, fault.Is(err, fault.InvalidRequest), "%d: endorsing error: %v", i, err)
		_, err = rights.BakingRights(s, params, rights.BakingRequest{Request: request})
		assert.True(t, fault.Is(err, fault.InvalidRequest), "%d: baking error: %v", i, err)
	}

	_, err := rights.BakingRights(s, params, rights.BakingRequest{MaxPriority: -1})
	assert.True(t, fault.Is(err, fault.InvalidRequest), "negative priority: %v", err)

	// cycle 1 is allowed but was never sampled
	_, err = rights.BakingRights(s, params, rights.BakingRequest{Request: rights.Request{Level: int64p(4097)}})
	assert.True(t, fault.Is(err, fault.MandatoryKeyMissing), "unsampled cycle: %v", err)
}

func TestUnsupportedVersions(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// no context access is made
	r := mocks.NewMockReader(ctl)

	for _, v := range []protocol.Version{protocol.Proto001, protocol.Proto003, protocol.Proto004, protocol.Proto005} {
		_, err := rights.BakingRights(r, parameters(t, v), rights.BakingRequest{})
		assert.True(t, fault.Is(err, fault.UnsupportedProtocol), "%s: baking error: %v", v, err)
		_, err = rights.EndorsingRights(r, parameters(t, v), rights.Request{})
		assert.True(t, fault.Is(err, fault.UnsupportedProtocol), "%s: endorsing error: %v", v, err)
	}
}

func TestLevelBeyondInt32(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// rejected before any context access
	r := mocks.NewMockReader(ctl)

	params := parameters(t, protocol.Proto006)
	params.Level = math.MaxInt32

	_, err := rights.BakingRights(r, params, rights.BakingRequest{})
	assert.True(t, fault.Is(err, fault.InvalidRequest), "baking error: %v", err)

	_, err = rights.EndorsingRights(r, params, rights.Request{Level: int64p(math.MaxInt32 + 1)})
	assert.True(t, fault.Is(err, fault.InvalidRequest), "endorsing error: %v", err)
}

func TestMissingOwners(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockReader(ctl)
	r.EXPECT().Get(uint64(blockLevel), gomock.Any()).DoAndReturn(
		func(_ uint64, p storage.Path) (storage.Bucket, error) {
			switch p.String() {
			case "data/cycle/0/random_seed":
				return storage.Exists(seed()), nil
			case "data/cycle/0/roll_snapshot":
				return storage.Exists([]byte{0, 0}), nil
			case "data/cycle/0/last_roll/0":
				return storage.Exists([]byte{0, 0, 0, 2}), nil
			}
			return storage.Bucket{}, fault.PathNotFound
		}).AnyTimes()

	_, err := rights.BakingRights(r, parameters(t, protocol.Proto006), rights.BakingRequest{})
	assert.True(t, fault.Is(err, fault.MandatoryKeyMissing), "error: %v", err)
}
