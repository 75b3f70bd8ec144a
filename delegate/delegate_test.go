// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package delegate_test

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"os"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/delegate"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/fixtures"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/storage/mocks"
)

// 003 constants: preserved_cycles 3, blocks_per_cycle 2048, tokens_per_roll 8000
const constantsHex = "ff03ff000008000000ff00002000ff00000010000000000000001e0000000000000028" +
	"00000000" + "ffc03e" + "000000000000000000"

const (
	delegateAddress = "tz3WXYtyDUNL91qfiCJtVUX746QpNv5i5ve5"
	contractKey     = "data/contracts/index/08/69/5a/5b/fc/5a/00026fde46af0356a0476dae4e4600172dc9309b3aa4"
	delegateKey     = "0202db58471f14e5286a13a30b29c6c685649bfd312e8b80b100a7f1307cabd4ca86"
	otherKey        = "00000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

const level = 4097 // cycle 2

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

func path(s string) storage.Path {
	return storage.MustParsePath(s)
}

func constants(t *testing.T) *protocol.Constants {
	c, err := protocol.DecodeConstants(protocol.Proto003, mustHex(constantsHex))
	require.Nil(t, err, "constants")
	return c
}

func pkh(t *testing.T) account.PublicKeyHash {
	p, err := account.PublicKeyHashFromString(delegateAddress)
	require.Nil(t, err, "address")
	return p
}

// a reader answering Get from a fixed map and GetByPrefix from fixed lists
func expectValues(r *mocks.MockReader, values map[string]string) {
	r.EXPECT().Get(gomock.Eq(uint64(level)), gomock.Any()).DoAndReturn(
		func(_ uint64, p storage.Path) (storage.Bucket, error) {
			v, ok := values[p.String()]
			if !ok {
				return storage.Bucket{}, fault.PathNotFound
			}
			if "deleted" == v {
				return storage.Deleted(), nil
			}
			return storage.Exists(mustHex(v)), nil
		}).AnyTimes()
}

func entry(p string, v string) storage.Entry {
	if "deleted" == v {
		return storage.Entry{Path: path(p), Bucket: storage.Deleted()}
	}
	return storage.Entry{Path: path(p), Bucket: storage.Exists(mustHex(v))}
}

func TestDelegateBalances(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockReader(ctl)
	expectValues(r, map[string]string{
		contractKey + "/balance":                   "e807", // 1000
		contractKey + "/delegate_desactivation":    "00000007",
		contractKey + "/change":                    "0c", // 12
		contractKey + "/frozen_balance/0/fees":     "01",
		contractKey + "/frozen_balance/0/rewards":  "01",
		contractKey + "/frozen_balance/1/deposits": "32",
		contractKey + "/frozen_balance/1/fees":     "05",
		contractKey + "/frozen_balance/1/rewards":  "02",
		contractKey + "/frozen_balance/2/deposits": "64",
		contractKey + "/frozen_balance/2/fees":     "0a",
		contractKey + "/frozen_balance/2/rewards":  "05",
		contractKey + "/inactive_delegate":         "deleted",
	})

	r.EXPECT().GetByPrefix(uint64(level), path("data/rolls/owner/current")).Return([]storage.Entry{
		entry("data/rolls/owner/current/1/0/1", delegateKey),
		entry("data/rolls/owner/current/2/0/2", otherKey),
		entry("data/rolls/owner/current/3/0/3", delegateKey),
		entry("data/rolls/owner/current/4/0/4", "deleted"),
		entry("data/rolls/owner/current/5/0/5", delegateKey),
	}, nil)

	r.EXPECT().GetByPrefix(uint64(level), path(contractKey+"/delegated")).Return([]storage.Entry{
		entry(contractKey+"/delegated/89/8b/61/90/64/9f/0000e394872fcb92d975589fb2c5fd4aab3c7adc80f7", "696e69746564"),
		entry(contractKey+"/delegated/3c/0e/11/4b/07/38/016465666768696a6b6c6d6e6f707172737475767700", "696e69746564"),
	}, nil)

	info, err := delegate.Get(r, level, constants(t), pkh(t))
	require.Nil(t, err, "delegate error")

	assert.Equal(t, big.NewInt(1000), info.Balance, "balance")
	assert.Equal(t, big.NewInt(24012), info.StakingBalance, "staking balance")
	assert.Equal(t, big.NewInt(172), info.FrozenBalance, "frozen balance")
	// 24012 − (1000 + 150 + 15)
	assert.Equal(t, big.NewInt(22847), info.DelegatedBalance, "delegated balance")
	assert.Equal(t, int32(7), info.GracePeriod, "grace period")
	assert.False(t, info.Deactivated, "deactivated")

	require.Equal(t, 2, len(info.FrozenBalanceByCycle), "frozen cycles")
	assert.Equal(t, int64(1), info.FrozenBalanceByCycle[0].Cycle, "first cycle")
	assert.Equal(t, int64(2), info.FrozenBalanceByCycle[1].Cycle, "second cycle")

	assert.Equal(t, []string{
		"KT1HjccLxwDJL9b5xUtX71QtRRo8eUkYUKkw",
		"tz1gPN1aNNFvK2J7dKRdjX4Qp65TQrZk94pA",
	}, info.DelegatedContracts, "delegated contracts")

	b, err := json.Marshal(info.Tree())
	require.Nil(t, err, "marshal error")
	s := string(b)
	assert.True(t, strings.Contains(s, `"staking_balance":"24012"`), "json: %s", s)
	assert.True(t, strings.Contains(s, `{"cycle":1,"deposit":"50","fees":"5","rewards":"2"}`), "json: %s", s)
	assert.True(t, strings.Contains(s, `"grace_period":7`), "json: %s", s)
}

func TestDeactivatedDelegate(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockReader(ctl)
	expectValues(r, map[string]string{
		contractKey + "/balance":                "00",
		contractKey + "/delegate_desactivation": "00000002",
		contractKey + "/change":                 "00",
		contractKey + "/inactive_delegate":      "696e69746564",
	})
	r.EXPECT().GetByPrefix(uint64(level), gomock.Any()).Return([]storage.Entry{}, nil).Times(2)

	info, err := delegate.Get(r, level, constants(t), pkh(t))
	require.Nil(t, err, "delegate error")
	assert.True(t, info.Deactivated, "deactivated")
	assert.Equal(t, 0, len(info.FrozenBalanceByCycle), "frozen cycles")
	assert.Equal(t, []string{}, info.DelegatedContracts, "delegated contracts")
	assert.Equal(t, big.NewInt(0).String(), info.StakingBalance.String(), "staking balance")
}

func TestDelegateMandatoryKeys(t *testing.T) {
	for _, missing := range []string{"balance", "delegate_desactivation", "change"} {
		ctl := gomock.NewController(t)

		values := map[string]string{
			contractKey + "/balance":                "00",
			contractKey + "/delegate_desactivation": "00000002",
			contractKey + "/change":                 "00",
		}
		delete(values, contractKey+"/"+missing)

		r := mocks.NewMockReader(ctl)
		expectValues(r, values)

		_, err := delegate.Get(r, level, constants(t), pkh(t))
		assert.True(t, fault.Is(err, fault.MandatoryKeyMissing), "%s: error: %v", missing, err)
		ctl.Finish()
	}
}

func TestDelegateStoreErrors(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockReader(ctl)
	r.EXPECT().Get(uint64(level), gomock.Any()).Return(storage.Bucket{}, fault.LevelNotFound)

	_, err := delegate.Get(r, level, constants(t), pkh(t))
	assert.True(t, fault.Is(err, fault.LevelNotFound), "error: %v", err)
}

func TestContractPath(t *testing.T) {
	p := delegate.ContractPath(pkh(t).ContractId())
	assert.Equal(t, contractKey, p.String(), "contract path")
}

func TestDelegateFromStore(t *testing.T) {
	s := storage.New()
	defer s.Close()

	diff := storage.Diff{
		contractKey + "/balance":                   storage.Exists(mustHex("e807")),
		contractKey + "/delegate_desactivation":    storage.Exists(mustHex("00000007")),
		contractKey + "/change":                    storage.Exists(mustHex("0c")),
		contractKey + "/frozen_balance/2/deposits": storage.Exists(mustHex("64")),
		contractKey + "/frozen_balance/2/fees":     storage.Exists(mustHex("0a")),
		contractKey + "/frozen_balance/2/rewards":  storage.Exists(mustHex("05")),
		"data/rolls/owner/current/1/0/1":           storage.Exists(mustHex(delegateKey)),
	}
	err := s.Commit(level, diff)
	require.Nil(t, err, "commit error")

	info, err := delegate.Get(s, level, constants(t), pkh(t))
	require.Nil(t, err, "delegate error")
	assert.Equal(t, big.NewInt(8012), info.StakingBalance, "staking balance")
	assert.Equal(t, big.NewInt(115), info.FrozenBalance, "frozen balance")
	assert.Equal(t, big.NewInt(8012-1000-110), info.DelegatedBalance, "delegated balance")
}
