// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
)

const p256Contract = "data/contracts/index/p256/6f/de/46/af/03/56a0476dae4e4600172dc9309b3aa4/"
const ed25519Contract = "data/contracts/index/ed25519/89/b5/12/22/97/e589f9ba8b91f4bf74804da2fe8d4a/"

func TestDecodeContextValue(t *testing.T) {
	tests := []struct {
		version  protocol.Version
		path     string
		data     string
		expected string
	}{
		{protocol.Proto003, "protocol", "32227de5351803223564d2f40dbda7fa0fd20682ddfe743d51af3d08f8114273", `"Ps6mwMrF2ER2s51cp9yYpjDcuzQjsc2yAz8bQsRgdaRxw4Fk95H"`},
		{protocol.Proto003, "data/version", "67656e65736973", `"genesis"`},
		{protocol.Proto003, "test_chain", "00", `{"status":"not_running"}`},
		{protocol.Proto003, "data/v1/first_level", "00000001", `1`},
		{protocol.Proto003, "data/commitments/6c/00/4d/09/b8/9efefb1abbc3555781ffa2ffa57e29", "f48abfda9c01", `"42065708404"`},
		{protocol.Proto003, "data/v1/constants", athensConstants, `{"blocks_per_cycle":2048,"blocks_per_voting_period":8192,"preserved_cycles":3,"time_between_blocks":["30","40"]}`},
		{protocol.Proto003, "data/last_block_priority", "000c", `12`},
		{protocol.Proto005, "data/block_priority", "0000", `0`},
		{protocol.Proto003, "data/active_delegates_with_rolls/p256/6f/de/46/af/03/56a0476dae4e4600172dc9309b3aa4", "696e69746564", `"inited"`},
		{protocol.Proto003, "data/delegates/p256/6f/de/46/af/03/56a0476dae4e4600172dc9309b3aa4", "696e69746564", `"inited"`},
		{protocol.Proto003, "data/delegates_with_frozen_balance/61/p256/6f/de/46/af/03/56a0476dae4e4600172dc9309b3aa4", "696e69746564", `"inited"`},
		{protocol.Proto003, "data/rolls/next", "00000000", `0`},
		{protocol.Proto003, "data/rolls/limbo", "00000000", `0`},
		{protocol.Proto003, "data/rolls/owner/current/2/0/2", "0202db58471f14e5286a13a30b29c6c685649bfd312e8b80b100a7f1307cabd4ca86", `"p2pk66EmFoQS6b2mYLvCrwjXs7XT1A2znX26HcT9YMiGsyCHyDvsLaF"`},
		{protocol.Proto003, "data/rolls/index/30/3/798/successor", "0000031d", `797`},
		{protocol.Proto003, "data/cycle/0/random_seed", "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", `"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"`},
		{protocol.Proto003, "data/cycle/0/roll_snapshot", "0001", `1`},
		{protocol.Proto003, "data/cycle/0/last_roll/0", "00000a8c", `2700`},
		{protocol.Proto005_2, "data/cycle/4/nonces/8768", "00927e7e2e7df224676fc98f8f823fef5a49ceaeaae50249303c2a40dac1bee8c100e4463e7bea3a75cebb112159a7ec6c29225a12410000", `["nceVLU2CcmkFGAC4raDPbNMmutpnG3rzbfqPnK7aiCZAipFccp2TK","tz1gT2uVzSqBq3ZdH6uG4uJq8bqLga9XKrrq","0","0"]`},
		{protocol.Proto003, "data/ramp_up/rewards/5", "80c8d00780897a", `["16000000","2000000"]`},
		{protocol.Proto003, "data/ramp_up/deposits/16", "808092f40180a0c21e", `["512000000","64000000"]`},
		{protocol.Proto003, "data/votes/current_period_kind", "00", `"proposal"`},
		{protocol.Proto003, "data/votes/current_period_kind", "03", `"promotion_vote"`},
		{protocol.Proto003, "data/votes/current_quorum", "00001f40", `8000`},
		{protocol.Proto003, "data/votes/ballots/ed25519/89/b5/12/22/97/e589f9ba8b91f4bf74804da2fe8d4a", "02", `"pass"`},
		{protocol.Proto003, "data/contracts/global_counter", "00", `"0"`},
		{protocol.Proto003, p256Contract + "balance", "8080a2a9eae801", `"8000000000000"`},
		{protocol.Proto003, p256Contract + "manager", "00026fde46af0356a0476dae4e4600172dc9309b3aa4", `"tz3WXYtyDUNL91qfiCJtVUX746QpNv5i5ve5"`},
		{protocol.Proto003, p256Contract + "spendable", "696e69746564", `"inited"`},
		{protocol.Proto003, p256Contract + "delegate", "026fde46af0356a0476dae4e4600172dc9309b3aa4", `"tz3WXYtyDUNL91qfiCJtVUX746QpNv5i5ve5"`},
		{protocol.Proto003, p256Contract + "change", "80b8f288c5e801", `"7990000000000"`},
		{protocol.Proto003, p256Contract + "roll_list", "0000001f", `31`},
		{protocol.Proto003, p256Contract + "delegate_desactivation", "00000007", `7`},
		{protocol.Proto003, ed25519Contract + "frozen_balance/0/deposits", "00", `"0"`},
		{protocol.Proto003, ed25519Contract + "frozen_balance/0/fees", "00", `"0"`},
		{protocol.Proto003, ed25519Contract + "frozen_balance/0/rewards", "00", `"0"`},
		{protocol.Proto003, ed25519Contract + "paid_bytes", "00", `"0"`},
		{protocol.Proto003, ed25519Contract + "used_bytes", "a803", `"232"`},
		{protocol.Proto003, ed25519Contract + "len/code", "000000ca", `202`},
		{protocol.Proto003, ed25519Contract + "len/storage", "0000001e", `30`},
		{protocol.Proto005_2, "data/contracts/index/89/8b/61/90/64/9f/0000e394872fcb92d975589fb2c5fd4aab3c7adc80f7/balance", "8080a2a9eae801", `"8000000000000"`},
		{protocol.Proto003, "data/unknown/entry", "0102ff", `"0102ff"`},
		{protocol.Proto003, ed25519Contract + "data/code", "00000002", `"00000002"`},
	}

	for i, item := range tests {
		v, err := protocol.DecodeContextValue(item.version, path(item.path), mustHex(item.data))
		if !assert.Nil(t, err, "%d: %s: error", i, item.path) {
			continue
		}
		assert.Equal(t, item.expected, toJSON(t, v), "%d: %s", i, item.path)
	}
}

func TestDecodeContextValueErrors(t *testing.T) {
	tests := []struct {
		version protocol.Version
		path    string
		data    string
		class   func(error) bool
	}{
		{protocol.Proto003, "data/v1/constants", "f48abfda9c01", fault.IsErrDecode},
		{protocol.Proto003, "data/v1/first_level", "000001", fault.IsErrDecode},
		{protocol.Proto003, "data/rolls/limbo", "0000000000", fault.IsErrDecode},
		{protocol.Proto003, "data/votes/current_period_kind", "04", fault.IsErrDecode},
		{protocol.Proto003, "protocol", "3222", fault.IsErrDecode},
		{protocol.Proto003, "data/rolls/owner/current/2/0/2", "0702", fault.IsErrInvalid},
		{protocol.Unsupported, "data/v1/constants", "00", fault.IsErrProtocol},
	}

	for i, item := range tests {
		_, err := protocol.DecodeContextValue(item.version, path(item.path), mustHex(item.data))
		assert.True(t, item.class(err), "%d: %s: error: %v", i, item.path, err)
		if nil != err {
			assert.True(t, strings.Contains(err.Error(), item.path), "%d: path not in error: %s", i, err)
		}
	}
}

func path(s string) storage.Path {
	return storage.MustParsePath(s)
}
