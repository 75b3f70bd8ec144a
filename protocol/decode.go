// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/codec"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
)

// segments before the field name of a contract entry:
//   data/contracts/index/<six index segments>/<contract id>
//   data/contracts/index/<curve>/<five hash segments>/<rest of hash>
const contractFieldOffset = 10

type renderer func(v Version, b []byte) (value.Value, error)

type rule struct {
	pattern []string
	render  renderer
}

// "*" matches one segment, a final "**" matches one or more
var rules = []rule{
	{split("protocol"), renderProtocolHash},
	{split("test_chain"), renderTestChain},
	{split("data/version"), renderText},
	{split("data/v1/first_level"), renderInt32},
	{split("data/v1/constants"), renderConstants},
	{split("data/commitments/**"), renderN},
	{split("data/last_block_priority"), renderUint16},
	{split("data/block_priority"), renderUint16},
	{split("data/active_delegates_with_rolls/**"), renderText},
	{split("data/delegates/**"), renderText},
	{split("data/delegates_with_frozen_balance/**"), renderText},
	{split("data/rolls/next"), renderInt32},
	{split("data/rolls/limbo"), renderInt32},
	{split("data/rolls/owner/current/**"), renderPublicKey},
	{split("data/rolls/owner/snapshot/**"), renderPublicKey},
	{split("data/rolls/index/*/*/*/successor"), renderInt32},
	{split("data/cycle/*/random_seed"), renderHex},
	{split("data/cycle/*/roll_snapshot"), renderUint16},
	{split("data/cycle/*/last_roll/*"), renderInt32},
	{split("data/cycle/*/nonces/*"), renderNonce},
	{split("data/ramp_up/rewards/*"), renderPair},
	{split("data/ramp_up/deposits/*"), renderPair},
	{split("data/votes/current_period_kind"), renderPeriodKind},
	{split("data/votes/current_quorum"), renderInt32},
	{split("data/votes/participation_ema"), renderInt32},
	{split("data/votes/current_proposal"), renderProtocolHash},
	{split("data/votes/listings/**"), renderInt32},
	{split("data/votes/ballots/**"), renderBallot},
	{split("data/votes/proposals/**"), renderText},
	{split("data/contracts/global_counter"), renderZ},
}

// fields of one contract, matched after contractFieldOffset
var contractRules = []rule{
	{split("balance"), renderN},
	{split("change"), renderN},
	{split("counter"), renderZ},
	{split("manager"), renderManager},
	{split("delegate"), renderDelegate},
	{split("spendable"), renderText},
	{split("delegatable"), renderText},
	{split("inactive_delegate"), renderText},
	{split("roll_list"), renderInt32},
	{split("delegate_desactivation"), renderInt32},
	{split("frozen_balance/*/deposits"), renderN},
	{split("frozen_balance/*/fees"), renderN},
	{split("frozen_balance/*/rewards"), renderN},
	{split("paid_bytes"), renderZ},
	{split("used_bytes"), renderZ},
	{split("len/code"), renderInt32},
	{split("len/storage"), renderInt32},
	{split("delegated/**"), renderText},
}

func split(s string) []string {
	return storage.MustParsePath(s)
}

func match(pattern []string, path storage.Path) bool {
	for i, p := range pattern {
		if "**" == p && i == len(pattern)-1 {
			return len(path) > i
		}
		if i >= len(path) {
			return false
		}
		if "*" != p && p != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}

var contractsIndex = split("data/contracts/index")

// DecodeContextValue - render a raw context entry as a value tree
//
// entries with no known encoding render as a hex string
func DecodeContextValue(v Version, path storage.Path, b []byte) (value.Value, error) {
	candidates := rules
	p := path
	if path.HasPrefix(contractsIndex) && len(path) > contractFieldOffset {
		candidates = contractRules
		p = path[contractFieldOffset:]
	}
	for _, r := range candidates {
		if match(r.pattern, p) {
			result, err := r.render(v, b)
			if nil != err {
				return nil, errors.Wrapf(err, "path: %s", path)
			}
			return result, nil
		}
	}
	return renderHex(v, b)
}

func decodeInt(e codec.Encoding, b []byte) (int64, error) {
	decoded, err := codec.Decode(e, b)
	if nil != err {
		return 0, err
	}
	return int64(decoded.(codec.Int)), nil
}

func renderInt32(_ Version, b []byte) (value.Value, error) {
	i, err := decodeInt(codec.Int32, b)
	return value.Number(i), err
}

func renderUint16(_ Version, b []byte) (value.Value, error) {
	i, err := decodeInt(codec.Uint16, b)
	return value.Number(i), err
}

func renderZarith(e codec.Encoding, b []byte) (value.Value, error) {
	decoded, err := codec.Decode(e, b)
	if nil != err {
		return nil, err
	}
	return value.NewBigNumber(decoded.(codec.Big).Int), nil
}

func renderN(_ Version, b []byte) (value.Value, error) {
	return renderZarith(codec.N, b)
}

func renderZ(_ Version, b []byte) (value.Value, error) {
	return renderZarith(codec.Z, b)
}

func renderText(_ Version, b []byte) (value.Value, error) {
	return value.String(b), nil
}

func renderHex(_ Version, b []byte) (value.Value, error) {
	return value.String(hex.EncodeToString(b)), nil
}

func renderProtocolHash(_ Version, b []byte) (value.Value, error) {
	h, err := account.ProtocolHashFromBytes(b)
	if nil != err {
		return nil, err
	}
	return value.String(h.String()), nil
}

func renderPublicKey(_ Version, b []byte) (value.Value, error) {
	k, err := account.PublicKeyFromTaggedBytes(b)
	if nil != err {
		return nil, err
	}
	return value.String(k.String()), nil
}

func renderDelegate(_ Version, b []byte) (value.Value, error) {
	pkh, err := account.PublicKeyHashFromTaggedBytes(b)
	if nil != err {
		return nil, err
	}
	return value.String(pkh.String()), nil
}

var managerSchema = codec.Tags(1,
	codec.Variant{Tag: 0, Name: "hash", Encoding: codec.Fixed(account.HashLength + 1)},
	codec.Variant{Tag: 1, Name: "public_key", Encoding: codec.BytesEncoding},
)

func renderManager(v Version, b []byte) (value.Value, error) {
	decoded, err := codec.Decode(managerSchema, b)
	if nil != err {
		return nil, err
	}
	t := decoded.(codec.Tagged)
	if 0 == t.Tag {
		return renderDelegate(v, t.Value.(codec.Bytes))
	}
	return renderPublicKey(v, t.Value.(codec.Bytes))
}

var nonceSchema = codec.Tags(1,
	codec.Variant{Tag: 0, Name: "unrevealed", Encoding: codec.Object(
		codec.F("nonce_hash", codec.Fixed(account.NonceHashLength)),
		codec.F("delegate", codec.Fixed(account.HashLength+1)),
		codec.F("rewards", codec.N),
		codec.F("fees", codec.N),
	)},
	codec.Variant{Tag: 1, Name: "revealed", Encoding: codec.Fixed(32)},
)

// unrevealed nonces render as [nonce hash, delegate, rewards, fees]
func renderNonce(_ Version, b []byte) (value.Value, error) {
	decoded, err := codec.Decode(nonceSchema, b)
	if nil != err {
		return nil, err
	}
	t := decoded.(codec.Tagged)
	if 1 == t.Tag {
		return value.String(hex.EncodeToString(t.Value.(codec.Bytes))), nil
	}

	obj := t.Value.(codec.Obj)
	nonceHash, err := account.NonceHashString(obj[0].Value.(codec.Bytes))
	if nil != err {
		return nil, err
	}
	delegate, err := account.PublicKeyHashFromTaggedBytes(obj[1].Value.(codec.Bytes))
	if nil != err {
		return nil, err
	}
	return value.List{
		value.String(nonceHash),
		value.String(delegate.String()),
		value.NewBigNumber(obj[2].Value.(codec.Big).Int),
		value.NewBigNumber(obj[3].Value.(codec.Big).Int),
	}, nil
}

var pairSchema = codec.Object(
	codec.F("block", codec.N),
	codec.F("endorsement", codec.N),
)

// ramp up entries hold a block amount then an endorsement amount
func renderPair(_ Version, b []byte) (value.Value, error) {
	decoded, err := codec.Decode(pairSchema, b)
	if nil != err {
		return nil, err
	}
	obj := decoded.(codec.Obj)
	return value.List{
		value.NewBigNumber(obj[0].Value.(codec.Big).Int),
		value.NewBigNumber(obj[1].Value.(codec.Big).Int),
	}, nil
}

// PeriodKinds - names of the voting period kinds by tag
var PeriodKinds = []string{"proposal", "testing_vote", "testing", "promotion_vote"}

func renderPeriodKind(_ Version, b []byte) (value.Value, error) {
	i, err := decodeInt(codec.Uint8, b)
	if nil != err {
		return nil, err
	}
	if i >= int64(len(PeriodKinds)) {
		return nil, errors.Wrapf(fault.UnknownTag, "period kind: %d", i)
	}
	return value.String(PeriodKinds[i]), nil
}

var ballots = []string{"yay", "nay", "pass"}

func renderBallot(_ Version, b []byte) (value.Value, error) {
	i, err := decodeInt(codec.Int8, b)
	if nil != err {
		return nil, err
	}
	if i < 0 || i >= int64(len(ballots)) {
		return nil, errors.Wrapf(fault.UnknownTag, "ballot: %d", i)
	}
	return value.String(ballots[i]), nil
}

var testChainSchema = codec.Tags(1,
	codec.Variant{Tag: 0, Name: "not_running", Encoding: codec.UnitEncoding},
	codec.Variant{Tag: 1, Name: "forking", Encoding: codec.Object(
		codec.F("protocol", codec.Fixed(account.ProtocolHashLength)),
		codec.F("expiration", codec.Int64),
	)},
	codec.Variant{Tag: 2, Name: "running", Encoding: codec.Object(
		codec.F("chain_id", codec.Fixed(4)),
		codec.F("genesis", codec.Fixed(32)),
		codec.F("protocol", codec.Fixed(account.ProtocolHashLength)),
		codec.F("expiration", codec.Int64),
	)},
)

func renderTestChain(_ Version, b []byte) (value.Value, error) {
	decoded, err := codec.Decode(testChainSchema, b)
	if nil != err {
		return nil, err
	}
	t := decoded.(codec.Tagged)
	result := value.Map{"status": value.String(t.Name)}
	obj, ok := t.Value.(codec.Obj)
	if !ok {
		return result, nil
	}
	for _, f := range obj {
		switch f.Name {
		case "protocol":
			h, err := account.ProtocolHashFromBytes(f.Value.(codec.Bytes))
			if nil != err {
				return nil, err
			}
			result[f.Name] = value.String(h.String())
		case "expiration":
			result[f.Name] = value.Timestamp(time.Unix(int64(f.Value.(codec.Int)), 0))
		default:
			result[f.Name] = value.String(hex.EncodeToString(f.Value.(codec.Bytes)))
		}
	}
	return result, nil
}

// only the fields actually stored, without version defaults
func renderConstants(v Version, b []byte) (value.Value, error) {
	l, err := layoutOf(v)
	if nil != err {
		return nil, err
	}
	return l.decode(b)
}
