// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/codec"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/value"
)

// how a decoded constant is rendered in the value tree
type fieldKind int

const (
	numberField    fieldKind = iota // small fixed integers
	int64Field                      // 64 bit integers, rendered as strings
	bigField                        // zarith amounts, rendered as strings
	int64ListField                  // list of 64 bit integers
	bigListField                    // list of zarith amounts
)

type field struct {
	name     string
	kind     fieldKind
	encoding codec.Encoding
}

type layout struct {
	fields   []field
	optional bool
	schema   codec.Encoding
}

func newLayout(optional bool, fields ...field) *layout {
	f := make([]codec.FieldEncoding, len(fields))
	for i, item := range fields {
		e := item.encoding
		if optional {
			e = codec.Optional(e)
		}
		f[i] = codec.F(item.name, e)
	}
	return &layout{
		fields:   fields,
		optional: optional,
		schema:   codec.Object(f...),
	}
}

func u8(name string) field   { return field{name, numberField, codec.Uint8} }
func u16(name string) field  { return field{name, numberField, codec.Uint16} }
func i31(name string) field  { return field{name, numberField, codec.Int31} }
func i32(name string) field  { return field{name, numberField, codec.Int32} }
func i64(name string) field  { return field{name, int64Field, codec.Int64} }
func n(name string) field    { return field{name, bigField, codec.N} }
func z(name string) field    { return field{name, bigField, codec.Z} }
func i64s(name string) field { return field{name, int64ListField, codec.Dynamic(codec.ListOf(codec.Int64))} }
func bigs(name string) field { return field{name, bigListField, codec.Dynamic(codec.ListOf(codec.N))} }

// the fields shared by every version up to the cost fields
func leadingFields() []field {
	return []field{
		u8("preserved_cycles"),
		i32("blocks_per_cycle"),
		i32("blocks_per_commitment"),
		i32("blocks_per_roll_snapshot"),
		i32("blocks_per_voting_period"),
		i64s("time_between_blocks"),
		u16("endorsers_per_block"),
		z("hard_gas_limit_per_operation"),
		z("hard_gas_limit_per_block"),
		i64("proof_of_work_threshold"),
		n("tokens_per_roll"),
		u16("michelson_maximum_type_size"),
		n("seed_nonce_revelation_tip"),
	}
}

func join(groups ...[]field) []field {
	result := []field{}
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}

// 001 and 002 still burn a fixed amount on origination
var layout001 = newLayout(true, join(
	leadingFields(),
	[]field{
		n("origination_burn"),
		n("block_security_deposit"),
		n("endorsement_security_deposit"),
		n("block_reward"),
		n("endorsement_reward"),
		n("cost_per_byte"),
		z("hard_storage_limit_per_operation"),
	},
)...)

var layout003 = newLayout(true, join(
	leadingFields(),
	[]field{
		i31("origination_size"),
		n("block_security_deposit"),
		n("endorsement_security_deposit"),
		n("block_reward"),
		n("endorsement_reward"),
		n("cost_per_byte"),
		z("hard_storage_limit_per_operation"),
	},
)...)

var layout004 = newLayout(true, join(
	leadingFields(),
	[]field{
		i31("origination_size"),
		n("block_security_deposit"),
		n("endorsement_security_deposit"),
		n("block_reward"),
		n("endorsement_reward"),
		n("cost_per_byte"),
		z("hard_storage_limit_per_operation"),
		i64("test_chain_duration"),
	},
)...)

func votingFields() []field {
	return []field{
		i64("test_chain_duration"),
		i32("quorum_min"),
		i32("quorum_max"),
		i32("min_proposal_quorum"),
		u16("initial_endorsers"),
		i64("delay_per_missing_endorsement"),
	}
}

var layoutBabylon = newLayout(false, join(
	leadingFields(),
	[]field{
		i31("origination_size"),
		n("block_security_deposit"),
		n("endorsement_security_deposit"),
		n("block_reward"),
		n("endorsement_reward"),
		n("cost_per_byte"),
		z("hard_storage_limit_per_operation"),
	},
	votingFields(),
)...)

var layoutCarthage = newLayout(false, join(
	leadingFields(),
	[]field{
		i31("origination_size"),
		n("block_security_deposit"),
		n("endorsement_security_deposit"),
		bigs("baking_reward_per_endorsement"),
		bigs("endorsement_reward"),
		n("cost_per_byte"),
		z("hard_storage_limit_per_operation"),
	},
	votingFields(),
)...)

func layoutOf(v Version) (*layout, error) {
	switch v {
	case Proto001, Proto002:
		return layout001, nil
	case Proto003:
		return layout003, nil
	case Proto004:
		return layout004, nil
	case Proto005, Proto005_2:
		return layoutBabylon, nil
	case Proto006:
		return layoutCarthage, nil
	default:
		return nil, errors.Wrapf(fault.UnsupportedProtocol, "constants for version: %s", v)
	}
}

// Schema - the codec schema of data/v1/constants for a version
func Schema(v Version) (codec.Encoding, error) {
	l, err := layoutOf(v)
	if nil != err {
		return nil, err
	}
	return l.schema, nil
}

// decode the constants bytes into a map holding only the fields present
func (l *layout) decode(b []byte) (value.Map, error) {
	decoded, err := codec.Decode(l.schema, b)
	if nil != err {
		return nil, err
	}
	obj, ok := decoded.(codec.Obj)
	if !ok {
		return nil, errors.Wrap(fault.InvalidValue, "constants are not an object")
	}

	result := make(value.Map, len(l.fields))
	for i, f := range l.fields {
		v := obj[i].Value
		if l.optional {
			o, ok := v.(codec.Option)
			if !ok {
				return nil, errors.Wrapf(fault.InvalidValue, "constant: %s", f.name)
			}
			if o.IsNone() {
				continue
			}
			v = o.Value
		}
		rendered, err := render(f, v)
		if nil != err {
			return nil, err
		}
		result[f.name] = rendered
	}
	return result, nil
}

func render(f field, v codec.Value) (value.Value, error) {
	switch f.kind {
	case numberField:
		if i, ok := v.(codec.Int); ok {
			return value.Number(i), nil
		}
	case int64Field:
		if i, ok := v.(codec.Int); ok {
			return value.Int64(i), nil
		}
	case bigField:
		if b, ok := v.(codec.Big); ok {
			return value.NewBigNumber(b.Int), nil
		}
	case int64ListField:
		if l, ok := v.(codec.List); ok {
			result := make(value.List, len(l))
			for i, item := range l {
				x, ok := item.(codec.Int)
				if !ok {
					return nil, errors.Wrapf(fault.InvalidValue, "constant: %s[%d]", f.name, i)
				}
				result[i] = value.Int64(x)
			}
			return result, nil
		}
	case bigListField:
		if l, ok := v.(codec.List); ok {
			result := make(value.List, len(l))
			for i, item := range l {
				x, ok := item.(codec.Big)
				if !ok {
					return nil, errors.Wrapf(fault.InvalidValue, "constant: %s[%d]", f.name, i)
				}
				result[i] = value.NewBigNumber(x.Int)
			}
			return result, nil
		}
	}
	return nil, errors.Wrapf(fault.InvalidValue, "constant: %s", f.name)
}

func mutez(i int64) value.BigNumber {
	return value.BigNumber{Int: big.NewInt(i)}
}

func seconds(s ...int64) value.List {
	l := make(value.List, len(s))
	for i, v := range s {
		l[i] = value.Int64(v)
	}
	return l
}

// defaults applied under the optional fields of the early versions
func defaults(v Version) value.Map {
	m := value.Map{
		"preserved_cycles":                 value.Number(5),
		"blocks_per_cycle":                 value.Number(4096),
		"blocks_per_commitment":            value.Number(32),
		"blocks_per_roll_snapshot":         value.Number(256),
		"blocks_per_voting_period":         value.Number(32768),
		"time_between_blocks":              seconds(60, 75),
		"endorsers_per_block":              value.Number(32),
		"hard_gas_limit_per_operation":     mutez(400000),
		"hard_gas_limit_per_block":         mutez(4000000),
		"proof_of_work_threshold":          value.Int64(70368744177663),
		"tokens_per_roll":                  mutez(10000000000),
		"michelson_maximum_type_size":      value.Number(1000),
		"seed_nonce_revelation_tip":        mutez(125000),
		"block_security_deposit":           mutez(512000000),
		"endorsement_security_deposit":     mutez(64000000),
		"block_reward":                     mutez(16000000),
		"endorsement_reward":               mutez(2000000),
		"cost_per_byte":                    mutez(1000),
		"hard_storage_limit_per_operation": mutez(60000),
	}
	switch v {
	case Proto001, Proto002:
		m["origination_burn"] = mutez(257000)
	case Proto003, Proto004:
		m["origination_size"] = value.Number(257)
		m["hard_gas_limit_per_operation"] = mutez(800000)
		m["hard_gas_limit_per_block"] = mutez(8000000)
		m["tokens_per_roll"] = mutez(8000000000)
		if Proto004 == v {
			m["test_chain_duration"] = value.Int64(1966080)
		}
	default:
		return value.Map{}
	}
	return m
}

// constants fixed in the protocol code rather than the context
func fixed(v Version) value.Map {
	m := value.Map{
		"proof_of_work_nonce_size":   value.Number(8),
		"nonce_length":               value.Number(32),
		"max_operation_data_length":  value.Number(16 * 1024),
		"max_proposals_per_delegate": value.Number(20),
	}
	if v.IsBabylon() {
		m["max_anon_ops_per_block"] = value.Number(132)
		m["max_operation_data_length"] = value.Number(32 * 1024)
	} else {
		m["max_revelations_per_block"] = value.Number(32)
	}
	return m
}
