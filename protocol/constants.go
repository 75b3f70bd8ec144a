// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/value"
)

// Constants - decoded parametric constants of one protocol version
//
// immutable once created, so instances are shared between callers
type Constants struct {
	version    Version
	parametric value.Map
}

// DecodeConstants - decode data/v1/constants for a version
//
// fields absent from the early optional layouts take the version defaults
func DecodeConstants(v Version, b []byte) (*Constants, error) {
	l, err := layoutOf(v)
	if nil != err {
		return nil, err
	}
	present, err := l.decode(b)
	if nil != err {
		return nil, errors.Wrapf(err, "constants for version: %s", v)
	}

	m := defaults(v)
	for k, item := range present {
		m[k] = item
	}

	c := &Constants{
		version:    v,
		parametric: m,
	}

	// the derivations rely on these, so reject a context that lacks them
	for _, name := range []string{"preserved_cycles", "blocks_per_cycle", "blocks_per_roll_snapshot", "endorsers_per_block"} {
		if _, ok := m[name].(value.Number); !ok {
			return nil, errors.Wrapf(fault.InvalidValue, "constant: %s", name)
		}
	}
	if _, ok := m["tokens_per_roll"].(value.BigNumber); !ok {
		return nil, errors.Wrap(fault.InvalidValue, "constant: tokens_per_roll")
	}
	if 0 >= c.BlocksPerCycle() {
		return nil, errors.Wrapf(fault.InvalidValue, "blocks per cycle: %d", c.BlocksPerCycle())
	}
	return c, nil
}

// Version - the protocol these constants belong to
func (c *Constants) Version() Version {
	return c.version
}

func (c *Constants) number(name string) int32 {
	n, _ := c.parametric[name].(value.Number)
	return int32(n)
}

// PreservedCycles - number of cycles frozen balances are kept
func (c *Constants) PreservedCycles() int32 {
	return c.number("preserved_cycles")
}

// BlocksPerCycle - levels in one cycle
func (c *Constants) BlocksPerCycle() int32 {
	return c.number("blocks_per_cycle")
}

// BlocksPerRollSnapshot - levels between roll snapshots
func (c *Constants) BlocksPerRollSnapshot() int32 {
	return c.number("blocks_per_roll_snapshot")
}

// BlocksPerVotingPeriod - levels in one voting period
func (c *Constants) BlocksPerVotingPeriod() int32 {
	return c.number("blocks_per_voting_period")
}

// EndorsersPerBlock - endorsement slots per level
func (c *Constants) EndorsersPerBlock() int32 {
	return c.number("endorsers_per_block")
}

// TokensPerRoll - mutez in one roll, a fresh copy
func (c *Constants) TokensPerRoll() *big.Int {
	n := c.parametric["tokens_per_roll"].(value.BigNumber)
	return new(big.Int).Set(n.Int)
}

// TimeBetweenBlocks - seconds allowed per priority, first entry applies to priority zero
func (c *Constants) TimeBetweenBlocks() []int64 {
	l, _ := c.parametric["time_between_blocks"].(value.List)
	result := make([]int64, 0, len(l))
	for _, item := range l {
		if s, ok := item.(value.Int64); ok {
			result = append(result, int64(s))
		}
	}
	return result
}

// DelayPerMissingEndorsement - Babylon emission delay, false before Babylon
func (c *Constants) DelayPerMissingEndorsement() (int64, bool) {
	d, ok := c.parametric["delay_per_missing_endorsement"].(value.Int64)
	return int64(d), ok
}

// Cycle - the cycle containing a level
//
// level 1 is the first level of cycle 0
func (c *Constants) Cycle(level int64) int64 {
	if level < 1 {
		return 0
	}
	return (level - 1) / int64(c.BlocksPerCycle())
}

// CyclePosition - offset of a level within its cycle
func (c *Constants) CyclePosition(level int64) int64 {
	if level < 1 {
		return 0
	}
	return (level - 1) % int64(c.BlocksPerCycle())
}

// Parametric - copy of the parametric constants
func (c *Constants) Parametric() value.Map {
	m := make(value.Map, len(c.parametric))
	for k, v := range c.parametric {
		m[k] = v
	}
	return m
}

// Tree - the RPC view: parametric constants extended by the fixed ones
func (c *Constants) Tree() value.Map {
	m := c.Parametric()
	for k, v := range fixed(c.version) {
		m[k] = v
	}
	return m
}
