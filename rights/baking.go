// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rights

import (
	"time"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
)

// DefaultMaxPriority - priorities computed per level unless requested otherwise
const DefaultMaxPriority = 64

// BakingRequest - baking rights query
//
// priorities 0 … MaxPriority-1 are drawn, only the best priority of
// each delegate is kept unless All is set
type BakingRequest struct {
	Request
	MaxPriority int
	All         bool
}

// BakingRight - a delegate allowed to bake a level at a priority
type BakingRight struct {
	Level         int64
	Delegate      account.PublicKeyHash
	Priority      int
	EstimatedTime *time.Time
}

// BakingRights - rights ordered by level then priority
//
// the default level is the one after the block
func BakingRights(reader storage.Reader, params *protocol.Parameters, request BakingRequest) ([]BakingRight, error) {
	s, err := newSampler(reader, params)
	if nil != err {
		return nil, err
	}

	maxPriority := request.MaxPriority
	if 0 == maxPriority {
		maxPriority = DefaultMaxPriority
	}
	if maxPriority < 0 {
		return nil, errors.Wrapf(fault.InvalidRequest, "max priority: %d", maxPriority)
	}

	levels, err := s.levels(request.Request, int64(params.Level)+1)
	if nil != err {
		return nil, err
	}

	accept := newFilter(request.Delegates)
	result := make([]BakingRight, 0, len(levels))
	for _, level := range levels {
		seen := make(map[account.PublicKeyHash]struct{})
		for priority := 0; priority < maxPriority; priority += 1 {
			delegate, err := s.owner(level, bakingUse, int32(priority))
			if nil != err {
				return nil, errors.Wrapf(err, "level: %d  priority: %d", level, priority)
			}
			if !request.All {
				if _, ok := seen[delegate]; ok {
					continue
				}
				seen[delegate] = struct{}{}
			}
			if !accept.accepts(delegate) {
				continue
			}
			result = append(result, BakingRight{
				Level:         level,
				Delegate:      delegate,
				Priority:      priority,
				EstimatedTime: s.bakingTime(request.Timestamp, level, priority),
			})
		}
	}
	return result, nil
}

// block timestamp + intervals of the levels in between + delay of the priority
func (s *sampler) bakingTime(timestamp *time.Time, level int64, priority int) *time.Time {
	block := int64(s.params.Level)
	if nil == timestamp || level <= block {
		return nil
	}
	interval, ok := s.secondsPerLevel()
	if !ok {
		return nil
	}
	return addSeconds(*timestamp, (level-block-1)*interval+s.minimalDelay(priority))
}

// BakingTree - RPC view of baking rights
func BakingTree(rights []BakingRight) value.List {
	result := make(value.List, len(rights))
	for i, r := range rights {
		m := value.Map{
			"level":    value.Number(r.Level),
			"delegate": value.String(r.Delegate.String()),
			"priority": value.Number(r.Priority),
		}
		if nil != r.EstimatedTime {
			m["estimated_time"] = value.Timestamp(*r.EstimatedTime)
		}
		result[i] = m
	}
	return result
}
