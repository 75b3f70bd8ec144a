// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rights

import (
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
)

// EndorsingRight - the endorsement slots of a delegate at a level
type EndorsingRight struct {
	Level         int64
	Delegate      account.PublicKeyHash
	Slots         []int
	EstimatedTime *time.Time
}

// EndorsingRights - rights ordered by level then first slot
//
// the default level is the block level
func EndorsingRights(reader storage.Reader, params *protocol.Parameters, request Request) ([]EndorsingRight, error) {
	s, err := newSampler(reader, params)
	if nil != err {
		return nil, err
	}

	levels, err := s.levels(request, int64(params.Level))
	if nil != err {
		return nil, err
	}

	slots := int(params.Constants.EndorsersPerBlock())
	accept := newFilter(request.Delegates)
	result := make([]EndorsingRight, 0, len(levels))
	for _, level := range levels {

		// insertion order is the order of first slots
		groups := linkedhashmap.New()
		for slot := 0; slot < slots; slot += 1 {
			delegate, err := s.owner(level, endorsingUse, int32(slot))
			if nil != err {
				return nil, errors.Wrapf(err, "level: %d  slot: %d", level, slot)
			}
			if g, found := groups.Get(delegate); found {
				groups.Put(delegate, append(g.([]int), slot))
			} else {
				groups.Put(delegate, []int{slot})
			}
		}

		estimated := s.endorsingTime(request.Timestamp, level)
		it := groups.Iterator()
		for it.Next() {
			delegate := it.Key().(account.PublicKeyHash)
			if !accept.accepts(delegate) {
				continue
			}
			result = append(result, EndorsingRight{
				Level:         level,
				Delegate:      delegate,
				Slots:         it.Value().([]int),
				EstimatedTime: estimated,
			})
		}
	}
	return result, nil
}

func (s *sampler) endorsingTime(timestamp *time.Time, level int64) *time.Time {
	block := int64(s.params.Level)
	if nil == timestamp || level <= block {
		return nil
	}
	interval, ok := s.secondsPerLevel()
	if !ok {
		return nil
	}
	return addSeconds(*timestamp, (level-block)*interval)
}

// EndorsingTree - RPC view of endorsing rights
func EndorsingTree(rights []EndorsingRight) value.List {
	result := make(value.List, len(rights))
	for i, r := range rights {
		slots := make(value.List, len(r.Slots))
		for j, slot := range r.Slots {
			slots[j] = value.Number(slot)
		}
		m := value.Map{
			"level":    value.Number(r.Level),
			"delegate": value.String(r.Delegate.String()),
			"slots":    slots,
		}
		if nil != r.EstimatedTime {
			m["estimated_time"] = value.Timestamp(*r.EstimatedTime)
		}
		result[i] = m
	}
	return result
}
