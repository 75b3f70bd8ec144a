// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rights

import (
	"math"
	"strconv"
	"time"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
)

var (
	cyclePrefix    = storage.MustParsePath("data/cycle")
	snapshotOwners = storage.MustParsePath("data/rolls/owner/snapshot")
)

const (
	seedLength = 32

	// draws allowed to find a roll with an owner
	maximumDraws = 1 << 16
)

// Request - levels and delegates to compute rights for
//
// Level and Cycle are optional and combine, with neither the default
// level of the kind of rights is used; an empty Delegates accepts all
type Request struct {
	Level     *int64
	Cycle     *int64
	Delegates []account.PublicKeyHash
	Timestamp *time.Time // of the block, enables estimated times
}

// sampling data of one cycle
type cycleData struct {
	seed     []byte
	snapshot uint16
	bound    int32
}

// sampler - roll owner draws over the context at the block level
type sampler struct {
	reader storage.Reader
	params *protocol.Parameters
	cycles map[int64]*cycleData
}

func newSampler(reader storage.Reader, params *protocol.Parameters) (*sampler, error) {
	if nil == params || nil == params.Constants {
		return nil, fault.MissingParameters
	}
	if !params.Version.HasRights() {
		return nil, errors.Wrapf(fault.UnsupportedProtocol, "rights for version: %s", params.Version)
	}
	return &sampler{
		reader: reader,
		params: params,
		cycles: make(map[int64]*cycleData),
	}, nil
}

func (s *sampler) cycle(c int64) (*cycleData, error) {
	if d, ok := s.cycles[c]; ok {
		return d, nil
	}

	level := s.params.Level
	base := cyclePrefix.Append(strconv.FormatInt(c, 10))

	seed, err := storage.Mandatory(s.reader, level, base.Append("random_seed"))
	if nil != err {
		return nil, err
	}
	if seedLength != len(seed) {
		return nil, errors.Wrapf(fault.LengthMismatch, "cycle: %d  random seed length: %d", c, len(seed))
	}

	b, err := storage.Mandatory(s.reader, level, base.Append("roll_snapshot"))
	if nil != err {
		return nil, err
	}
	snapshot, err := protocol.DecodeUint16(b)
	if nil != err {
		return nil, errors.Wrapf(err, "cycle: %d  roll snapshot", c)
	}

	b, err = storage.Mandatory(s.reader, level, base.Append("last_roll", strconv.Itoa(int(snapshot))))
	if nil != err {
		return nil, err
	}
	bound, err := protocol.DecodeInt32(b)
	if nil != err {
		return nil, errors.Wrapf(err, "cycle: %d  last roll", c)
	}

	d := &cycleData{seed: seed, snapshot: snapshot, bound: bound}
	s.cycles[c] = d
	return d, nil
}

// owner - delegate of the roll drawn for a priority or slot of a level
//
// rolls without an owner in the snapshot are skipped by drawing again
// from the same sequence
func (s *sampler) owner(level int64, use string, offset int32) (account.PublicKeyHash, error) {
	constants := s.params.Constants
	c := constants.Cycle(level)
	d, err := s.cycle(c)
	if nil != err {
		return account.PublicKeyHash{}, err
	}

	seq := newSequence(d.seed, use, int32(constants.CyclePosition(level)), offset)
	base := snapshotOwners.Append(strconv.FormatInt(c, 10), strconv.Itoa(int(d.snapshot)))

	for draws := 0; draws < maximumDraws; draws += 1 {
		roll, err := seq.take(d.bound)
		if nil != err {
			return account.PublicKeyHash{}, err
		}
		p := base.Append(
			strconv.Itoa(int(roll&255)),
			strconv.Itoa(int((roll>>8)&255)),
			strconv.Itoa(int(roll)),
		)
		b, found, err := storage.Optional(s.reader, s.params.Level, p)
		if nil != err {
			return account.PublicKeyHash{}, err
		}
		if !found {
			continue
		}
		key, err := account.PublicKeyFromTaggedBytes(b)
		if nil != err {
			return account.PublicKeyHash{}, errors.Wrapf(err, "roll owner: %s", p)
		}
		return key.Hash(), nil
	}
	return account.PublicKeyHash{}, errors.Wrapf(fault.MandatoryKeyMissing, "cycle: %d  no roll owner after %d draws", c, maximumDraws)
}

// levels - the requested levels in ascending order
//
// a cycle may not lie beyond the preserved cycles ahead of the block
// and no level may exceed the int32 range
func (s *sampler) levels(request Request, defaultLevel int64) ([]int64, error) {
	constants := s.params.Constants
	block := int64(s.params.Level)
	limit := constants.Cycle(block) + int64(constants.PreservedCycles())

	set := treeset.NewWith(utils.Int64Comparator)

	if nil != request.Level {
		level := *request.Level
		if level < 1 {
			return nil, errors.Wrapf(fault.InvalidRequest, "level: %d", level)
		}
		if c := constants.Cycle(level); c > limit {
			return nil, errors.Wrapf(fault.InvalidRequest, "level: %d  cycle: %d beyond: %d", level, c, limit)
		}
		set.Add(level)
	}

	if nil != request.Cycle {
		c := *request.Cycle
		if c < 0 || c > limit {
			return nil, errors.Wrapf(fault.InvalidRequest, "cycle: %d  beyond: %d", c, limit)
		}
		bpc := int64(constants.BlocksPerCycle())
		first := c*bpc + 1
		for level := first; level < first+bpc; level += 1 {
			set.Add(level)
		}
	}

	if set.Empty() {
		if defaultLevel < 1 {
			return nil, errors.Wrapf(fault.InvalidRequest, "level: %d", defaultLevel)
		}
		set.Add(defaultLevel)
	}

	// levels are int32 on the wire
	if last := set.Values()[set.Size()-1].(int64); last > math.MaxInt32 {
		return nil, errors.Wrapf(fault.InvalidRequest, "level: %d", last)
	}

	result := make([]int64, 0, set.Size())
	it := set.Iterator()
	for it.Next() {
		result = append(result, it.Value().(int64))
	}
	return result, nil
}

// secondsPerLevel - the priority zero block interval
func (s *sampler) secondsPerLevel() (int64, bool) {
	tbb := s.params.Constants.TimeBetweenBlocks()
	if 0 == len(tbb) {
		return 0, false
	}
	return tbb[0], true
}

// minimalDelay - seconds after its predecessor a block of a priority may be baked
func (s *sampler) minimalDelay(priority int) int64 {
	tbb := s.params.Constants.TimeBetweenBlocks()
	step := tbb[0]
	if len(tbb) > 1 {
		step = tbb[1]
	}
	return tbb[0] + int64(priority)*step
}

// delegate selection, an empty filter accepts every delegate
type filter map[account.PublicKeyHash]struct{}

func newFilter(delegates []account.PublicKeyHash) filter {
	f := make(filter, len(delegates))
	for _, d := range delegates {
		f[d] = struct{}{}
	}
	return f
}

func (f filter) accepts(pkh account.PublicKeyHash) bool {
	if 0 == len(f) {
		return true
	}
	_, ok := f[pkh]
	return ok
}

func addSeconds(t time.Time, seconds int64) *time.Time {
	result := t.Add(time.Duration(seconds) * time.Second).UTC()
	return &result
}
