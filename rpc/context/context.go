// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/delegate"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/metrics"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/rights"
	"github.com/bitmark-inc/contextd/rpc/ratelimit"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
	"github.com/bitmark-inc/contextd/votes"
	"github.com/bitmark-inc/logger"
)

const (
	rateLimitContext = 200
	rateBurstContext = 100

	// limit for delegate filters
	maximumDelegates = 100

	headBlock = "head"
)

// Context - type for RPC calls
type Context struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Store   storage.Handle
}

// New - query service over a store, a zero limit selects the default rate
func New(log *logger.L, store storage.Handle, limit rate.Limit, burst int) *Context {
	if 0 == limit || burst <= 0 {
		limit = rateLimitContext
		burst = rateBurstContext
	}
	return &Context{
		Log:     log,
		Limiter: rate.NewLimiter(limit, burst),
		Store:   store,
	}
}

// count the call and its latency, errors are logged
func (ctx *Context) observe(method string, start time.Time, err error) {
	result := metrics.ResultOK
	if nil != err {
		result = metrics.ResultError
		ctx.Log.Warnf("%s: error: %s", method, err)
	}
	metrics.RPCCallCounter.WithLabelValues(method, result).Inc()
	metrics.RPCCallHistogram.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// level of a block argument: "head", empty or a decimal level
func (ctx *Context) level(block string) (uint64, error) {
	if "" == block || headBlock == block {
		head, ok := ctx.Store.Head()
		if !ok {
			return 0, errors.Wrap(fault.LevelNotFound, "no head")
		}
		return head, nil
	}
	level, err := strconv.ParseUint(block, 10, 64)
	if nil != err {
		return 0, errors.Wrapf(fault.InvalidRequest, "block: %q", block)
	}
	return level, nil
}

func (ctx *Context) parameters(block string) (*protocol.Parameters, error) {
	level, err := ctx.level(block)
	if nil != err {
		return nil, err
	}
	return protocol.ParametersAt(ctx.Store, level)
}

// ---

// HeadArguments - empty arguments for head request
type HeadArguments struct{}

// HeadReply - the highest committed level
type HeadReply struct {
	Level    uint64 `json:"level"`
	Genesis  uint64 `json:"genesis"`
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

// Head - the highest committed level and its protocol
func (ctx *Context) Head(_ *HeadArguments, reply *HeadReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Head", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	params, err := ctx.parameters(headBlock)
	if nil != err {
		return err
	}
	genesis, _ := ctx.Store.Genesis()

	reply.Level = params.Level
	reply.Genesis = genesis
	reply.Protocol = params.Hash.String()
	reply.Version = params.Version.String()
	return nil
}

// ---

// BlockArguments - a block as "head" or a decimal level
type BlockArguments struct {
	Block string `json:"block"`
}

// ---

// DelegateArguments - arguments for delegate request
type DelegateArguments struct {
	Block    string `json:"block"`
	Delegate string `json:"delegate"`
}

// DelegateReply - result of delegate request
type DelegateReply struct {
	Level    uint64    `json:"level"`
	Delegate value.Map `json:"delegate"`
}

// Delegate - balances and status of a delegate
func (ctx *Context) Delegate(arguments *DelegateArguments, reply *DelegateReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Delegate", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	pkh, err := account.PublicKeyHashFromString(arguments.Delegate)
	if nil != err {
		return err
	}

	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}

	ctx.Log.Debugf("delegate: %s  level: %d", pkh, params.Level)

	info, err := delegate.Get(ctx.Store, params.Level, params.Constants, pkh)
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Delegate = info.Tree()
	return nil
}

// ---

// ListingsReply - result of listings request
type ListingsReply struct {
	Level    uint64     `json:"level"`
	Listings value.List `json:"listings"`
}

// Listings - voting delegates and their rolls
func (ctx *Context) Listings(arguments *BlockArguments, reply *ListingsReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Listings", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	level, err := ctx.level(arguments.Block)
	if nil != err {
		return err
	}
	listings, err := votes.Listings(ctx.Store, level)
	if nil != err {
		return err
	}

	reply.Level = level
	reply.Listings = votes.ListingsTree(listings)
	return nil
}

// ---

// ProposalsReply - result of proposals request
type ProposalsReply struct {
	Level     uint64     `json:"level"`
	Proposals value.List `json:"proposals"`
}

// Proposals - proposed protocols and the rolls supporting them
func (ctx *Context) Proposals(arguments *BlockArguments, reply *ProposalsReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Proposals", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	level, err := ctx.level(arguments.Block)
	if nil != err {
		return err
	}
	proposals, err := votes.Proposals(ctx.Store, level)
	if nil != err {
		return err
	}

	reply.Level = level
	reply.Proposals = votes.ProposalsTree(proposals)
	return nil
}

// ---

// CurrentProposalReply - result of current proposal request
type CurrentProposalReply struct {
	Level    uint64 `json:"level"`
	Proposal string `json:"proposal"`
}

// CurrentProposal - protocol under vote, empty if none
func (ctx *Context) CurrentProposal(arguments *BlockArguments, reply *CurrentProposalReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("CurrentProposal", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	level, err := ctx.level(arguments.Block)
	if nil != err {
		return err
	}
	proposal, err := votes.CurrentProposal(ctx.Store, level)
	if nil != err {
		return err
	}

	reply.Level = level
	reply.Proposal = proposal
	return nil
}

// ---

// CurrentQuorumReply - result of current quorum request
type CurrentQuorumReply struct {
	Level  uint64 `json:"level"`
	Quorum int32  `json:"quorum"`
}

// CurrentQuorum - participation needed by the current vote
func (ctx *Context) CurrentQuorum(arguments *BlockArguments, reply *CurrentQuorumReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("CurrentQuorum", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}
	quorum, err := votes.CurrentQuorum(ctx.Store, params.Level, params.Version)
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Quorum = quorum
	return nil
}

// ---

// CurrentPeriodKindReply - result of period kind request
type CurrentPeriodKindReply struct {
	Level uint64 `json:"level"`
	Kind  string `json:"kind"`
}

// CurrentPeriodKind - name of the current voting period
func (ctx *Context) CurrentPeriodKind(arguments *BlockArguments, reply *CurrentPeriodKindReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("CurrentPeriodKind", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	level, err := ctx.level(arguments.Block)
	if nil != err {
		return err
	}
	kind, err := votes.CurrentPeriodKind(ctx.Store, level)
	if nil != err {
		return err
	}

	reply.Level = level
	reply.Kind = kind
	return nil
}

// ---

// RightsArguments - arguments for baking and endorsing rights
type RightsArguments struct {
	Block       string     `json:"block"`
	Level       *int64     `json:"level"`
	Cycle       *int64     `json:"cycle"`
	Delegates   []string   `json:"delegates"`
	MaxPriority int        `json:"max_priority"`
	All         bool       `json:"all"`
	Timestamp   *time.Time `json:"timestamp"`
}

// RightsReply - result of rights requests
type RightsReply struct {
	Level  uint64     `json:"level"`
	Rights value.List `json:"rights"`
}

// the rights request, charging the limiter per delegate
func (ctx *Context) rightsRequest(arguments *RightsArguments) (rights.Request, error) {
	request := rights.Request{
		Level:     arguments.Level,
		Cycle:     arguments.Cycle,
		Timestamp: arguments.Timestamp,
	}
	if 0 == len(arguments.Delegates) {
		return request, ratelimit.Limit(ctx.Limiter)
	}
	if err := ratelimit.LimitN(ctx.Limiter, len(arguments.Delegates), maximumDelegates); nil != err {
		return request, err
	}
	for _, d := range arguments.Delegates {
		pkh, err := account.PublicKeyHashFromString(d)
		if nil != err {
			return request, err
		}
		request.Delegates = append(request.Delegates, pkh)
	}
	return request, nil
}

// BakingRights - delegates allowed to bake levels and their priorities
func (ctx *Context) BakingRights(arguments *RightsArguments, reply *RightsReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("BakingRights", start, err) }()

	request, err := ctx.rightsRequest(arguments)
	if nil != err {
		return err
	}
	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}

	r, err := rights.BakingRights(ctx.Store, params, rights.BakingRequest{
		Request:     request,
		MaxPriority: arguments.MaxPriority,
		All:         arguments.All,
	})
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Rights = rights.BakingTree(r)
	return nil
}

// EndorsingRights - delegates allowed to endorse levels and their slots
func (ctx *Context) EndorsingRights(arguments *RightsArguments, reply *RightsReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("EndorsingRights", start, err) }()

	request, err := ctx.rightsRequest(arguments)
	if nil != err {
		return err
	}
	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}

	r, err := rights.EndorsingRights(ctx.Store, params, request)
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Rights = rights.EndorsingTree(r)
	return nil
}

// ---

// ConstantsReply - result of constants request
type ConstantsReply struct {
	Level     uint64    `json:"level"`
	Protocol  string    `json:"protocol"`
	Constants value.Map `json:"constants"`
}

// Constants - fixed and parametric protocol constants
func (ctx *Context) Constants(arguments *BlockArguments, reply *ConstantsReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Constants", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Protocol = params.Hash.String()
	reply.Constants = params.Constants.Tree()
	return nil
}

// ---

// RawArguments - arguments for raw request
type RawArguments struct {
	Block string `json:"block"`
	Path  string `json:"path"`
}

// RawReply - a decoded context entry, Value is absent for a tombstone
type RawReply struct {
	Level   uint64      `json:"level"`
	Path    string      `json:"path"`
	Deleted bool        `json:"deleted"`
	Value   value.Value `json:"value,omitempty"`
}

// Raw - the context entry at a path decoded by the protocol's rules
func (ctx *Context) Raw(arguments *RawArguments, reply *RawReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Raw", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	path, err := storage.ParsePath(arguments.Path)
	if nil != err {
		return err
	}
	params, err := ctx.parameters(arguments.Block)
	if nil != err {
		return err
	}

	bucket, err := ctx.Store.Get(params.Level, path)
	if nil != err {
		return err
	}

	reply.Level = params.Level
	reply.Path = path.String()
	reply.Deleted = bucket.Deleted
	if bucket.Deleted {
		return nil
	}
	reply.Value, err = protocol.DecodeContextValue(params.Version, path, bucket.Value)
	return err
}

// ---

// CommitEntry - a write, hex value or tombstone
type CommitEntry struct {
	Path    string `json:"path"`
	Value   string `json:"value"`
	Deleted bool   `json:"deleted"`
}

// CommitArguments - the writes of one level
type CommitArguments struct {
	Level   uint64        `json:"level"`
	Entries []CommitEntry `json:"entries"`
}

// CommitReply - head after the commit
type CommitReply struct {
	Head uint64 `json:"head"`
}

// Commit - append the level produced by the protocol executor
func (ctx *Context) Commit(arguments *CommitArguments, reply *CommitReply) (err error) {
	start := time.Now()
	defer func() { ctx.observe("Commit", start, err) }()

	if err = ratelimit.Limit(ctx.Limiter); nil != err {
		return err
	}

	diff := make(storage.Diff, len(arguments.Entries))
	for i, e := range arguments.Entries {
		if e.Deleted {
			diff[e.Path] = storage.Deleted()
			continue
		}
		b, err := hex.DecodeString(e.Value)
		if nil != err {
			return errors.Wrapf(fault.InvalidValue, "entries[%d]: %s", i, e.Path)
		}
		diff[e.Path] = storage.Exists(b)
	}

	if err = ctx.Store.Commit(arguments.Level, diff); nil != err {
		return err
	}
	ctx.Log.Infof("committed level: %d  entries: %d", arguments.Level, len(diff))

	reply.Head, _ = ctx.Store.Head()
	return nil
}
