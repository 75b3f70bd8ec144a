// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package votes

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
)

var (
	listingsPrefix      = storage.MustParsePath("data/votes/listings")
	proposalsPrefix     = storage.MustParsePath("data/votes/proposals")
	currentProposalPath = storage.MustParsePath("data/votes/current_proposal")
	currentQuorumPath   = storage.MustParsePath("data/votes/current_quorum")
	currentPeriodPath   = storage.MustParsePath("data/votes/current_period_kind")
)

// key layouts, counted from the start of the path
const (
	listingCurveSegment  = 3 // data/votes/listings/<curve>/<hash segments...>
	proposalHashSegment  = 3 // data/votes/proposals/<6 hash segments>/<curve>/<6 hash segments>
	proposalHashSegments = 6
	proposalCurveSegment = proposalHashSegment + proposalHashSegments
)

// Listing - voting power of one delegate
type Listing struct {
	PublicKeyHash account.PublicKeyHash
	Rolls         int32
}

// Proposal - accumulated rolls of the delegates proposing a protocol
type Proposal struct {
	Protocol account.ProtocolHash
	Rolls    int32
}

// delegate from a curve segment and the hash segments that follow it
func publicKeyHash(p storage.Path, curveSegment int, count int) (account.PublicKeyHash, error) {
	if len(p) < curveSegment+1+count {
		return account.PublicKeyHash{}, errors.Wrapf(fault.InvalidPath, "key too short: %s", p)
	}
	start := curveSegment + 1
	return account.PublicKeyHashFromHex(p[curveSegment], strings.Join(p[start:start+count], ""))
}

func listingsMap(reader storage.Reader, level uint64) ([]Listing, error) {
	entries, err := storage.Existing(reader, level, listingsPrefix)
	if nil != err {
		return nil, err
	}
	result := make([]Listing, 0, len(entries))
	for _, e := range entries {
		pkh, err := publicKeyHash(e.Path, listingCurveSegment, len(e.Path)-listingCurveSegment-1)
		if nil != err {
			return nil, errors.Wrapf(err, "listing: %s", e.Path)
		}
		rolls, err := protocol.DecodeInt32(e.Bucket.Value)
		if nil != err {
			return nil, errors.Wrapf(err, "listing: %s", e.Path)
		}
		result = append(result, Listing{PublicKeyHash: pkh, Rolls: rolls})
	}
	return result, nil
}

// Listings - delegates and their rolls, most rolls first,
// equal rolls by descending address
func Listings(reader storage.Reader, level uint64) ([]Listing, error) {
	listings, err := listingsMap(reader, level)
	if nil != err {
		return nil, err
	}
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].Rolls != listings[j].Rolls {
			return listings[i].Rolls > listings[j].Rolls
		}
		return listings[i].PublicKeyHash.String() > listings[j].PublicKeyHash.String()
	})
	return listings, nil
}

// Proposals - every proposed protocol with the rolls of its proposers,
// most rolls first, equal rolls by ascending hash
//
// a proposer missing from the listings contributes nothing, a
// protocol whose proposers are all unlisted is left out
func Proposals(reader storage.Reader, level uint64) ([]Proposal, error) {
	listings, err := listingsMap(reader, level)
	if nil != err {
		return nil, err
	}
	rolls := make(map[account.PublicKeyHash]int32, len(listings))
	for _, l := range listings {
		rolls[l.PublicKeyHash] += l.Rolls
	}

	entries, err := storage.Existing(reader, level, proposalsPrefix)
	if nil != err {
		return nil, err
	}
	totals := make(map[account.ProtocolHash]int32)
	for _, e := range entries {
		if len(e.Path) < proposalCurveSegment+1 {
			return nil, errors.Wrapf(fault.InvalidPath, "proposal: %s", e.Path)
		}
		raw, err := hex.DecodeString(strings.Join(e.Path[proposalHashSegment:proposalCurveSegment], ""))
		if nil != err {
			return nil, errors.Wrapf(fault.InvalidPath, "proposal: %s", e.Path)
		}
		h, err := account.ProtocolHashFromBytes(raw)
		if nil != err {
			return nil, errors.Wrapf(err, "proposal: %s", e.Path)
		}
		pkh, err := publicKeyHash(e.Path, proposalCurveSegment, len(e.Path)-proposalCurveSegment-1)
		if nil != err {
			return nil, errors.Wrapf(err, "proposal: %s", e.Path)
		}
		if r, ok := rolls[pkh]; ok {
			totals[h] += r
		}
	}

	result := make([]Proposal, 0, len(totals))
	for h, r := range totals {
		result = append(result, Proposal{Protocol: h, Rolls: r})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Rolls != result[j].Rolls {
			return result[i].Rolls > result[j].Rolls
		}
		return result[i].Protocol.String() < result[j].Protocol.String()
	})
	return result, nil
}

// CurrentProposal - the protocol under vote, empty when there is none
func CurrentProposal(reader storage.Reader, level uint64) (string, error) {
	b, found, err := storage.Optional(reader, level, currentProposalPath)
	if nil != err || !found {
		return "", err
	}
	h, err := account.ProtocolHashFromBytes(b)
	if nil != err {
		return "", errors.Wrap(err, "current proposal")
	}
	return h.String(), nil
}

// CurrentQuorum - participation needed by the current vote
func CurrentQuorum(reader storage.Reader, level uint64, version protocol.Version) (int32, error) {
	switch version {
	case protocol.Proto005_2, protocol.Proto006:
	default:
		return 0, errors.Wrapf(fault.UnsupportedProtocol, "current quorum for version: %s", version)
	}
	b, err := storage.Mandatory(reader, level, currentQuorumPath)
	if nil != err {
		return 0, err
	}
	return protocol.DecodeInt32(b)
}

// CurrentPeriodKind - name of the current voting period
func CurrentPeriodKind(reader storage.Reader, level uint64) (string, error) {
	b, err := storage.Mandatory(reader, level, currentPeriodPath)
	if nil != err {
		return "", err
	}
	if 1 != len(b) || int(b[0]) >= len(protocol.PeriodKinds) {
		return "", errors.Wrapf(fault.UnknownTag, "period kind: %x", b)
	}
	return protocol.PeriodKinds[b[0]], nil
}

// ListingsTree - RPC view of listings
func ListingsTree(listings []Listing) value.List {
	result := make(value.List, len(listings))
	for i, l := range listings {
		result[i] = value.Map{
			"pkh":   value.String(l.PublicKeyHash.String()),
			"rolls": value.Number(l.Rolls),
		}
	}
	return result
}

// ProposalsTree - RPC view of proposals as [hash, rolls] pairs
func ProposalsTree(proposals []Proposal) value.List {
	result := make(value.List, len(proposals))
	for i, p := range proposals {
		result[i] = value.List{
			value.String(p.Protocol.String()),
			value.Number(p.Rolls),
		}
	}
	return result
}
