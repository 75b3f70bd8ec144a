// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package delegate

import (
	"math/big"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/contextd/value"
)

var (
	contractsIndex = storage.MustParsePath("data/contracts/index")
	currentOwners  = storage.MustParsePath("data/rolls/owner/current")
)

// BalanceByCycle - frozen amounts of one cycle
type BalanceByCycle struct {
	Cycle   int64
	Deposit *big.Int
	Fees    *big.Int
	Rewards *big.Int
}

// Info - balances and status of a delegate at a level
type Info struct {
	Balance              *big.Int
	FrozenBalance        *big.Int
	FrozenBalanceByCycle []BalanceByCycle
	StakingBalance       *big.Int
	DelegatedContracts   []string
	DelegatedBalance     *big.Int
	Deactivated          bool
	GracePeriod          int32
}

// ContractPath - context key of a contract's entries
func ContractPath(id account.ContractId) storage.Path {
	return contractsIndex.Append(id.Index()...).Append(id.Hex())
}

// Get - derive the delegate information of pkh at a level
func Get(reader storage.Reader, level uint64, constants *protocol.Constants, pkh account.PublicKeyHash) (*Info, error) {
	key := ContractPath(pkh.ContractId())

	balance, err := mandatoryMutez(reader, level, key.Append("balance"))
	if nil != err {
		return nil, err
	}
	b, err := storage.Mandatory(reader, level, key.Append("delegate_desactivation"))
	if nil != err {
		return nil, err
	}
	gracePeriod, err := protocol.DecodeInt32(b)
	if nil != err {
		return nil, errors.Wrap(err, "grace period")
	}
	change, err := mandatoryMutez(reader, level, key.Append("change"))
	if nil != err {
		return nil, err
	}
	_, deactivated, err := storage.Optional(reader, level, key.Append("inactive_delegate"))
	if nil != err {
		return nil, err
	}

	byCycle, err := frozenBalances(reader, level, constants, key)
	if nil != err {
		return nil, err
	}

	rolls, err := countRolls(reader, level, pkh)
	if nil != err {
		return nil, err
	}

	delegated, err := delegatedContracts(reader, level, key)
	if nil != err {
		return nil, err
	}

	deposits := new(big.Int)
	fees := new(big.Int)
	rewards := new(big.Int)
	for _, c := range byCycle {
		deposits.Add(deposits, c.Deposit)
		fees.Add(fees, c.Fees)
		rewards.Add(rewards, c.Rewards)
	}

	// staking = tokens_per_roll × rolls + change
	staking := constants.TokensPerRoll()
	staking.Mul(staking, big.NewInt(rolls))
	staking.Add(staking, change)

	// delegated = staking − (balance + frozen deposits + frozen fees)
	own := new(big.Int).Add(balance, deposits)
	own.Add(own, fees)
	delegatedBalance := new(big.Int).Sub(staking, own)

	frozen := new(big.Int).Add(deposits, fees)
	frozen.Add(frozen, rewards)

	return &Info{
		Balance:              balance,
		FrozenBalance:        frozen,
		FrozenBalanceByCycle: byCycle,
		StakingBalance:       staking,
		DelegatedContracts:   delegated,
		DelegatedBalance:     delegatedBalance,
		Deactivated:          deactivated,
		GracePeriod:          gracePeriod,
	}, nil
}

func mandatoryMutez(reader storage.Reader, level uint64, path storage.Path) (*big.Int, error) {
	b, err := storage.Mandatory(reader, level, path)
	if nil != err {
		return nil, err
	}
	n, err := protocol.DecodeMutez(b)
	if nil != err {
		return nil, errors.Wrapf(err, "path: %s", path)
	}
	return n, nil
}

func optionalMutez(reader storage.Reader, level uint64, path storage.Path) (*big.Int, bool, error) {
	b, found, err := storage.Optional(reader, level, path)
	if nil != err || !found {
		return nil, false, err
	}
	n, err := protocol.DecodeMutez(b)
	if nil != err {
		return nil, false, errors.Wrapf(err, "path: %s", path)
	}
	return n, true, nil
}

// frozen amounts of the preserved cycles and the current one,
// a cycle lacking any of its three amounts is left out
func frozenBalances(reader storage.Reader, level uint64, constants *protocol.Constants, key storage.Path) ([]BalanceByCycle, error) {
	current := constants.Cycle(int64(level))
	first := current - int64(constants.PreservedCycles())
	if first < 0 {
		first = 0
	}

	result := []BalanceByCycle{}
cycles:
	for cycle := first; cycle <= current; cycle += 1 {
		base := key.Append("frozen_balance", strconv.FormatInt(cycle, 10))
		amounts := [3]*big.Int{}
		for i, name := range []string{"deposits", "fees", "rewards"} {
			n, found, err := optionalMutez(reader, level, base.Append(name))
			if nil != err {
				return nil, err
			}
			if !found {
				continue cycles
			}
			amounts[i] = n
		}
		result = append(result, BalanceByCycle{
			Cycle:   cycle,
			Deposit: amounts[0],
			Fees:    amounts[1],
			Rewards: amounts[2],
		})
	}
	return result, nil
}

// rolls currently owned by the delegate's key
func countRolls(reader storage.Reader, level uint64, pkh account.PublicKeyHash) (int64, error) {
	entries, err := storage.Existing(reader, level, currentOwners)
	if nil != err {
		return 0, err
	}
	count := int64(0)
	for _, e := range entries {
		key, err := account.PublicKeyFromTaggedBytes(e.Bucket.Value)
		if nil != err {
			return 0, errors.Wrapf(err, "roll owner: %s", e.Path)
		}
		if key.Hash() == pkh {
			count += 1
		}
	}
	return count, nil
}

// contracts delegating to this one, the last segment of each entry
// under <contract>/delegated is the delegator's contract id
func delegatedContracts(reader storage.Reader, level uint64, key storage.Path) ([]string, error) {
	entries, err := storage.Existing(reader, level, key.Append("delegated"))
	if nil != err {
		return nil, err
	}
	seen := make(map[string]struct{}, len(entries))
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		id, err := account.ContractIdFromHex(e.Path.Last())
		if nil != err {
			return nil, errors.Wrapf(err, "delegated contract: %s", e.Path)
		}
		address := id.Address()
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		result = append(result, address)
	}
	sort.Strings(result)
	return result, nil
}

// Tree - RPC view of the delegate information
func (info *Info) Tree() value.Map {
	cycles := make(value.List, len(info.FrozenBalanceByCycle))
	for i, c := range info.FrozenBalanceByCycle {
		cycles[i] = value.Map{
			"cycle":   value.Number(c.Cycle),
			"deposit": value.NewBigNumber(c.Deposit),
			"fees":    value.NewBigNumber(c.Fees),
			"rewards": value.NewBigNumber(c.Rewards),
		}
	}
	contracts := make(value.List, len(info.DelegatedContracts))
	for i, c := range info.DelegatedContracts {
		contracts[i] = value.String(c)
	}
	return value.Map{
		"balance":                 value.NewBigNumber(info.Balance),
		"frozen_balance":          value.NewBigNumber(info.FrozenBalance),
		"frozen_balance_by_cycle": cycles,
		"staking_balance":         value.NewBigNumber(info.StakingBalance),
		"delegated_contracts":     contracts,
		"delegated_balance":       value.NewBigNumber(info.DelegatedBalance),
		"deactivated":             value.Bool(info.Deactivated),
		"grace_period":            value.Number(info.GracePeriod),
	}
}
