// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package value

import (
	"encoding/json"
	"math/big"
	"strconv"
	"time"
)

// Value - one node of an RPC result tree
type Value interface {
	json.Marshaler
	rpcValue()
}

// Number - small integers are plain JSON numbers
type Number int32

// Int64 - serialised as a decimal string
type Int64 int64

// BigNumber - arbitrary precision, serialised as a decimal string
type BigNumber struct {
	Int *big.Int
}

// String - text
type String string

// Timestamp - serialised as RFC 3339 in UTC
type Timestamp time.Time

// Bool - boolean
type Bool bool

// List - ordered values
type List []Value

// Map - named values, keys are sorted on output
type Map map[string]Value

func (Number) rpcValue()    {}
func (Int64) rpcValue()     {}
func (BigNumber) rpcValue() {}
func (String) rpcValue()    {}
func (Timestamp) rpcValue() {}
func (Bool) rpcValue()      {}
func (List) rpcValue()      {}
func (Map) rpcValue()       {}

// NewBigNumber - copy of a big integer
func NewBigNumber(i *big.Int) BigNumber {
	return BigNumber{Int: new(big.Int).Set(i)}
}

// MarshalJSON - JSON number
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(n), 10)), nil
}

// MarshalJSON - quoted decimal
func (n Int64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(n), 10))
}

// MarshalJSON - quoted decimal, a nil value is zero
func (n BigNumber) MarshalJSON() ([]byte, error) {
	if nil == n.Int {
		return []byte(`"0"`), nil
	}
	return json.Marshal(n.Int.String())
}

// MarshalJSON - JSON string
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// MarshalJSON - RFC 3339 string
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

// MarshalJSON - JSON boolean
func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// MarshalJSON - JSON array, never null
func (l List) MarshalJSON() ([]byte, error) {
	if nil == l {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(l))
}

// MarshalJSON - JSON object
func (m Map) MarshalJSON() ([]byte, error) {
	if nil == m {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(m))
}
