// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"math/big"
)

// Value - a decoded structured value
//
// the set of implementations is closed: Unit, Bool, Int, Float, Big,
// Bytes, String, List, Obj, Tagged and Option
type Value interface {
	value()
}

// Unit - the empty value
type Unit struct{}

// Bool - boolean value
type Bool bool

// Int - any fixed width integer, widened to 64 bits
type Int int64

// Float - 64 bit IEEE-754 value
type Float float64

// Big - arbitrary precision integer (Zarith)
type Big struct {
	Int *big.Int
}

// Bytes - raw byte data
type Bytes []byte

// String - UTF-8 text
type String string

// List - homogeneous sequence
type List []Value

// Field - one named member of an object
type Field struct {
	Name  string
	Value Value
}

// Obj - ordered named fields
type Obj []Field

// Tagged - the selected variant of a tagged union
type Tagged struct {
	Tag   uint16
	Name  string
	Value Value
}

// Option - an optional value, nil Value is none
type Option struct {
	Value Value
}

func (Unit) value()   {}
func (Bool) value()   {}
func (Int) value()    {}
func (Float) value()  {}
func (Big) value()    {}
func (Bytes) value()  {}
func (String) value() {}
func (List) value()   {}
func (Obj) value()    {}
func (Tagged) value() {}
func (Option) value() {}

// NewBig - wrap an int64 as a Big value
func NewBig(i int64) Big {
	return Big{Int: big.NewInt(i)}
}

// Get - find a field by name
func (o Obj) Get(name string) (Value, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// IsNone - true if the option holds no value
func (o Option) IsNone() bool {
	return nil == o.Value
}

// Equal - structural equality of two value trees
func Equal(a Value, b Value) bool {
	switch x := a.(type) {
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case Big:
		y, ok := b.(Big)
		return ok && nil != x.Int && nil != y.Int && 0 == x.Int.Cmp(y.Int)
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Obj:
		y, ok := b.(Obj)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Name != y[i].Name || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Tagged:
		y, ok := b.(Tagged)
		return ok && x.Tag == y.Tag && x.Name == y.Name && Equal(x.Value, y.Value)
	case Option:
		y, ok := b.(Option)
		if !ok || x.IsNone() != y.IsNone() {
			return false
		}
		return x.IsNone() || Equal(x.Value, y.Value)
	}
	return false
}
