// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

const (
	minInt31 = -1 << 30
	maxInt31 = 1<<30 - 1
)

// integer ranges of the fixed width kinds
var kindRanges = map[kind][2]int64{
	kindInt8:   {math.MinInt8, math.MaxInt8},
	kindUint8:  {0, math.MaxUint8},
	kindInt16:  {math.MinInt16, math.MaxInt16},
	kindUint16: {0, math.MaxUint16},
	kindInt31:  {minInt31, maxInt31},
	kindInt32:  {math.MinInt32, math.MaxInt32},
	kindUint32: {0, math.MaxUint32},
	kindInt64:  {math.MinInt64, math.MaxInt64},
}

// Encode - encode a value tree according to a schema
func Encode(schema Encoding, v Value) ([]byte, error) {
	return schema.encode(make([]byte, 0, 64), v, rootPath)
}

func mismatch(path string, expected string, v Value) error {
	return errors.Wrapf(fault.InvalidValue, "%s: expected %s, got %T", path, expected, v)
}

func (n unitNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	if _, ok := v.(Unit); !ok {
		return nil, mismatch(path, "unit", v)
	}
	return buffer, nil
}

func (n fixedNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	switch n.kind {
	case kindBool:
		b, ok := v.(Bool)
		if !ok {
			return nil, mismatch(path, "bool", v)
		}
		if b {
			return append(buffer, 0xff), nil
		}
		return append(buffer, 0x00), nil

	case kindFloat64:
		f, ok := v.(Float)
		if !ok {
			return nil, mismatch(path, "float", v)
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(float64(f)))
		return append(buffer, b[:]...), nil
	}

	i, ok := v.(Int)
	if !ok {
		return nil, mismatch(path, kindNames[n.kind], v)
	}
	r := kindRanges[n.kind]
	if int64(i) < r[0] || int64(i) > r[1] {
		return nil, errors.Wrapf(fault.InvalidValue, "%s: %d out of %s range", path, i, kindNames[n.kind])
	}

	var b [8]byte
	switch kindSizes[n.kind] {
	case 1:
		return append(buffer, byte(i)), nil
	case 2:
		binary.BigEndian.PutUint16(b[:2], uint16(i))
		return append(buffer, b[:2]...), nil
	case 4:
		binary.BigEndian.PutUint32(b[:4], uint32(i))
		return append(buffer, b[:4]...), nil
	default:
		binary.BigEndian.PutUint64(b[:], uint64(i))
		return append(buffer, b[:]...), nil
	}
}

func (n zarithNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	var i *big.Int
	switch x := v.(type) {
	case Big:
		i = x.Int
	case Int:
		i = big.NewInt(int64(x))
	}
	if nil == i {
		return nil, mismatch(path, n.String(), v)
	}
	if n.signed {
		return append(buffer, ToZarithZ(i)...), nil
	}
	b, err := ToZarithN(i)
	if nil != err {
		return nil, errors.Wrapf(err, "%s: negative natural %s", path, i)
	}
	return append(buffer, b...), nil
}

func (n stringNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	s, ok := v.(String)
	if !ok {
		return nil, mismatch(path, "string", v)
	}
	if uint64(len(s)) > math.MaxUint32 {
		return nil, errors.Wrapf(fault.LengthMismatch, "%s: string too long", path)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(s)))
	buffer = append(buffer, b[:]...)
	return append(buffer, s...), nil
}

func (n bytesNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	b, ok := v.(Bytes)
	if !ok {
		return nil, mismatch(path, "bytes", v)
	}
	return append(buffer, b...), nil
}

func (n sizedNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	b, ok := v.(Bytes)
	if !ok {
		return nil, mismatch(path, n.String(), v)
	}
	if len(b) != n.size {
		return nil, errors.Wrapf(fault.LengthMismatch, "%s: %d bytes for %s", path, len(b), n)
	}
	return append(buffer, b...), nil
}

func (n prefixedNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	inner, err := n.element.encode(nil, v, path)
	if nil != err {
		return nil, err
	}
	length := uint64(len(inner))

	var b [4]byte
	switch n.width {
	case 1:
		if length > math.MaxUint8 {
			return nil, errors.Wrapf(fault.LengthMismatch, "%s: %d bytes exceed 8 bit prefix", path, length)
		}
		buffer = append(buffer, byte(length))
	case 2:
		if length > math.MaxUint16 {
			return nil, errors.Wrapf(fault.LengthMismatch, "%s: %d bytes exceed 16 bit prefix", path, length)
		}
		binary.BigEndian.PutUint16(b[:2], uint16(length))
		buffer = append(buffer, b[:2]...)
	default:
		if length > math.MaxUint32 {
			return nil, errors.Wrapf(fault.LengthMismatch, "%s: %d bytes exceed 32 bit prefix", path, length)
		}
		binary.BigEndian.PutUint32(b[:], uint32(length))
		buffer = append(buffer, b[:]...)
	}
	return append(buffer, inner...), nil
}

func (n listNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	items, ok := v.(List)
	if !ok {
		return nil, mismatch(path, "list", v)
	}
	var err error
	for i, item := range items {
		buffer, err = n.element.encode(buffer, item, fmt.Sprintf("%s[%d]", path, i))
		if nil != err {
			return nil, err
		}
	}
	return buffer, nil
}

func (n objNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	o, ok := v.(Obj)
	if !ok {
		return nil, mismatch(path, "obj", v)
	}
	if len(o) != len(n.fields) {
		return nil, errors.Wrapf(fault.InvalidValue, "%s: %d fields for %d field object", path, len(o), len(n.fields))
	}
	var err error
	for i, f := range n.fields {
		if o[i].Name != f.Name {
			return nil, errors.Wrapf(fault.InvalidValue, "%s: field %d is %q, expected %q", path, i, o[i].Name, f.Name)
		}
		buffer, err = f.Encoding.encode(buffer, o[i].Value, path+"."+f.Name)
		if nil != err {
			return nil, err
		}
	}
	return buffer, nil
}

func (n tagsNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	t, ok := v.(Tagged)
	if !ok {
		return nil, mismatch(path, "tagged", v)
	}
	variant, ok := n.variants[t.Tag]
	if !ok {
		return nil, errors.Wrapf(fault.UnknownTag, "%s: tag %d", path, t.Tag)
	}
	if 1 == n.width {
		buffer = append(buffer, byte(t.Tag))
	} else {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], t.Tag)
		buffer = append(buffer, b[:]...)
	}
	return variant.Encoding.encode(buffer, t.Value, path+"."+variant.Name)
}

func (n optionNode) encode(buffer []byte, v Value, path string) ([]byte, error) {
	o, ok := v.(Option)
	if !ok {
		return nil, mismatch(path, "option", v)
	}
	if o.IsNone() {
		return append(buffer, 0x00), nil
	}
	return n.element.encode(append(buffer, 0xff), o.Value, path)
}
