// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

const rootPath = "$"

type decoder struct {
	buffer []byte
	offset int
	limit  int // end of the current length budget
}

// Decode - decode a complete buffer according to a schema
//
// the whole buffer must be consumed
func Decode(schema Encoding, buffer []byte) (Value, error) {
	d := &decoder{
		buffer: buffer,
		limit:  len(buffer),
	}
	v, err := schema.decode(d, rootPath)
	if nil != err {
		return nil, err
	}
	if d.offset != len(buffer) {
		return nil, errors.Wrapf(fault.TrailingData, "%s: %d bytes after end of value", rootPath, len(buffer)-d.offset)
	}
	return v, nil
}

func (d *decoder) remaining() int {
	return d.limit - d.offset
}

func (d *decoder) take(n int, path string) ([]byte, error) {
	if n > d.remaining() {
		return nil, errors.Wrapf(fault.TruncatedInput, "%s: need %d bytes, %d remain", path, n, d.remaining())
	}
	b := d.buffer[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *decoder) length(width int, path string) (int, error) {
	b, err := d.take(width, path)
	if nil != err {
		return 0, err
	}
	switch width {
	case 1:
		return int(b[0]), nil
	case 2:
		return int(binary.BigEndian.Uint16(b)), nil
	default:
		return int(binary.BigEndian.Uint32(b)), nil
	}
}

func (n unitNode) decode(d *decoder, path string) (Value, error) {
	return Unit{}, nil
}

func (n fixedNode) decode(d *decoder, path string) (Value, error) {
	b, err := d.take(kindSizes[n.kind], path)
	if nil != err {
		return nil, err
	}
	switch n.kind {
	case kindBool:
		switch b[0] {
		case 0x00:
			return Bool(false), nil
		case 0xff:
			return Bool(true), nil
		}
		return nil, errors.Wrapf(fault.InvalidValue, "%s: boolean byte 0x%02x", path, b[0])
	case kindInt8:
		return Int(int8(b[0])), nil
	case kindUint8:
		return Int(b[0]), nil
	case kindInt16:
		return Int(int16(binary.BigEndian.Uint16(b))), nil
	case kindUint16:
		return Int(binary.BigEndian.Uint16(b)), nil
	case kindInt31:
		i := int32(binary.BigEndian.Uint32(b))
		if i < minInt31 || i > maxInt31 {
			return nil, errors.Wrapf(fault.InvalidValue, "%s: %d out of int31 range", path, i)
		}
		return Int(i), nil
	case kindInt32:
		return Int(int32(binary.BigEndian.Uint32(b))), nil
	case kindUint32:
		return Int(binary.BigEndian.Uint32(b)), nil
	case kindInt64:
		return Int(int64(binary.BigEndian.Uint64(b))), nil
	case kindFloat64:
		return Float(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	}
	return nil, errors.Wrapf(fault.InvalidValue, "%s: unknown kind %d", path, n.kind)
}

func (n zarithNode) decode(d *decoder, path string) (Value, error) {
	i, count, err := fromZarith(d.buffer[d.offset:d.limit], n.signed)
	if nil != err {
		return nil, errors.Wrapf(err, "%s", path)
	}
	d.offset += count
	return Big{Int: i}, nil
}

func (n stringNode) decode(d *decoder, path string) (Value, error) {
	length, err := d.length(4, path)
	if nil != err {
		return nil, err
	}
	if length > d.remaining() {
		return nil, errors.Wrapf(fault.LengthMismatch, "%s: declared %d bytes, %d remain", path, length, d.remaining())
	}
	b, _ := d.take(length, path)
	return String(b), nil
}

func (n bytesNode) decode(d *decoder, path string) (Value, error) {
	b, _ := d.take(d.remaining(), path)
	return Bytes(copyBytes(b)), nil
}

func (n sizedNode) decode(d *decoder, path string) (Value, error) {
	b, err := d.take(n.size, path)
	if nil != err {
		return nil, err
	}
	return Bytes(copyBytes(b)), nil
}

func (n prefixedNode) decode(d *decoder, path string) (Value, error) {
	length, err := d.length(n.width, path)
	if nil != err {
		return nil, err
	}
	if length > d.remaining() {
		return nil, errors.Wrapf(fault.LengthMismatch, "%s: declared %d bytes, %d remain", path, length, d.remaining())
	}

	saved := d.limit
	d.limit = d.offset + length
	v, err := n.element.decode(d, path)
	if nil != err {
		return nil, err
	}
	if d.offset != d.limit {
		return nil, errors.Wrapf(fault.LengthMismatch, "%s: %d of %d declared bytes unused", path, d.limit-d.offset, length)
	}
	d.limit = saved
	return v, nil
}

func (n listNode) decode(d *decoder, path string) (Value, error) {
	result := List{}
	for i := 0; d.remaining() > 0; i += 1 {
		start := d.offset
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		v, err := n.element.decode(d, itemPath)
		if nil != err {
			return nil, err
		}
		if d.offset == start {
			return nil, errors.Wrapf(fault.InvalidValue, "%s: list element consumed no input", itemPath)
		}
		result = append(result, v)
	}
	return result, nil
}

func (n objNode) decode(d *decoder, path string) (Value, error) {
	result := make(Obj, len(n.fields))
	for i, f := range n.fields {
		v, err := f.Encoding.decode(d, path+"."+f.Name)
		if nil != err {
			return nil, err
		}
		result[i] = Field{Name: f.Name, Value: v}
	}
	return result, nil
}

func (n tagsNode) decode(d *decoder, path string) (Value, error) {
	b, err := d.take(n.width, path)
	if nil != err {
		return nil, err
	}
	tag := uint16(b[0])
	if 2 == n.width {
		tag = binary.BigEndian.Uint16(b)
	}
	variant, ok := n.variants[tag]
	if !ok {
		return nil, errors.Wrapf(fault.UnknownTag, "%s: tag %d", path, tag)
	}
	v, err := variant.Encoding.decode(d, path+"."+variant.Name)
	if nil != err {
		return nil, err
	}
	return Tagged{Tag: tag, Name: variant.Name, Value: v}, nil
}

func (n optionNode) decode(d *decoder, path string) (Value, error) {
	b, err := d.take(1, path)
	if nil != err {
		return nil, err
	}
	switch b[0] {
	case 0x00:
		return Option{}, nil
	case 0xff:
		v, err := n.element.decode(d, path)
		if nil != err {
			return nil, err
		}
		return Option{Value: v}, nil
	}
	return nil, errors.Wrapf(fault.InvalidValue, "%s: option flag 0x%02x", path, b[0])
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
