// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/contextd/fault"
)

// Encoding - one node of a schema
type Encoding interface {
	fmt.Stringer
	decode(d *decoder, path string) (Value, error)
	encode(buffer []byte, v Value, path string) ([]byte, error)
}

// fixed width number kinds
type kind int

const (
	kindBool kind = iota
	kindInt8
	kindUint8
	kindInt16
	kindUint16
	kindInt31
	kindInt32
	kindUint32
	kindInt64
	kindFloat64
)

var kindNames = map[kind]string{
	kindBool:    "bool",
	kindInt8:    "int8",
	kindUint8:   "uint8",
	kindInt16:   "int16",
	kindUint16:  "uint16",
	kindInt31:   "int31",
	kindInt32:   "int32",
	kindUint32:  "uint32",
	kindInt64:   "int64",
	kindFloat64: "float64",
}

var kindSizes = map[kind]int{
	kindBool:    1,
	kindInt8:    1,
	kindUint8:   1,
	kindInt16:   2,
	kindUint16:  2,
	kindInt31:   4,
	kindInt32:   4,
	kindUint32:  4,
	kindInt64:   8,
	kindFloat64: 8,
}

type fixedNode struct {
	kind kind
}

type unitNode struct{}

type zarithNode struct {
	signed bool
}

type stringNode struct{}

type bytesNode struct{}

type sizedNode struct {
	size int
}

type prefixedNode struct {
	width   int
	element Encoding
}

type listNode struct {
	element Encoding
}

// FieldEncoding - a named member of an object schema
type FieldEncoding struct {
	Name     string
	Encoding Encoding
}

type objNode struct {
	fields []FieldEncoding
}

// Variant - one alternative of a tagged union
type Variant struct {
	Tag      uint16
	Name     string
	Encoding Encoding
}

type tagsNode struct {
	width    int
	variants map[uint16]Variant
	order    []uint16
}

type optionNode struct {
	element Encoding
}

// schema constructors
var (
	UnitEncoding Encoding = unitNode{}
	BoolEncoding Encoding = fixedNode{kind: kindBool}
	Int8         Encoding = fixedNode{kind: kindInt8}
	Uint8        Encoding = fixedNode{kind: kindUint8}
	Int16        Encoding = fixedNode{kind: kindInt16}
	Uint16       Encoding = fixedNode{kind: kindUint16}
	Int31        Encoding = fixedNode{kind: kindInt31}
	Int32        Encoding = fixedNode{kind: kindInt32}
	Uint32       Encoding = fixedNode{kind: kindUint32}
	Int64        Encoding = fixedNode{kind: kindInt64}
	Float64      Encoding = fixedNode{kind: kindFloat64}
	Z            Encoding = zarithNode{signed: true}
	N            Encoding = zarithNode{signed: false}

	// StringEncoding - u32 length prefixed UTF-8
	StringEncoding Encoding = stringNode{}

	// BytesEncoding - every byte remaining in the enclosing budget
	BytesEncoding Encoding = bytesNode{}
)

// Fixed - exactly size raw bytes
func Fixed(size int) Encoding {
	return sizedNode{size: size}
}

// Dynamic - u32 length prefix, the element must use exactly that many bytes
func Dynamic(element Encoding) Encoding {
	return prefixedNode{width: 4, element: element}
}

// Prefixed - like Dynamic with a 1, 2 or 4 byte length prefix
func Prefixed(width int, element Encoding) Encoding {
	switch width {
	case 1, 2, 4:
	default:
		panic(fmt.Sprintf("codec: invalid length prefix width: %d", width))
	}
	return prefixedNode{width: width, element: element}
}

// ListOf - items until the enclosing budget is exhausted
func ListOf(element Encoding) Encoding {
	return listNode{element: element}
}

// Object - fields in declaration order
func Object(fields ...FieldEncoding) Encoding {
	return objNode{fields: fields}
}

// F - shorthand for a field encoding
func F(name string, encoding Encoding) FieldEncoding {
	return FieldEncoding{Name: name, Encoding: encoding}
}

// Tags - tagged union with a 1 or 2 byte tag
//
// panics on duplicate tags or a tag that does not fit the width
func Tags(width int, variants ...Variant) Encoding {
	if 1 != width && 2 != width {
		panic(fmt.Sprintf("codec: invalid tag width: %d", width))
	}
	node := tagsNode{
		width:    width,
		variants: make(map[uint16]Variant, len(variants)),
		order:    make([]uint16, 0, len(variants)),
	}
	for _, v := range variants {
		if 1 == width && v.Tag > 0xff {
			panic(fmt.Sprintf("codec: tag %d does not fit in one byte", v.Tag))
		}
		if _, ok := node.variants[v.Tag]; ok {
			panic(fmt.Sprintf("codec: %s: %d", fault.DuplicateTag, v.Tag))
		}
		node.variants[v.Tag] = v
		node.order = append(node.order, v.Tag)
	}
	return node
}

// Optional - 0x00 for none, 0xff followed by the element for some
func Optional(element Encoding) Encoding {
	return optionNode{element: element}
}

func (n fixedNode) String() string { return kindNames[n.kind] }
func (unitNode) String() string    { return "unit" }
func (stringNode) String() string  { return "string" }
func (bytesNode) String() string   { return "bytes" }

func (n zarithNode) String() string {
	if n.signed {
		return "z"
	}
	return "n"
}

func (n sizedNode) String() string { return fmt.Sprintf("fixed(%d)", n.size) }

func (n prefixedNode) String() string {
	if 4 == n.width {
		return "dynamic(" + n.element.String() + ")"
	}
	return fmt.Sprintf("prefixed%d(%s)", n.width*8, n.element)
}

func (n listNode) String() string   { return "list(" + n.element.String() + ")" }
func (n optionNode) String() string { return "option(" + n.element.String() + ")" }

func (n objNode) String() string {
	s := make([]string, len(n.fields))
	for i, f := range n.fields {
		s[i] = f.Name + ":" + f.Encoding.String()
	}
	return "obj{" + strings.Join(s, ", ") + "}"
}

func (n tagsNode) String() string {
	s := make([]string, len(n.order))
	for i, tag := range n.order {
		v := n.variants[tag]
		s[i] = fmt.Sprintf("%d=%s:%s", tag, v.Name, v.Encoding)
	}
	return fmt.Sprintf("tags%d{%s}", n.width*8, strings.Join(s, ", "))
}
