// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package codec - schema driven binary encoding of structured values
//
// A schema is built from Encoding nodes (fixed width numbers, Zarith
// integers, length prefixed data, lists, objects, tagged unions and
// options) and is used both to Decode a byte buffer into a Value tree
// and to Encode a Value tree back to bytes.
//
// Decoding is all-or-nothing: either the whole input matches the schema
// and a Value is returned, or an error describing the schema position
// of the first mismatch is returned and no partial value escapes.
//
// All fixed width numbers are big-endian.
package codec
