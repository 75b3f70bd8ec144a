// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the versioned context store
//
// Each committed level keeps only its own writes plus merged windows
// laid out as a Fenwick tree over level positions:
//
//   position p = level - genesis + 1
//   lane h of p = latest writes of positions (p - 2^h, p]
//   h = 0 … trailing zero bits of p
//
// A lookup at p visits the top lane of p, then of p - lowbit(p) and so
// on, so at most log2(p)+1 windows are read and the first window holding
// the path gives the answer (possibly a tombstone).
//
// Database layout when backed by LevelDB:
//
//   0x00 ++ "VERSION"    - database version
//                          data: big endian uint32
//   H                    - head level
//                          data: big endian uint64
//   L ++ level           - writes of one level
//                          level: big endian uint64
//                          data: snappy(obj{level:int64,
//                                  entries:dynamic(list(obj{path:string,
//                                  value:option(dynamic(bytes))}))})
//
// a value of none is a tombstone
package storage
