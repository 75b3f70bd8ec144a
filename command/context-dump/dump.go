// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bitmark-inc/contextd/account"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
)

// colours
const (
	keyColour1 = "\033[1;36m"
	keyColour2 = "\033[1;31m"
	valColour1 = "\033[1;33m"
	valColour2 = "\033[1;34m"
	delColour1 = "\033[1;35m"
	delColour2 = "\033[0;35m"
	endColour  = "\033[0m"
)

type dumpOptions struct {
	raw    bool // hex values even where a decoding is known
	ascii  bool // hex dump with printable characters
	colour bool
}

type palette struct {
	k1, k2, v1, v2, d1, d2, e string
}

func (o dumpOptions) palette() palette {
	if !o.colour {
		return palette{}
	}
	return palette{
		k1: keyColour1,
		k2: keyColour2,
		v1: valColour1,
		v2: valColour2,
		d1: delColour1,
		d2: delColour2,
		e:  endColour,
	}
}

// protocol in force at a level, false if none was ever recorded
func versionAt(reader storage.Reader, level uint64) (protocol.Version, bool, error) {
	raw, found, err := storage.Optional(reader, level, storage.Path{"protocol"})
	if nil != err || !found {
		return 0, false, err
	}
	hash, err := account.ProtocolHashFromBytes(raw)
	if nil != err {
		return 0, false, err
	}
	v, err := protocol.FromHash(hash)
	if nil != err {
		return 0, false, err
	}
	return v, true, nil
}

// write every entry under prefix at level, returns the number written
func dump(w io.Writer, reader storage.Reader, level uint64, prefix storage.Path, options dumpOptions) (int, error) {
	entries, err := reader.GetByPrefix(level, prefix)
	if nil != err {
		return 0, err
	}

	version, decode, err := versionAt(reader, level)
	if nil != err {
		return 0, err
	}
	decode = decode && !options.raw

	c := options.palette()
	for i, e := range entries {
		fmt.Fprintf(w, "%d: %sKey: %s%s%s\n", i, c.k1, c.k2, e.Path, c.e)

		switch {
		case e.Bucket.Deleted:
			fmt.Fprintf(w, "%d: %sDeleted%s\n", i, c.d1, c.e)

		case decode:
			v, err := protocol.DecodeContextValue(version, e.Path, e.Bucket.Value)
			if nil != err {
				fmt.Fprintf(w, "%d: %sError: %s%s%s\n", i, c.d1, c.d2, err, c.e)
				fmt.Fprintf(w, "%d: %sVal: %s%x%s\n", i, c.v1, c.v2, e.Bucket.Value, c.e)
				continue
			}
			text, err := json.Marshal(v)
			if nil != err {
				return i, err
			}
			fmt.Fprintf(w, "%d: %sVal: %s%s%s\n", i, c.v1, c.v2, text, c.e)

		case options.ascii:
			hexDump(w, fmt.Sprintf("%d: %sVal: %s", i, c.v1, c.v2), c.e, e.Bucket.Value)

		default:
			fmt.Fprintf(w, "%d: %sVal: %s%x%s\n", i, c.v1, c.v2, e.Bucket.Value, c.e)
		}
	}
	return len(entries), nil
}

func hexDump(w io.Writer, prefix string, suffix string, data []byte) {
	address := 0
	const bytesPerLine = 32
	for i := 0; i < len(data); i += bytesPerLine {
		fmt.Fprintf(w, "%s%04x  ", prefix, address)
		address += bytesPerLine
		for j := 0; j < bytesPerLine; j += 1 {
			if bytesPerLine/2 == j {
				fmt.Fprintf(w, " ")
			}
			if i+j < len(data) {
				fmt.Fprintf(w, "%02x ", data[i+j])
			} else {
				fmt.Fprintf(w, "   ")
			}
		}
		fmt.Fprintf(w, " |")
	ascii_loop:
		for j := 0; j < bytesPerLine; j += 1 {
			if i+j < len(data) {
				c := data[i+j]
				if c < 32 || c >= 127 {
					c = '.'
				}
				fmt.Fprintf(w, "%c", c)

			} else {
				break ascii_loop
			}
		}
		fmt.Fprintf(w, "|%s\n", suffix)
	}
}
