// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "raw", HasArg: getoptions.NO_ARGUMENT, Short: 'r'},
		{Long: "colour", HasArg: getoptions.NO_ARGUMENT, Short: 'g'},
		{Long: "ascii", HasArg: getoptions.NO_ARGUMENT, Short: 'a'},
		{Long: "file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'f'},
		{Long: "level", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'l'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 || len(arguments) > 1 || 1 != len(options["file"]) {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--raw] [--ascii] [--colour] [--level=N] --file=FILE [path-prefix]", program)
	}

	verbose := len(options["verbose"]) > 0
	dumpOpts := dumpOptions{
		raw:    len(options["raw"]) > 0,
		ascii:  len(options["ascii"]) > 0,
		colour: len(options["colour"]) > 0,
	}

	prefix := storage.Path{}
	if 1 == len(arguments) {
		prefix, err = storage.ParsePrefix(arguments[0])
		if nil != err {
			exitwithstatus.Message("%s: path prefix: %q  error: %s", program, arguments[0], err)
		}
	}

	logging := logger.Configuration{
		Directory: ".",
		File:      "context-dump.log",
		Size:      1048576,
		Count:     10,
		Console:   true,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	if err = logger.Initialise(logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	filename := options["file"][0]
	store, err := storage.Open(filename, storage.ReadOnly)
	if nil != err {
		exitwithstatus.Message("%s: storage setup failed with error: %s", program, err)
	}
	defer store.Close()

	head, ok := store.Head()
	if !ok {
		exitwithstatus.Message("%s: database: %q has no levels", program, filename)
	}

	level := head
	if len(options["level"]) > 0 {
		level, err = strconv.ParseUint(options["level"][0], 10, 64)
		if nil != err {
			exitwithstatus.Message("%s: convert level error: %s", program, err)
		}
	}

	if verbose {
		genesis, _ := store.Genesis()
		fmt.Printf("file: %q  genesis: %d  head: %d\n", filename, genesis, head)
		fmt.Printf("level: %d  prefix: %q\n", level, prefix.String())
	}

	n, err := dump(os.Stdout, store, level, prefix, dumpOpts)
	if nil != err {
		exitwithstatus.Message("%s: dump error: %s", program, err)
	}

	if verbose {
		fmt.Printf("entries: %d\n", n)
	}
}
