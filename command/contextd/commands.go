// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/storage"
	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
)

// setup command handler
//
// commands that need neither the configuration file nor the database
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false // defer processing until configuration is read

	case "head", "parameters", "params":
		return false // defer processing until database is loaded

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version string\n\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convenience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  head                                - display genesis and head levels of the store\n")
		fmt.Printf("\n")

		fmt.Printf("  parameters [LEVEL]         (params) - protocol and constants in force at LEVEL\n")
		fmt.Printf("                                        default is the head level\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		_ = json.Indent(&out, b, "", "  ")
		_, _ = out.WriteTo(os.Stdout)
		_, _ = os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the store is open so these commands can read the context levels
func processDataCommand(log *logger.L, arguments []string, store storage.Handle) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "head":
		head, ok := store.Head()
		if !ok {
			fmt.Printf("empty store\n")
			break
		}
		genesis, _ := store.Genesis()
		fmt.Printf("genesis: %d\nhead:    %d\n", genesis, head)

	case "parameters", "params":
		head, ok := store.Head()
		if !ok {
			exitwithstatus.Message("error: empty store")
		}
		level := head
		if len(arguments) > 0 {
			n, err := strconv.ParseUint(arguments[0], 10, 64)
			if nil != err {
				exitwithstatus.Message("error in level number: %s", err)
			}
			level = n
		}

		p, err := protocol.ParametersAt(store, level)
		if nil != err {
			exitwithstatus.Message("parameters at level: %d  error: %s", level, err)
		}
		log.Infof("parameters at level: %d  protocol: %s", level, p.Version)

		s, err := json.MarshalIndent(struct {
			Level     uint64      `json:"level"`
			Protocol  string      `json:"protocol"`
			Version   string      `json:"version"`
			Constants interface{} `json:"constants"`
		}{
			Level:     p.Level,
			Protocol:  p.Hash.String(),
			Version:   p.Version.String(),
			Constants: p.Constants.Tree(),
		}, "", "  ")
		if nil != err {
			exitwithstatus.Message("parameters JSON error: %s", err)
		}
		fmt.Printf("%s\n", s)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}
