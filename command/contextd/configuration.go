// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/configuration"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/protocol"
	"github.com/bitmark-inc/contextd/rpc"
	"github.com/bitmark-inc/contextd/rpc/listeners"
	"github.com/bitmark-inc/contextd/util"
	"github.com/bitmark-inc/logger"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "context.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "contextd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients = 10
	defaultRate       = 200
	defaultBurst      = 100
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// DatabaseType - location of the level store,
// an empty name keeps the context in memory only
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// CacheType - sizes of the decoded data caches
type CacheType struct {
	Constants int `gluamapper:"constants" json:"constants"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string       `gluamapper:"pidfile" json:"pidfile"`
	Database      DatabaseType `gluamapper:"database" json:"database"`
	Cache         CacheType    `gluamapper:"cache" json:"cache"`

	ClientRPC listeners.RPCConfiguration  `gluamapper:"client_rpc" json:"client_rpc"`
	HttpRPC   listeners.HTTPConfiguration `gluamapper:"http_rpc" json:"http_rpc"`
	Limits    rpc.LimitConfiguration      `gluamapper:"rate_limit" json:"rate_limit"`
	Logging   logger.Configuration        `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabase,
		},

		Cache: CacheType{
			Constants: protocol.DefaultCacheSize,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
		},

		HttpRPC: listeners.HTTPConfiguration{
			MaximumConnections: defaultRPCClients,
		},

		Limits: rpc.LimitConfiguration{
			Rate:  defaultRate,
			Burst: defaultBurst,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); nil != err {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, errors.Wrapf(fault.MissingParameters, "path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = util.EnsureAbsolute(dataDirectory, filepath.Clean(options.DataDirectory))
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, errors.Wrapf(fault.MissingParameters, "path: %q is not a directory", options.DataDirectory)
	}

	if options.Cache.Constants <= 0 {
		return nil, errors.Wrapf(fault.InvalidCount, "constants cache size: %d", options.Cache.Constants)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.HttpRPC.Certificate,
		&options.HttpRPC.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path separator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		if "" == *f[0] {
			continue
		}
		switch filepath.Dir(*f[0]) {
		case "", ".":
		default:
			return nil, errors.Wrapf(fault.MissingParameters, "file: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	if "" != options.Database.Name {
		options.Database.Name = util.EnsureAbsolute(options.Database.Directory, options.Database.Name)
	}

	// replace certificate file names by their PEM contents
	for _, f := range optionalAbsolute[1:] {
		if "" == *f {
			continue
		}
		data, err := ioutil.ReadFile(*f)
		if nil != err {
			return nil, err
		}
		*f = string(data)
	}

	// done
	return options, nil
}
