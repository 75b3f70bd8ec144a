// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/contextd/codec"
	"github.com/bitmark-inc/contextd/fault"
	"github.com/bitmark-inc/contextd/metrics"
)

// database layout
//
//   0x00 ++ "VERSION"    - database version (big endian uint32)
//   H                    - head level (big endian uint64)
//   L ++ level           - snappy(codec(record)) for one level
//                          level = big endian uint64
const (
	currentDBVersion = 0x100

	headPrefix  = 'H'
	levelPrefix = 'L'
)

var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}
var headKey = []byte{headPrefix}

// on-disk form of a level
var recordSchema = codec.Object(
	codec.F("level", codec.Int64),
	codec.F("entries", codec.Dynamic(codec.ListOf(codec.Object(
		codec.F("path", codec.StringEncoding),
		codec.F("value", codec.Optional(codec.Dynamic(codec.BytesEncoding))),
	)))),
)

// Open - store backed by a LevelDB database, replaying committed levels
func Open(database string, readOnly bool) (*Store, error) {
	db, version, err := getDB(database, readOnly)
	if nil != err {
		return nil, err
	}

	s := New()
	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	switch {
	case version > currentDBVersion:
		s.log.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return nil, errors.Wrapf(fault.DatabaseMismatch, "version: %d > %d", version, currentDBVersion)
	case 0 == version && readOnly:
		return nil, errors.Wrap(fault.DatabaseMismatch, "read only database has no version")
	case 0 == version:
		err = putVersion(db, currentDBVersion)
		if nil != err {
			return nil, err
		}
	case version < currentDBVersion:
		s.log.Criticalf("database version: %d < current version: %d", version, currentDBVersion)
		return nil, errors.Wrapf(fault.DatabaseMismatch, "version: %d < %d", version, currentDBVersion)
	}

	err = s.replay(db)
	if nil != err {
		return nil, err
	}

	if !readOnly {
		s.db = db
	} else {
		db.Close()
	}
	ok = true
	return s, nil
}

// rebuild the in-memory index from the stored levels
func (s *Store) replay(db *leveldb.DB) error {
	iter := db.NewIterator(ldb_util.BytesPrefix([]byte{levelPrefix}), nil)
	defer iter.Release()

	count := 0
	last := uint64(0)
	for iter.Next() {
		level, entries, err := readRecord(iter.Key(), iter.Value())
		if nil != err {
			return err
		}
		err = s.append(level, entries, false)
		if nil != err {
			return err
		}
		last = level
		count += 1
	}
	if err := iter.Error(); nil != err {
		return err
	}

	head, err := db.Get(headKey, nil)
	switch {
	case leveldb.ErrNotFound == err && 0 == count:
		return nil
	case nil != err:
		return errors.Wrapf(fault.DatabaseMismatch, "head: %s", err)
	case 8 != len(head) || binary.BigEndian.Uint64(head) != last:
		return errors.Wrapf(fault.DatabaseMismatch, "head record does not match last level: %d", last)
	}

	metrics.StorageHeadGauge.Set(float64(last))
	s.log.Infof("replayed levels: %d  head: %d", count, last)
	return nil
}

func levelKey(level uint64) []byte {
	key := make([]byte, 9)
	key[0] = levelPrefix
	binary.BigEndian.PutUint64(key[1:], level)
	return key
}

// write a level and the new head in one batch
func writeRecord(db *leveldb.DB, level uint64, entries []Entry) error {
	items := make(codec.List, len(entries))
	for i, e := range entries {
		v := codec.Option{}
		if !e.Bucket.Deleted {
			v.Value = codec.Bytes(e.Bucket.Value)
		}
		items[i] = codec.Obj{
			{Name: "path", Value: codec.String(e.Path.String())},
			{Name: "value", Value: v},
		}
	}
	packed, err := codec.Encode(recordSchema, codec.Obj{
		{Name: "level", Value: codec.Int(level)},
		{Name: "entries", Value: items},
	})
	if nil != err {
		return err
	}

	head := make([]byte, 8)
	binary.BigEndian.PutUint64(head, level)

	batch := new(leveldb.Batch)
	batch.Put(levelKey(level), snappy.Encode(nil, packed))
	batch.Put(headKey, head)
	return db.Write(batch, nil)
}

func readRecord(key []byte, data []byte) (uint64, []Entry, error) {
	if 9 != len(key) {
		return 0, nil, errors.Wrapf(fault.DatabaseMismatch, "level key length: %d", len(key))
	}
	level := binary.BigEndian.Uint64(key[1:])

	packed, err := snappy.Decode(nil, data)
	if nil != err {
		return 0, nil, errors.Wrapf(fault.DatabaseMismatch, "level: %d  %s", level, err)
	}
	v, err := codec.Decode(recordSchema, packed)
	if nil != err {
		return 0, nil, errors.Wrapf(err, "level: %d", level)
	}

	o := v.(codec.Obj)
	if stored, _ := o.Get("level"); uint64(stored.(codec.Int)) != level {
		return 0, nil, errors.Wrapf(fault.DatabaseMismatch, "level: %d  record holds: %d", level, stored)
	}

	items, _ := o.Get("entries")
	entries := make([]Entry, 0, len(items.(codec.List)))
	for _, item := range items.(codec.List) {
		fields := item.(codec.Obj)
		p, _ := fields.Get("path")
		path, err := ParsePath(string(p.(codec.String)))
		if nil != err {
			return 0, nil, err
		}
		bucket := Deleted()
		if v, _ := fields.Get("value"); !v.(codec.Option).IsNone() {
			bucket = Exists([]byte(v.(codec.Option).Value.(codec.Bytes)))
		}
		entries = append(entries, Entry{Path: path, Bucket: bucket})
	}
	return level, entries, nil
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, errors.Wrapf(fault.DatabaseMismatch, "version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
