// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"github.com/pkg/errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type DecodeError GenericError
type InvalidError GenericError
type LookupError GenericError
type ProcessError GenericError
type ProtocolError GenericError
type StoreError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised  = ProcessError("already initialised")
	DatabaseMismatch    = StoreError("database version mismatch")
	DuplicateTag        = InvalidError("duplicate tag in tagged union")
	InvalidAddress      = InvalidError("invalid address")
	InvalidChecksum     = InvalidError("invalid checksum")
	InvalidCount        = InvalidError("invalid count")
	InvalidIpAddress    = InvalidError("invalid IP address")
	InvalidPath         = InvalidError("invalid path")
	InvalidPublicKey    = InvalidError("invalid public key")
	InvalidRequest      = InvalidError("invalid request")
	InvalidValue        = DecodeError("value does not match encoding")
	LengthMismatch      = DecodeError("length mismatch")
	LevelExists         = StoreError("level already committed")
	LevelNotContiguous  = StoreError("level is not contiguous with head")
	LevelNotFound       = StoreError("level not found")
	MalformedZarith     = DecodeError("malformed zarith")
	MandatoryKeyMissing = LookupError("mandatory key missing")
	MissingParameters   = ProcessError("missing parameters")
	NotInitialised      = ProcessError("not initialised")
	NotStarted          = ProcessError("not started")
	PathNotFound        = LookupError("path not found")
	RateLimiting        = ProcessError("rate limiting")
	TrailingData        = DecodeError("trailing data")
	TruncatedInput      = DecodeError("truncated input")
	UnknownTag          = DecodeError("unknown tag")
	UnsupportedProtocol = ProtocolError("unsupported protocol")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e DecodeError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LookupError) Error() string   { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e ProtocolError) Error() string { return string(e) }
func (e StoreError) Error() string    { return string(e) }

// determine the class of an error, seeing through any wrapping
func IsErrDecode(e error) bool   { _, ok := errors.Cause(e).(DecodeError); return ok }
func IsErrInvalid(e error) bool  { _, ok := errors.Cause(e).(InvalidError); return ok }
func IsErrLookup(e error) bool   { _, ok := errors.Cause(e).(LookupError); return ok }
func IsErrProcess(e error) bool  { _, ok := errors.Cause(e).(ProcessError); return ok }
func IsErrProtocol(e error) bool { _, ok := errors.Cause(e).(ProtocolError); return ok }
func IsErrStore(e error) bool    { _, ok := errors.Cause(e).(StoreError); return ok }

// Is - true if the root cause of err is the given instance
func Is(err error, target error) bool {
	return errors.Cause(err) == target
}
