// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/bitmark-inc/contextd/fault"
)

const separator = "/"

// Path - ordered sequence of context key segments
type Path []string

// NewPath - validated path from segments
func NewPath(segments ...string) (Path, error) {
	p := Path(segments)
	if err := p.validate(true); nil != err {
		return nil, err
	}
	return p, nil
}

// ParsePath - split a "/" separated key
func ParsePath(s string) (Path, error) {
	if "" == s {
		return nil, errors.Wrap(fault.InvalidPath, "empty path")
	}
	return NewPath(strings.Split(s, separator)...)
}

// ParsePrefix - like ParsePath but the empty string is the root prefix
// and a single trailing separator is ignored
func ParsePrefix(s string) (Path, error) {
	s = strings.TrimSuffix(s, separator)
	if "" == s {
		return Path{}, nil
	}
	p := Path(strings.Split(s, separator))
	if err := p.validate(false); nil != err {
		return nil, err
	}
	return p, nil
}

// MustParsePath - for fixed keys known to be valid
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if nil != err {
		panic(err)
	}
	return p
}

func (p Path) validate(nonEmpty bool) error {
	if nonEmpty && 0 == len(p) {
		return errors.Wrap(fault.InvalidPath, "no segments")
	}
	for i, s := range p {
		if "" == s {
			return errors.Wrapf(fault.InvalidPath, "segment %d is empty", i)
		}
		if strings.Contains(s, separator) {
			return errors.Wrapf(fault.InvalidPath, "segment %d contains separator: %q", i, s)
		}
	}
	return nil
}

// String - "/" joined form
func (p Path) String() string {
	return strings.Join(p, separator)
}

// Append - new path with extra segments, the receiver is not modified
func (p Path) Append(segments ...string) Path {
	result := make(Path, 0, len(p)+len(segments))
	result = append(result, p...)
	return append(result, segments...)
}

// Last - final segment
func (p Path) Last() string {
	if 0 == len(p) {
		return ""
	}
	return p[len(p)-1]
}

// HasPrefix - segment-wise prefix test
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, s := range prefix {
		if p[i] != s {
			return false
		}
	}
	return true
}

// Compare - segment by segment, a proper prefix sorts first
func Compare(a Path, b Path) int {
	for i := 0; i < len(a) && i < len(b); i += 1 {
		if c := strings.Compare(a[i], b[i]); 0 != c {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// comparator for the ordered prefix scan
func pathComparator(a, b interface{}) int {
	return Compare(a.(Path), b.(Path))
}
