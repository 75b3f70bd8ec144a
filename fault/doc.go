// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error classes and their instances
//
// Every error returned by the context store, the codec and the
// derivations has one of these instances as its cause, so callers
// compare with fault.Is or test the class with IsErrX after any
// amount of errors.Wrap
package fault
