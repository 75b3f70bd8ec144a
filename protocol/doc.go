// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol - economic protocol versions and their constants
//
// a context names its protocol by the hash stored under "protocol";
// the hash selects one of a closed set of versions and the version
// selects the layout of "data/v1/constants":
//
//   001 to 004     every field optional, absent fields take defaults
//   005 and 005_2  Babylon layout, every field present
//   006            Babylon layout with per endorsement reward lists
//
// decoded constants are cached by the digest of their bytes
package protocol
