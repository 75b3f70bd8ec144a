// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rights - baking and endorsing rights
//
// delegates are drawn from the roll snapshot selected for a cycle,
// using a blake2b chain seeded by the cycle's random seed, the level's
// position in the cycle and the priority or slot being filled
package rights
