// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2p - the libp2p node
//
// Builds the host from a hex encoded identity, joins gossipsub and
// connects to the bootstrap peers.
package p2p
