// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the local index database
//
// A single LevelDB database split into tables by a one byte key
// prefix. The campaign index maps campaign ids to the latest snapshot
// and sequence number; the key index holds sealed signing keys.
package storage
