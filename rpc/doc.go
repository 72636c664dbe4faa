// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - the public campaign protocols
//
// Each request is a single libp2p stream carrying one varint length
// prefixed JSON request followed by one response:
//
//   /flipstarter/create           {"campaign": {...}}
//   /flipstarter/submit           {"campaignId": "...", "contribution": {"data": {...}, "inputs": [...]}}
//   /flipstarter/campaignDetails  {"campaignId": "..."}
//
// Responses are wrapped as {"ok": true, "result": ...} or
// {"ok": false, "error": {"kind": "...", "message": "..."}}
package rpc
