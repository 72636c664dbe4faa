// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - Lua configuration files for the daemon
//
// the file is executed with the standard Lua libraries open and must
// return a table; arg[0] holds the file name so relative key files
// can be read from beside it.  Durations are strings such as "10m".
package configuration
