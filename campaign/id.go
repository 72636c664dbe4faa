// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package campaign

import (
	"sort"
	"strconv"
	"strings"
)

// DeriveID - deterministic identifier of a campaign
//
// format: starts-expires-address1-satoshis1,address2-satoshis2,...
// with recipients ordered by ascending satoshis, equal amounts keeping
// their submitted order
func DeriveID(c *Campaign) string {
	recipients := append([]Recipient(nil), c.Recipients...)
	sort.SliceStable(recipients, func(i, j int) bool {
		return recipients[i].Satoshis < recipients[j].Satoshis
	})

	keys := make([]string, len(recipients))
	for i, r := range recipients {
		keys[i] = r.Address + "-" + strconv.FormatUint(r.Satoshis, 10)
	}

	return strconv.FormatInt(c.Starts, 10) + "-" +
		strconv.FormatInt(c.Expires, 10) + "-" +
		strings.Join(keys, ",")
}
