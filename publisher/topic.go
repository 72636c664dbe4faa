// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publisher

import (
	"encoding/base64"

	"github.com/ipfs/boxo/ipns"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

const recordTopicPrefix = "/record/"

// NameForKey - the IPNS name of a signing key
func NameForKey(key crypto.PrivKey) (ipns.Name, error) {
	id, err := peer.IDFromPrivateKey(key)
	if nil != err {
		return ipns.Name{}, err
	}
	return ipns.NameFromPeer(id), nil
}

// RecordTopic - pubsub topic carrying records for a name
//
// derived from the public identity alone so any subscriber can compute it
func RecordTopic(name ipns.Name) string {
	return recordTopicPrefix + base64.RawURLEncoding.EncodeToString(name.RoutingKey())
}
