// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publisher

import (
	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerCheck - acceptance predicate over the peers subscribed to a topic
type PeerCheck func(peers []peer.ID) bool

// ContainsAny - accept once any of the ids is subscribed
func ContainsAny(ids ...peer.ID) PeerCheck {
	return func(peers []peer.ID) bool {
		for _, p := range peers {
			for _, id := range ids {
				if p == id {
					return true
				}
			}
		}
		return false
	}
}

// AtLeast - accept once n of the expected ids are subscribed, or n of
// any peers if none are expected
func AtLeast(n int, expected ...peer.ID) PeerCheck {
	return func(peers []peer.ID) bool {
		if 0 == len(expected) {
			return len(peers) >= n
		}
		count := 0
		for _, id := range expected {
			for _, p := range peers {
				if p == id {
					count += 1
					break
				}
			}
		}
		return count >= n
	}
}

// AnyPeer - accept once anybody is subscribed
func AnyPeer() PeerCheck {
	return AtLeast(1)
}
