// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/p2p"
	"github.com/bitmark-inc/flipstarterd/rpc"
)

const defaultClientTimeout = 30 * time.Second

// ask a running node for a campaign through a short lived host
func campaignDetails(address string, campaignID string, timeout time.Duration) (*campaign.Campaign, error) {
	addrs, err := p2p.PeerAddresses([]string{address})
	if nil != err {
		return nil, err
	}
	info, err := peer.AddrInfoFromP2pAddr(addrs[0])
	if nil != err {
		return nil, err
	}

	h, err := libp2p.New(libp2p.NoListenAddrs)
	if nil != err {
		return nil, err
	}
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.Connect(ctx, *info); nil != err {
		return nil, err
	}

	return rpc.NewClient(h, info.ID).CampaignDetails(ctx, campaignID)
}
