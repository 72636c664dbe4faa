// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/logger"
)

const maximumParallelDials = 8

// Connect - dial every peer concurrently, returns the number reached
//
// peers sharing an id are merged into one dial
func Connect(ctx context.Context, h host.Host, peers []ma.Multiaddr, timeout time.Duration) int {
	log := logger.New("bootstrap")

	infos, err := peer.AddrInfosFromP2pAddrs(peers...)
	if nil != err {
		log.Errorf("bootstrap addresses error: %s", err)
		return 0
	}

	connected := atomic.Int32{}
	g := errgroup.Group{}
	g.SetLimit(maximumParallelDials)

	for _, info := range infos {
		info := info
		if info.ID == h.ID() {
			continue
		}
		g.Go(func() error {
			dialCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := h.Connect(dialCtx, info); nil != err {
				log.Warnf("connect: %s  error: %s", info.ID, err)
				return nil
			}
			connected.Add(1)
			log.Infof("connected: %s", info.ID)
			return nil
		})
	}
	_ = g.Wait()

	return int(connected.Load())
}
