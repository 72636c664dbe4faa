// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/flipstarterd/metrics"
	"github.com/bitmark-inc/logger"
)

// keep the connection and stream gauges current
func monitor(h host.Host, log *logger.L) {
	h.Network().Notify(&network.NotifyBundle{
		ListenF: func(_ network.Network, addr ma.Multiaddr) {
			log.Debugf("listening: %s", addr)
		},
		ConnectedF: func(_ network.Network, conn network.Conn) {
			metrics.PeerConnections.Inc()
			log.Debugf("connected: %s  address: %s", conn.RemotePeer(), conn.RemoteMultiaddr())
		},
		DisconnectedF: func(_ network.Network, conn network.Conn) {
			metrics.PeerConnections.Dec()
			log.Debugf("disconnected: %s", conn.RemotePeer())
		},
	})
}
