// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package relay - find peers willing to act as circuit relays
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	pbv2 "github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/pb"
	"github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/proto"
	"github.com/libp2p/go-msgio/pbio"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/metrics"
	"github.com/bitmark-inc/logger"
)

const (
	// DefaultTimeout - bound on each dial and each hop exchange
	DefaultTimeout = 10 * time.Second

	// DefaultParallelism - candidates probed at the same time
	DefaultParallelism = 8

	maxMessageSize = 4096
)

// Prober - RelayProbe
type Prober struct {
	log         *logger.L
	host        host.Host
	timeout     time.Duration
	parallelism int
}

// New - create a prober using host for all connections
func New(h host.Host, timeout time.Duration, parallelism int) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Prober{
		log:         logger.New("relay"),
		host:        h,
		timeout:     timeout,
		parallelism: parallelism,
	}
}

// Probe - the canonical addresses of every candidate that accepted a
// relay reservation, in candidate order
//
// each failing candidate is disconnected, redialled and probed once more
func (p *Prober) Probe(ctx context.Context, candidates []ma.Multiaddr) []string {
	results := make([]string, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			if err := p.probeOne(gctx, candidate); nil != err {
				p.log.Debugf("candidate: %s  not a relay: %s", candidate, err)
				return nil
			}
			results[i] = candidate.String()
			return nil
		})
	}
	_ = g.Wait()

	capable := make([]string, 0, len(results))
	for _, r := range results {
		if "" != r {
			capable = append(capable, r)
		}
	}

	metrics.RelayPeers.Set(float64(len(capable)))
	p.log.Infof("relay probe: %d of %d candidates capable", len(capable), len(candidates))

	return capable
}

func (p *Prober) probeOne(ctx context.Context, candidate ma.Multiaddr) error {
	info, err := peer.AddrInfoFromP2pAddr(candidate)
	if nil != err {
		return fmt.Errorf("%w: %s", fault.ErrInvalidPeerAddress, err)
	}
	if info.ID == p.host.ID() {
		return fault.ErrInvalidPeerAddress
	}
	p.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstore.TempAddrTTL)

	err = p.connect(ctx, *info)
	if nil == err {
		err = p.CanHop(ctx, info.ID)
	}
	if nil == err {
		return nil
	}

	// hang up and try once more on a fresh connection
	p.log.Debugf("peer: %s  first probe failed: %s", info.ID, err)
	_ = p.host.Network().ClosePeer(info.ID)

	if err := p.connect(ctx, *info); nil != err {
		return err
	}
	return p.CanHop(ctx, info.ID)
}

func (p *Prober) connect(ctx context.Context, info peer.AddrInfo) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.host.Connect(ctx, info)
}

// CanHop - ask a connected peer for a relay reservation
func (p *Prober) CanHop(ctx context.Context, id peer.ID) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s, err := p.host.NewStream(ctx, id, proto.ProtoIDv2Hop)
	if nil != err {
		return err
	}
	defer s.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	}

	rd := pbio.NewDelimitedReader(s, maxMessageSize)
	wr := pbio.NewDelimitedWriter(s)

	msg := pbv2.HopMessage{
		Type: pbv2.HopMessage_RESERVE.Enum(),
	}
	if err := wr.WriteMsg(&msg); nil != err {
		s.Reset()
		return err
	}

	msg.Reset()
	if err := rd.ReadMsg(&msg); nil != err {
		s.Reset()
		return err
	}

	if msg.GetType() != pbv2.HopMessage_STATUS {
		return fmt.Errorf("%w: unexpected response type: %d", fault.ErrRelayNotCapable, msg.GetType())
	}
	if status := msg.GetStatus(); status != pbv2.Status_OK {
		return fmt.Errorf("%w: status: %s (%d)", fault.ErrRelayNotCapable, pbv2.Status_name[int32(status)], status)
	}
	return nil
}

// CircuitAddresses - addresses by which peers can reach self through
// each relay, followed by the static addresses
func CircuitAddresses(relays []string, self peer.ID, static []string) []string {
	addresses := make([]string, 0, len(relays)+len(static))
	for _, r := range relays {
		addresses = append(addresses, r+"/p2p-circuit/p2p/"+self.String())
	}
	return append(addresses, static...)
}
