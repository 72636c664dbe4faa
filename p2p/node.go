// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	tls "github.com/libp2p/go-libp2p/p2p/security/tls"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/flipstarterd/configuration"
	"github.com/bitmark-inc/logger"
)

// defaults
const (
	defaultConnectionsLow  = 64
	defaultConnectionsHigh = 256
	defaultGracePeriod     = time.Minute
	defaultDialTimeout     = 15 * time.Second
)

// Configuration - node settings from the configuration file
type Configuration struct {
	PrivateKey      string   `gluamapper:"private_key" json:"private_key"`
	Listen          []string `gluamapper:"listen" json:"listen"`
	Announce        []string `gluamapper:"announce" json:"announce"`
	Bootstrap       []string `gluamapper:"bootstrap" json:"bootstrap"`
	ConnectionsLow  int      `gluamapper:"connections_low" json:"connections_low"`
	ConnectionsHigh int      `gluamapper:"connections_high" json:"connections_high"`
	GracePeriod     string   `gluamapper:"grace_period" json:"grace_period"`
	DialTimeout     string   `gluamapper:"dial_timeout" json:"dial_timeout"`
	NATPortMap      bool     `gluamapper:"nat_port_map" json:"nat_port_map"`
}

// Node - a running libp2p host with its pubsub router
type Node struct {
	log *logger.L

	Host      host.Host
	PubSub    *pubsub.PubSub
	Announce  []ma.Multiaddr
	Bootstrap []ma.Multiaddr

	dialTimeout time.Duration
	cancel      context.CancelFunc
}

// New - build the host, start gossipsub
func New(conf *Configuration) (*Node, error) {
	log := logger.New("p2p")

	key, err := DecodeIdentity(conf.PrivateKey)
	if nil != err {
		return nil, err
	}

	listen, err := ListenAddresses(conf.Listen)
	if nil != err {
		return nil, err
	}
	announce, err := ListenAddresses(conf.Announce)
	if nil != err {
		return nil, err
	}
	bootstrap, err := PeerAddresses(conf.Bootstrap)
	if nil != err {
		return nil, err
	}

	gracePeriod, err := configuration.ParseDuration(conf.GracePeriod, defaultGracePeriod)
	if nil != err {
		return nil, err
	}
	dialTimeout, err := configuration.ParseDuration(conf.DialTimeout, defaultDialTimeout)
	if nil != err {
		return nil, err
	}

	low := conf.ConnectionsLow
	if low <= 0 {
		low = defaultConnectionsLow
	}
	high := conf.ConnectionsHigh
	if high <= low {
		high = defaultConnectionsHigh
		if high <= low {
			high = 2 * low
		}
	}
	manager, err := connmgr.NewConnManager(low, high, connmgr.WithGracePeriod(gracePeriod))
	if nil != err {
		return nil, err
	}

	options := []libp2p.Option{
		libp2p.Identity(key),
		libp2p.ListenAddrs(listen...),
		libp2p.Security(tls.ID, tls.New),
		libp2p.Security(noise.ID, noise.New),
		libp2p.ConnectionManager(manager),
	}
	if 0 != len(announce) {
		options = append(options, libp2p.AddrsFactory(func([]ma.Multiaddr) []ma.Multiaddr {
			return announce
		}))
	}
	if conf.NATPortMap {
		options = append(options, libp2p.NATPortMap())
	}

	h, err := libp2p.New(options...)
	if nil != err {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ps, err := pubsub.NewGossipSub(ctx, h)
	if nil != err {
		cancel()
		_ = h.Close()
		return nil, err
	}

	monitor(h, log)

	for _, a := range h.Addrs() {
		log.Infof("host address: %s/p2p/%s", a, h.ID())
	}

	return &Node{
		log:         log,
		Host:        h,
		PubSub:      ps,
		Announce:    announce,
		Bootstrap:   bootstrap,
		dialTimeout: dialTimeout,
		cancel:      cancel,
	}, nil
}

// StaticAddresses - announced addresses with this node's id
func (n *Node) StaticAddresses() []string {
	return FullAddresses(n.Announce, n.Host.ID())
}

// ConnectBootstrap - dial the configured bootstrap peers
func (n *Node) ConnectBootstrap(ctx context.Context) int {
	return Connect(ctx, n.Host, n.Bootstrap, n.dialTimeout)
}

// Close - stop pubsub and the host
func (n *Node) Close() error {
	n.cancel()
	return n.Host.Close()
}
