// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/flipstarterd/relay"
	"github.com/bitmark-inc/logger"
)

const relaysKey = "relays"

type relayProber interface {
	Probe(ctx context.Context, candidates []ma.Multiaddr) []string
}

// the addresses advertised to campaign owners
type addressBook struct {
	log        *logger.L
	prober     relayProber
	candidates []ma.Multiaddr
	self       peer.ID
	static     []string
	useRelays  bool
	relays     *cache.Cache
}

// relay results stay valid for two refresh periods so a single failed
// refresh does not drop them
func newAddressBook(prober relayProber, candidates []ma.Multiaddr, self peer.ID, static []string, useRelays bool, refresh time.Duration) *addressBook {
	return &addressBook{
		log:        logger.New("addresses"),
		prober:     prober,
		candidates: candidates,
		self:       self,
		static:     static,
		useRelays:  useRelays,
		relays:     cache.New(2*refresh, refresh),
	}
}

// refresh - probe the candidates and cache the relays found
func (a *addressBook) refresh(ctx context.Context) []string {
	if !a.useRelays || 0 == len(a.candidates) {
		return []string{}
	}
	relays := a.prober.Probe(ctx, a.candidates)
	if 0 != len(relays) {
		a.relays.SetDefault(relaysKey, relays)
	}
	a.log.Infof("relays: %q", relays)
	return relays
}

// Addresses - circuit addresses through the cached relays followed by
// the static addresses, probing first if nothing is cached
func (a *addressBook) Addresses(ctx context.Context) []string {
	if !a.useRelays {
		return relay.CircuitAddresses(nil, a.self, a.static)
	}

	var relays []string
	if cached, ok := a.relays.Get(relaysKey); ok {
		relays = cached.([]string)
	} else {
		relays = a.refresh(ctx)
	}
	return relay.CircuitAddresses(relays, a.self, a.static)
}
