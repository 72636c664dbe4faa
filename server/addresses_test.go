// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	sync.Mutex
	calls  int
	relays []string
}

func (p *fakeProber) Probe(ctx context.Context, candidates []ma.Multiaddr) []string {
	p.Lock()
	defer p.Unlock()
	p.calls += 1
	return p.relays
}

func (p *fakeProber) count() int {
	p.Lock()
	defer p.Unlock()
	return p.calls
}

func testPeer(t *testing.T) peer.ID {
	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)
	return id
}

func testCandidate(t *testing.T) ma.Multiaddr {
	addr, err := ma.NewMultiaddr("/ip4/192.0.2.7/tcp/4001/p2p/" + testPeer(t).String())
	require.NoError(t, err)
	return addr
}

func TestAddressesProbeOnDemand(t *testing.T) {
	self := testPeer(t)
	candidate := testCandidate(t)
	prober := &fakeProber{relays: []string{candidate.String()}}
	static := []string{"/ip4/192.0.2.1/tcp/4001/p2p/" + self.String()}

	a := newAddressBook(prober, []ma.Multiaddr{candidate}, self, static, true, time.Minute)

	expected := []string{
		candidate.String() + "/p2p-circuit/p2p/" + self.String(),
		static[0],
	}
	assert.Equal(t, expected, a.Addresses(context.Background()))

	// second call is served from the cache
	assert.Equal(t, expected, a.Addresses(context.Background()))
	assert.Equal(t, 1, prober.count(), "probe not cached")
}

func TestAddressesNoRelaysFound(t *testing.T) {
	self := testPeer(t)
	prober := &fakeProber{relays: []string{}}
	static := []string{"/ip4/192.0.2.1/tcp/4001/p2p/" + self.String()}

	a := newAddressBook(prober, []ma.Multiaddr{testCandidate(t)}, self, static, true, time.Minute)

	assert.Equal(t, static, a.Addresses(context.Background()))

	// an empty result is not cached, so the next request probes again
	a.Addresses(context.Background())
	assert.Equal(t, 2, prober.count())
}

func TestAddressesRelaysDisabled(t *testing.T) {
	self := testPeer(t)
	prober := &fakeProber{relays: []string{"unused"}}

	a := newAddressBook(prober, []ma.Multiaddr{testCandidate(t)}, self, nil, false, time.Minute)

	assert.Empty(t, a.Addresses(context.Background()))
	assert.Empty(t, a.refresh(context.Background()))
	assert.Equal(t, 0, prober.count(), "probed while disabled")
}
