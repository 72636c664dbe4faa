// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay_test

import (
	"context"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	relayv2 "github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/relay"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/flipstarterd/relay"
	"github.com/bitmark-inc/logger"
)

const (
	testingDirName = "testing"
)

func TestMain(m *testing.M) {
	_ = os.RemoveAll(testingDirName)
	_ = os.Mkdir(testingDirName, 0700)
	_ = logger.Initialise(logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
	rc := m.Run()
	logger.Finalise()
	_ = os.RemoveAll(testingDirName)
	os.Exit(rc)
}

func p2pAddress(t *testing.T, h host.Host) ma.Multiaddr {
	addrs, err := peer.AddrInfoToP2pAddrs(&peer.AddrInfo{ID: h.ID(), Addrs: h.Addrs()[:1]})
	require.NoError(t, err)
	return addrs[0]
}

func unreachableAddress(t *testing.T) ma.Multiaddr {
	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)
	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/1/p2p/" + id.String())
	require.NoError(t, err)
	return addr
}

func TestProbe(t *testing.T) {
	mn, err := mocknet.FullMeshConnected(3)
	require.NoError(t, err, "mocknet")
	defer mn.Close()

	hosts := mn.Hosts()
	local, relayHost, plain := hosts[0], hosts[1], hosts[2]

	service, err := relayv2.New(relayHost)
	require.NoError(t, err, "relay service")
	defer service.Close()

	candidates := []ma.Multiaddr{
		p2pAddress(t, plain),
		p2pAddress(t, relayHost),
		unreachableAddress(t),
	}

	prober := relay.New(local, time.Second, 2)
	capable := prober.Probe(context.Background(), candidates)

	assert.Equal(t, []string{candidates[1].String()}, capable, "wrong relay set")
}

func TestProbeNoCandidates(t *testing.T) {
	mn, err := mocknet.FullMeshConnected(1)
	require.NoError(t, err, "mocknet")
	defer mn.Close()

	prober := relay.New(mn.Hosts()[0], time.Second, 0)
	assert.Empty(t, prober.Probe(context.Background(), nil))
}

func TestProbeRejectsAddressWithoutPeer(t *testing.T) {
	mn, err := mocknet.FullMeshConnected(1)
	require.NoError(t, err, "mocknet")
	defer mn.Close()

	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)

	prober := relay.New(mn.Hosts()[0], time.Second, 0)
	assert.Empty(t, prober.Probe(context.Background(), []ma.Multiaddr{addr}))
}

func TestCircuitAddresses(t *testing.T) {
	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	self, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)

	relays := []string{"/dnsaddr/bootstrap.libp2p.io/p2p/QmNnooDu7bfjPFoTZYxMNLWUQJyrVwtbZg5gBMjTezGAJN"}
	static := []string{"/ip4/203.0.113.7/tcp/4001/p2p/" + self.String()}

	addresses := relay.CircuitAddresses(relays, self, static)
	assert.Equal(t, []string{
		relays[0] + "/p2p-circuit/p2p/" + self.String(),
		static[0],
	}, addresses)

	assert.Equal(t, static, relay.CircuitAddresses(nil, self, static), "static addresses only without relays")
}
