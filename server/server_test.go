// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/p2p"
	"github.com/bitmark-inc/flipstarterd/publisher"
	"github.com/bitmark-inc/flipstarterd/rpc"
	"github.com/bitmark-inc/flipstarterd/server"
	"github.com/bitmark-inc/flipstarterd/watcher"
)

// accepts every input at a fixed value and fulfils immediately
type acceptingWatcher struct {
	sync.Mutex
	satoshis   uint64
	subscribed int
	queue      *watcher.Queue
}

func (w *acceptingWatcher) ValidateCommitment(ctx context.Context, recipients []campaign.Recipient, committedSatoshis uint64, commitmentCount int, data campaign.CommitmentData) (*campaign.Commitment, error) {
	return &campaign.Commitment{
		TxHash:          data.TxHash,
		TxIndex:         data.TxIndex,
		Satoshis:        w.satoshis,
		UnlockingScript: data.UnlockingScript,
		SequenceNumber:  data.SequenceNumber,
	}, nil
}

func (w *acceptingWatcher) FulfillCampaign(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error) {
	return "fulfillment-tx", nil
}

func (w *acceptingWatcher) Subscribe(ctx context.Context, commitments []campaign.Commitment) error {
	w.Lock()
	defer w.Unlock()
	w.subscribed += len(commitments)
	return nil
}

func (w *acceptingWatcher) CheckAll(ctx context.Context, commitments []campaign.Commitment) error {
	return nil
}

func startServer(t *testing.T, w *acceptingWatcher) *server.Server {
	key, err := p2p.MakeIdentity()
	require.NoError(t, err)

	s, err := server.New(&server.Configuration{
		DataDirectory: t.TempDir(),
		Passphrase:    "secret",
		Node: p2p.Configuration{
			PrivateKey: key,
			Listen:     []string{"/ip4/127.0.0.1/tcp/0"},
		},
		Publisher: publisher.Configuration{
			RetryWait:    10 * time.Millisecond,
			Retries:      1,
			ListenSettle: -1,
		},
		Watcher: func(queue *watcher.Queue) watcher.Watcher {
			w.queue = queue
			return w
		},
	})
	require.NoError(t, err, "start server")
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func connectClient(t *testing.T, s *server.Server) *rpc.Client {
	key, err := p2p.MakeIdentity()
	require.NoError(t, err)

	node, err := p2p.New(&p2p.Configuration{
		PrivateKey: key,
		Listen:     []string{"/ip4/127.0.0.1/tcp/0"},
	})
	require.NoError(t, err, "client node")
	t.Cleanup(func() { _ = node.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listening, err := s.Host().Network().InterfaceListenAddresses()
	require.NoError(t, err)
	err = node.Host.Connect(ctx, peer.AddrInfo{ID: s.Host().ID(), Addrs: listening})
	require.NoError(t, err, "connect")

	return rpc.NewClient(node.Host, s.Host().ID())
}

func TestCampaignLifecycle(t *testing.T) {
	w := &acceptingWatcher{satoshis: 300}
	s := startServer(t, w)
	client := connectClient(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().Unix()
	created, err := client.Create(ctx, map[string]interface{}{
		"title":   "lifecycle",
		"starts":  now - 60,
		"expires": now + 3600,
		"recipients": []map[string]interface{}{
			{"address": "bchtest:qqekcwxmfzhgn775r6t382g08mx4cxclfsd2d2v0x0", "satoshis": 500},
		},
	})
	require.NoError(t, err, "create")
	assert.NotEmpty(t, created.PublishingID)
	assert.Equal(t, s.Host().ID().String(), created.IpfsID)
	assert.NotEmpty(t, created.CampaignFile)

	first, err := client.Submit(ctx, created.CampaignID, campaign.ContributionData{Alias: "one", Amount: 300}, []campaign.CommitmentData{{TxHash: "aa", TxIndex: 0}})
	require.NoError(t, err, "first submit")
	assert.False(t, first.Fulfilled)

	second, err := client.Submit(ctx, created.CampaignID, campaign.ContributionData{Alias: "two", Amount: 300}, []campaign.CommitmentData{{TxHash: "bb", TxIndex: 0}})
	require.NoError(t, err, "second submit")
	assert.True(t, second.Fulfilled)

	details, err := client.CampaignDetails(ctx, created.CampaignID)
	require.NoError(t, err, "details")
	assert.Len(t, details.Contributions, 2)
	assert.True(t, details.Fulfilled)
	require.NotNil(t, details.FulfillmentTx)
	assert.Equal(t, "fulfillment-tx", *details.FulfillmentTx)

	_, err = client.Submit(ctx, created.CampaignID, campaign.ContributionData{Amount: 300}, []campaign.CommitmentData{{TxHash: "cc"}})
	var remote *rpc.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "CampaignFulfilledError", remote.Kind)

	w.Lock()
	assert.Equal(t, 2, w.subscribed)
	w.Unlock()
}

func TestRevocationThroughQueue(t *testing.T) {
	w := &acceptingWatcher{satoshis: 100}
	s := startServer(t, w)
	client := connectClient(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().Unix()
	created, err := client.Create(ctx, map[string]interface{}{
		"starts":  now - 60,
		"expires": now + 3600,
		"recipients": []map[string]interface{}{
			{"address": "bchtest:qqekcwxmfzhgn775r6t382g08mx4cxclfsd2d2v0x0", "satoshis": 1000},
		},
	})
	require.NoError(t, err, "create")

	_, err = client.Submit(ctx, created.CampaignID, campaign.ContributionData{Amount: 100}, []campaign.CommitmentData{{TxHash: "aa", TxIndex: 1}})
	require.NoError(t, err, "submit")

	require.Same(t, w.queue, s.Revocations())
	require.NoError(t, s.Revocations().Push(ctx, campaign.Revocation{CampaignID: created.CampaignID, TxHash: "aa", TxIndex: 1}))

	assert.Eventually(t, func() bool {
		details, err := client.CampaignDetails(ctx, created.CampaignID)
		if nil != err || 1 != len(details.Contributions) {
			return false
		}
		return details.Contributions[0].Commitments[0].Revoked
	}, 10*time.Second, 50*time.Millisecond, "revocation not applied")
}
