// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publisher - broadcast versioned name records for campaigns
//
// Each campaign has its own signing key. A new snapshot is announced
// by signing an IPNS record pointing at it and publishing the record on
// a pubsub topic derived from the key, after giving remote listeners a
// chance to subscribe.
package publisher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ipfs/boxo/ipns"
	"github.com/ipfs/boxo/path"
	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sethvargo/go-retry"

	"github.com/bitmark-inc/flipstarterd/metrics"
	"github.com/bitmark-inc/logger"
)

// defaults
const (
	DefaultRetryWait      = 5 * time.Second
	DefaultRetries        = 10
	DefaultRecordValidity = time.Hour
	DefaultRecordTTL      = time.Minute
	DefaultListenTimeout  = 30 * time.Second
	DefaultListenSettle   = time.Second
)

var errNoListeners = errors.New("no listeners subscribed")

// Overlay - the pubsub operations needed to broadcast records
type Overlay interface {
	Subscribe(topic string) error
	Peers(topic string) []peer.ID
	Publish(ctx context.Context, topic string, data []byte) error
}

// Configuration - publisher options, zero values select defaults and
// a negative ListenSettle skips the pause after listen requests
type Configuration struct {
	PreloadNodes   []string
	Accept         PeerCheck
	RetryWait      time.Duration
	Retries        uint64
	RecordValidity time.Duration
	RecordTTL      time.Duration
	ListenTimeout  time.Duration
	ListenSettle   time.Duration
}

// Publisher - NameRecordPublisher
type Publisher struct {
	log       *logger.L
	overlay   Overlay
	listeners *preloadListeners
	accept    PeerCheck
	retryWait time.Duration
	retries   uint64
	validity  time.Duration
	ttl       time.Duration
	settle    time.Duration
}

// New - create a publisher on an overlay
func New(overlay Overlay, configuration Configuration) *Publisher {
	log := logger.New("publisher")

	accept := configuration.Accept
	if nil == accept {
		accept = AnyPeer()
	}
	retryWait := configuration.RetryWait
	if 0 == retryWait {
		retryWait = DefaultRetryWait
	}
	retries := configuration.Retries
	if 0 == retries {
		retries = DefaultRetries
	}
	validity := configuration.RecordValidity
	if 0 == validity {
		validity = DefaultRecordValidity
	}
	ttl := configuration.RecordTTL
	if 0 == ttl {
		ttl = DefaultRecordTTL
	}
	listenTimeout := configuration.ListenTimeout
	if 0 == listenTimeout {
		listenTimeout = DefaultListenTimeout
	}
	settle := configuration.ListenSettle
	if settle < 0 {
		settle = 0
	} else if 0 == settle {
		settle = DefaultListenSettle
	}

	return &Publisher{
		log:     log,
		overlay: overlay,
		listeners: &preloadListeners{
			log:     log,
			nodes:   configuration.PreloadNodes,
			client:  &http.Client{},
			timeout: listenTimeout,
		},
		accept:    accept,
		retryWait: retryWait,
		retries:   retries,
		validity:  validity,
		ttl:       ttl,
		settle:    settle,
	}
}

// Publish - announce that the key's current snapshot is snapshot
func (p *Publisher) Publish(ctx context.Context, key crypto.PrivKey, snapshot cid.Cid, sequence uint64) error {
	err := p.publish(ctx, key, snapshot, sequence)
	metrics.RecordsPublished.WithLabelValues(metrics.Result(err)).Inc()
	return err
}

func (p *Publisher) publish(ctx context.Context, key crypto.PrivKey, snapshot cid.Cid, sequence uint64) error {
	name, err := NameForKey(key)
	if nil != err {
		return err
	}
	topic := RecordTopic(name)

	if err := p.overlay.Subscribe(topic); nil != err {
		return err
	}

	if 0 != len(p.listeners.nodes) {
		p.listeners.start(name.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.settle):
		}
	}

	if !p.waitForListeners(ctx, topic) {
		if nil != ctx.Err() {
			return ctx.Err()
		}
		metrics.ListenerWaitExhausted.Inc()
		p.log.Warnf("name: %s  no listeners confirmed, publishing anyway", name)
	}

	record, err := ipns.NewRecord(key, path.FromCid(snapshot), sequence, time.Now().Add(p.validity), p.ttl)
	if nil != err {
		return err
	}
	data, err := ipns.MarshalRecord(record)
	if nil != err {
		return err
	}

	p.log.Infof("name: %s  sequence: %d  publishing: %s", name, sequence, snapshot)

	return p.overlay.Publish(ctx, topic, data)
}

// poll the topic subscribers until the acceptance predicate holds or
// the retries are exhausted
func (p *Publisher) waitForListeners(ctx context.Context, topic string) bool {
	backoff, err := retry.NewConstant(p.retryWait)
	if nil != err {
		p.log.Errorf("backoff error: %s", err)
		return false
	}
	backoff = retry.WithMaxRetries(p.retries, backoff)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt += 1
		peers := p.overlay.Peers(topic)
		if p.accept(peers) {
			p.log.Debugf("topic: %s  attempt: %d  listeners: %v", topic, attempt, peers)
			return nil
		}
		return retry.RetryableError(errNoListeners)
	})
	return nil == err
}
