// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publisher

import (
	"context"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/logger"
)

type joinedTopic struct {
	topic        *pubsub.Topic
	subscription *pubsub.Subscription
	cancel       context.CancelFunc
}

// PubSubOverlay - Overlay over a libp2p pubsub router
type PubSubOverlay struct {
	sync.Mutex
	log    *logger.L
	ps     *pubsub.PubSub
	self   peer.ID
	topics map[string]*joinedTopic
}

// NewPubSubOverlay - wrap a pubsub router
func NewPubSubOverlay(ps *pubsub.PubSub, self peer.ID) *PubSubOverlay {
	return &PubSubOverlay{
		log:    logger.New("overlay"),
		ps:     ps,
		self:   self,
		topics: make(map[string]*joinedTopic),
	}
}

// Subscribe - join and subscribe to a topic, repeated calls are no-ops
func (o *PubSubOverlay) Subscribe(topic string) error {
	o.Lock()
	defer o.Unlock()

	if _, ok := o.topics[topic]; ok {
		return nil
	}

	t, err := o.ps.Join(topic)
	if nil != err {
		return err
	}
	subscription, err := t.Subscribe()
	if nil != err {
		t.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.topics[topic] = &joinedTopic{
		topic:        t,
		subscription: subscription,
		cancel:       cancel,
	}

	go o.drain(ctx, topic, subscription)

	o.log.Debugf("subscribed: %s", topic)
	return nil
}

// keep the subscription buffer empty; records from other publishers
// are only logged
func (o *PubSubOverlay) drain(ctx context.Context, topic string, subscription *pubsub.Subscription) {
	for {
		msg, err := subscription.Next(ctx)
		if nil != err {
			return
		}
		if msg.ReceivedFrom != o.self {
			o.log.Debugf("topic: %s  record from: %s", topic, msg.ReceivedFrom)
		}
	}
}

// Peers - peers currently subscribed to a topic
func (o *PubSubOverlay) Peers(topic string) []peer.ID {
	o.Lock()
	joined, ok := o.topics[topic]
	o.Unlock()

	if !ok {
		return o.ps.ListPeers(topic)
	}
	return joined.topic.ListPeers()
}

// Publish - broadcast data on a subscribed topic
func (o *PubSubOverlay) Publish(ctx context.Context, topic string, data []byte) error {
	o.Lock()
	joined, ok := o.topics[topic]
	o.Unlock()

	if !ok {
		return fault.ErrNotInitialised
	}
	return joined.topic.Publish(ctx, data)
}

// Close - leave every topic
func (o *PubSubOverlay) Close() {
	o.Lock()
	defer o.Unlock()

	for name, joined := range o.topics {
		joined.cancel()
		joined.subscription.Cancel()
		if err := joined.topic.Close(); nil != err {
			o.log.Warnf("close topic: %s  error: %s", name, err)
		}
		delete(o.topics, name)
	}
}
