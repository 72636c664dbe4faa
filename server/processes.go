// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"time"

	"github.com/bitmark-inc/flipstarterd/background"
	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/watcher"
	"github.com/bitmark-inc/logger"
)

type republisher interface {
	Republish(ctx context.Context) error
}

type revocationHandler interface {
	HandleRevocation(ctx context.Context, revocation campaign.Revocation) (*campaign.Campaign, error)
}

// context cancelled by shutdown or when the returned cancel is called
func shutdownContext(shutdown <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func republishProcess(log *logger.L, r republisher, interval time.Duration) background.Process {
	return &background.Periodic{
		Interval:   interval,
		RunAtStart: true,
		Action: func(shutdown <-chan struct{}) {
			ctx, cancel := shutdownContext(shutdown)
			defer cancel()

			log.Info("republishing campaign records")
			if err := r.Republish(ctx); nil != err {
				log.Errorf("republish error: %s", err)
			}
		},
	}
}

func relayProcess(a *addressBook, interval time.Duration) background.Process {
	return &background.Periodic{
		Interval:   interval,
		RunAtStart: true,
		Action: func(shutdown <-chan struct{}) {
			ctx, cancel := shutdownContext(shutdown)
			defer cancel()

			a.refresh(ctx)
		},
	}
}

// applies queued revocations one at a time
type revocationConsumer struct {
	log     *logger.L
	queue   *watcher.Queue
	handler revocationHandler
}

func (r *revocationConsumer) Run(args interface{}, shutdown <-chan struct{}) {
	ctx, cancel := shutdownContext(shutdown)
	defer cancel()

	r.log.Info("starting…")
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case revocation := <-r.queue.Chan():
			c, err := r.handler.HandleRevocation(ctx, revocation)
			if nil != err {
				r.log.Errorf("campaign: %s  revocation %s:%d error: %s", revocation.CampaignID, revocation.TxHash, revocation.TxIndex, err)
				continue loop
			}
			if nil != c {
				total, count := c.Committed()
				r.log.Infof("campaign updated: %s  committed: %d satoshis in %d commitments", c.ID, total, count)
			}
		}
	}
	r.log.Info("shutting down…")
}
