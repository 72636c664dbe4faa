// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/watcher"
	"github.com/bitmark-inc/logger"
)

type campaignLister interface {
	GetCampaigns(ctx context.Context) ([]*campaign.Campaign, error)
}

// hand every unrevoked commitment of every open campaign back to the
// watcher so spends that happened while stopped become revocations
//
// returns the number of commitments handed over
func recheck(ctx context.Context, log *logger.L, campaigns campaignLister, w watcher.Watcher) (int, error) {
	all, err := campaigns.GetCampaigns(ctx)
	if nil != err {
		return 0, err
	}

	total := 0
	for _, c := range all {
		if c.Fulfilled {
			continue
		}
		unverified := c.UnrevokedCommitments()
		if 0 == len(unverified) {
			continue
		}

		log.Infof("campaign: %s  verifying %d existing commitments", c.ID, len(unverified))
		total += len(unverified)

		if err := w.CheckAll(ctx, unverified); nil != err {
			log.Warnf("campaign: %s  check commitments error: %s", c.ID, err)
		}
		if err := w.Subscribe(ctx, unverified); nil != err {
			log.Warnf("campaign: %s  subscribe commitments error: %s", c.ID, err)
		}
	}

	log.Infof("campaigns: %d  commitments rechecked: %d", len(all), total)

	return total, nil
}
