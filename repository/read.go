// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
)

const loadParallelism = 8

// GetCampaign - the merged view of the latest snapshot of a campaign
func (r *Repository) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	r.Lock()
	entry, err := r.getEntry(id)
	r.Unlock()

	if nil != err {
		return nil, err
	}
	if nil == entry {
		return nil, fault.ForCampaign(fault.ErrCampaignDoesNotExist, id)
	}
	if "" == entry.SnapshotID {
		return nil, fault.ForCampaign(fault.ErrCampaignNotPublished, id)
	}

	snapshot, err := cid.Decode(entry.SnapshotID)
	if nil != err {
		return nil, fmt.Errorf("%w: %s: bad snapshot id: %s", fault.ErrStorageInconsistency, id, err)
	}

	contributionsData, err := r.objects.GetFile(ctx, snapshot, ContributionsFile)
	if nil != err {
		return nil, err
	}
	fulfillmentData, err := r.objects.GetFile(ctx, snapshot, FulfillmentFile)
	if nil != err {
		return nil, err
	}

	c := entry.Campaign
	c.ID = id
	if err := json.Unmarshal(contributionsData, &c.Contributions); nil != err {
		return nil, err
	}
	if err := json.Unmarshal(fulfillmentData, &c.Fulfillment); nil != err {
		return nil, err
	}
	if nil == c.Contributions {
		c.Contributions = []campaign.Contribution{}
	}
	return &c, nil
}

// GetCampaigns - every readable campaign in id order, unreadable ones
// are logged and skipped
func (r *Repository) GetCampaigns(ctx context.Context) ([]*campaign.Campaign, error) {
	ids, err := r.ids()
	if nil != err {
		return nil, err
	}

	loaded := make([]*campaign.Campaign, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadParallelism)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			c, err := r.GetCampaign(gctx, id)
			if nil != err {
				r.log.Warnf("skip campaign: %s  error: %s", id, err)
				return nil
			}
			loaded[i] = c
			return nil
		})
	}
	_ = g.Wait()

	campaigns := make([]*campaign.Campaign, 0, len(ids))
	for _, c := range loaded {
		if nil != c {
			campaigns = append(campaigns, c)
		}
	}
	return campaigns, nil
}

// Republish - broadcast a fresh record for the current snapshot of
// every campaign
//
// the snapshot itself is not rewritten so a concurrent update can
// never be lost
func (r *Repository) Republish(ctx context.Context) error {
	ids, err := r.ids()
	if nil != err {
		return err
	}

	var errs *multierror.Error
	for _, id := range ids {
		if err := r.republish(ctx, id); nil != err {
			r.log.Warnf("republish campaign: %s  error: %s", id, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", id, err))
		}
		if nil != ctx.Err() {
			return ctx.Err()
		}
	}
	return errs.ErrorOrNil()
}

func (r *Repository) republish(ctx context.Context, id string) error {
	r.Lock()
	entry, err := r.getEntry(id)
	if nil != err || nil == entry || "" == entry.SnapshotID {
		r.Unlock()
		return err
	}
	sequence := entry.SequenceNumber
	entry.SequenceNumber = sequence + 1
	err = r.putEntry(entry)
	r.Unlock()

	if nil != err {
		return err
	}

	snapshot, err := cid.Decode(entry.SnapshotID)
	if nil != err {
		return err
	}
	key, err := r.keys.Get(id)
	if nil != err {
		return err
	}
	return r.publisher.Publish(ctx, key, snapshot, sequence)
}

// all campaign ids in the index
func (r *Repository) ids() ([]string, error) {
	r.Lock()
	elements, err := r.index.All()
	r.Unlock()

	if nil != err {
		return nil, err
	}
	ids := make([]string, len(elements))
	for i, e := range elements {
		ids[i] = string(e.Key)
	}
	return ids, nil
}
