// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service

import (
	"context"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/metrics"
)

// HandleRevocation - mark the matching commitment as revoked
//
// returns nil without error if the campaign or commitment is unknown
func (s *Service) HandleRevocation(ctx context.Context, revocation campaign.Revocation) (*campaign.Campaign, error) {
	if err := s.locks.lock(ctx, revocation.CampaignID); nil != err {
		return nil, err
	}
	defer s.locks.unlock(revocation.CampaignID)

	c, err := s.getCampaign(ctx, revocation.CampaignID)
	if fault.IsErrNotFound(err) {
		s.log.Warnf("revocation for unknown campaign: %s", revocation.CampaignID)
		metrics.Revocations.WithLabelValues("unmatched").Inc()
		return nil, nil
	}
	if nil != err {
		return nil, err
	}

	updated := c.Clone()
	if !updated.Revoke(revocation.TxHash, revocation.TxIndex, s.now().Unix()) {
		s.log.Debugf("campaign: %s  no commitment for: %s:%d", revocation.CampaignID, revocation.TxHash, revocation.TxIndex)
		metrics.Revocations.WithLabelValues("unmatched").Inc()
		return nil, nil
	}

	stored, err := s.repository.UpdateCampaign(ctx, updated)
	if nil != err {
		return nil, err
	}

	metrics.Revocations.WithLabelValues("matched").Inc()
	s.log.Infof("campaign: %s  revoked: %s:%d", revocation.CampaignID, revocation.TxHash, revocation.TxIndex)

	return stored, nil
}
