// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"

	"github.com/libp2p/go-libp2p/core/network"

	"github.com/bitmark-inc/flipstarterd/campaign"
)

// ContributionRequest - the contribution part of a submission
type ContributionRequest struct {
	Data   campaign.ContributionData `json:"data"`
	Inputs []campaign.CommitmentData `json:"inputs"`
}

// SubmitRequest - arguments of /flipstarter/submit
type SubmitRequest struct {
	CampaignID   string              `json:"campaignId"`
	Contribution ContributionRequest `json:"contribution"`
}

// SubmitReply - result of /flipstarter/submit
type SubmitReply struct {
	Contribution *campaign.Contribution `json:"contribution"`
	Fulfilled    bool                   `json:"fulfilled"`
}

func (s *Server) submit(ctx context.Context, stream network.Stream) (interface{}, error) {
	var request SubmitRequest
	if err := readMessage(stream, &request); nil != err {
		return nil, err
	}

	result, err := s.service.HandleContribution(
		ctx,
		request.CampaignID,
		request.Contribution.Data,
		request.Contribution.Inputs,
		s.watcher.ValidateCommitment,
		s.watcher.FulfillCampaign,
	)
	if nil != err {
		return nil, err
	}

	err = s.watcher.Subscribe(ctx, result.Contribution.Commitments)
	if nil != err {
		s.log.Warnf("campaign: %s  subscribe commitments error: %s", request.CampaignID, err)
	}

	return &SubmitReply{
		Contribution: result.Contribution,
		Fulfilled:    result.Campaign.Fulfilled,
	}, nil
}
