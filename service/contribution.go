// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/metrics"
)

// Result - the outcome of an accepted contribution
type Result struct {
	Campaign     *campaign.Campaign
	Contribution *campaign.Contribution
}

// HandleContribution - validate a submission and record it as a
// contribution, fulfilling the campaign when the target is covered
//
// submissions for the same campaign are handled one at a time
func (s *Service) HandleContribution(ctx context.Context, campaignID string, data campaign.ContributionData, inputs []campaign.CommitmentData, validate ValidateFunc, fulfil FulfilFunc) (*Result, error) {
	result, err := s.handleContribution(ctx, campaignID, data, inputs, validate, fulfil)
	metrics.Contributions.WithLabelValues(metrics.Result(err)).Inc()
	return result, err
}

func (s *Service) handleContribution(ctx context.Context, campaignID string, data campaign.ContributionData, inputs []campaign.CommitmentData, validate ValidateFunc, fulfil FulfilFunc) (*Result, error) {
	if "" == campaignID {
		return nil, fmt.Errorf("%w: invalid campaign id", fault.ErrContributionVerification)
	}
	if 0 == len(inputs) {
		return nil, fmt.Errorf("%w: no contribution inputs", fault.ErrContributionVerification)
	}

	if err := s.locks.lock(ctx, campaignID); nil != err {
		return nil, err
	}
	defer s.locks.unlock(campaignID)

	c, err := s.getCampaign(ctx, campaignID)
	if nil != err {
		return nil, err
	}
	if nil == c || 0 == len(c.Recipients) {
		return nil, fault.ForCampaign(fault.ErrCampaignDoesNotExist, campaignID)
	}

	now := s.now().Unix()
	switch {
	case c.Fulfilled:
		return nil, fault.ForCampaign(fault.ErrCampaignFulfilled, campaignID)
	case now >= c.Expires:
		return nil, fault.ForCampaign(fault.ErrCampaignExpired, campaignID)
	case now < c.Starts:
		return nil, fault.ForCampaign(fault.ErrCampaignNotStarted, campaignID)
	}

	committedSatoshis, commitmentCount := c.Committed()

	var rejected *multierror.Error
	accepted := make([]campaign.Commitment, 0, len(inputs))
	total := uint64(0)

	// inputs are folded strictly in order: each validation sees the
	// totals including every earlier accepted input
	for i, input := range inputs {
		commitment, err := validate(ctx, c.Recipients, committedSatoshis, commitmentCount, input)
		if nil != err {
			rejected = multierror.Append(rejected, fmt.Errorf("input %d: %w", i, err))
			continue
		}
		if nil == commitment || "" == commitment.TxHash {
			rejected = multierror.Append(rejected, fmt.Errorf("input %d: %w", i, fault.ErrInvalidCommitment))
			continue
		}
		commitment.CampaignID = campaignID
		if c.HasCommitment(*commitment) || containsOutput(accepted, *commitment) {
			rejected = multierror.Append(rejected, fmt.Errorf("input %d: %w: %s:%d", i, fault.ErrDuplicateCommitment, commitment.TxHash, commitment.TxIndex))
			continue
		}

		accepted = append(accepted, *commitment)
		total += commitment.Satoshis
		committedSatoshis += commitment.Satoshis
		commitmentCount += 1
	}

	if nil != rejected {
		metrics.CommitmentsRejected.Add(float64(len(rejected.Errors)))
	}

	if 0 == len(accepted) {
		return nil, &fault.RejectedCommitmentsError{Errors: rejected}
	}

	// a partially rejected submission is accepted without checking the
	// stated amount
	if nil == rejected && data.Amount != math.Round(float64(total)) {
		return nil, &fault.IntentMismatchError{
			Actual: total,
			Stated: data.Amount,
		}
	}

	contribution := campaign.Contribution{
		CampaignID:  campaignID,
		Alias:       data.Alias,
		Comment:     data.Comment,
		Satoshis:    total,
		Timestamp:   now,
		Commitments: accepted,
	}

	updated := c.Clone()
	updated.Contributions = append(updated.Contributions, contribution)

	s.fulfilIfCovered(ctx, updated, fulfil)

	stored, err := s.repository.UpdateCampaign(ctx, updated)
	if nil != err {
		return nil, err
	}

	s.log.Infof("campaign: %s  contribution: %d satoshis  commitments: %d  rejected: %d", campaignID, total, len(accepted), len(inputs)-len(accepted))

	return &Result{
		Campaign:     stored,
		Contribution: &contribution,
	}, nil
}

// call the executor once the unrevoked total reaches the target
func (s *Service) fulfilIfCovered(ctx context.Context, c *campaign.Campaign, fulfil FulfilFunc) {
	committed, _ := c.Committed()
	if committed < c.Target() || nil == fulfil {
		return
	}

	unrevoked := c.UnrevokedCommitments()
	txID, err := fulfil(ctx, c.Recipients, unrevoked)
	if nil != err {
		s.log.Errorf("campaign: %s  fulfillment error: %s", c.ID, err)
		return
	}
	if "" == txID {
		s.log.Warnf("campaign: %s  target covered but not fulfilled", c.ID)
		return
	}

	timestamp := s.now().Unix()
	c.Fulfillment = campaign.Fulfillment{
		Fulfilled:            true,
		FulfillmentTx:        &txID,
		FulfillmentTimestamp: &timestamp,
	}
	metrics.CampaignsFulfilled.Inc()

	s.log.Infof("campaign: %s  fulfilled by: %s", c.ID, txID)
}

func containsOutput(commitments []campaign.Commitment, commitment campaign.Commitment) bool {
	for _, existing := range commitments {
		if existing.SameOutput(commitment) {
			return true
		}
	}
	return false
}
