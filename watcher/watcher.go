// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package watcher - the boundary to the blockchain commitment watcher
//
// The watcher decides whether a submitted input really spends a prior
// output to the campaign, broadcasts fulfillment transactions and reports
// revocations when a committed output is spent elsewhere.  Revocations
// flow back to the campaign service through a bounded Queue.
package watcher

import (
	"context"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/logger"
)

//go:generate mockgen -source=watcher.go -destination=mocks/watcher.go -package=mocks

// Watcher - commitment validation, fulfillment and spend monitoring
type Watcher interface {
	// ValidateCommitment - verify one input against the recipients,
	// returning the commitment with its value
	ValidateCommitment(ctx context.Context, recipients []campaign.Recipient, committedSatoshis uint64, commitmentCount int, data campaign.CommitmentData) (*campaign.Commitment, error)

	// FulfillCampaign - assemble and broadcast the fulfillment
	// transaction, empty id if it was not sent
	FulfillCampaign(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error)

	// Subscribe - start watching the outputs of the commitments
	Subscribe(ctx context.Context, commitments []campaign.Commitment) error

	// CheckAll - re-check commitments accepted before a restart and
	// report any that were spent meanwhile
	CheckAll(ctx context.Context, commitments []campaign.Commitment) error
}

// Unavailable - a watcher with no chain backend
//
// every commitment is rejected so no campaign can accumulate
// unverified pledges
type Unavailable struct {
	log *logger.L
}

// NewUnavailable - create the placeholder watcher
func NewUnavailable() *Unavailable {
	return &Unavailable{
		log: logger.New("watcher"),
	}
}

// ValidateCommitment - always rejects
func (w *Unavailable) ValidateCommitment(ctx context.Context, recipients []campaign.Recipient, committedSatoshis uint64, commitmentCount int, data campaign.CommitmentData) (*campaign.Commitment, error) {
	w.log.Warnf("cannot validate: %s:%d", data.TxHash, data.TxIndex)
	return nil, fault.ErrWatcherUnavailable
}

// FulfillCampaign - never broadcasts
func (w *Unavailable) FulfillCampaign(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error) {
	return "", fault.ErrWatcherUnavailable
}

// Subscribe - nothing to watch with
func (w *Unavailable) Subscribe(ctx context.Context, commitments []campaign.Commitment) error {
	if 0 == len(commitments) {
		return nil
	}
	return fault.ErrWatcherUnavailable
}

// CheckAll - nothing to check with
func (w *Unavailable) CheckAll(ctx context.Context, commitments []campaign.Commitment) error {
	if 0 == len(commitments) {
		return nil
	}
	w.log.Warnf("%d commitments left unchecked", len(commitments))
	return fault.ErrWatcherUnavailable
}
