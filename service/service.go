// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package service - the campaign and contribution state machine
package service

import (
	"context"
	"errors"
	"time"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/metrics"
	"github.com/bitmark-inc/logger"
)

//go:generate mockgen -source=service.go -destination=mocks/repository.go -package=mocks

// Repository - versioned campaign storage
type Repository interface {
	CreateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error)
	UpdateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error)
	GetCampaigns(ctx context.Context) ([]*campaign.Campaign, error)
}

// ValidateFunc - turn one submitted input into a verified commitment
//
// committedSatoshis and commitmentCount describe the unrevoked
// commitments accepted so far, including earlier inputs of the same
// submission
type ValidateFunc func(ctx context.Context, recipients []campaign.Recipient, committedSatoshis uint64, commitmentCount int, data campaign.CommitmentData) (*campaign.Commitment, error)

// FulfilFunc - build and broadcast the fulfillment transaction,
// returning its id or an empty string if it was not sent
type FulfilFunc func(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error)

// Service - CampaignService
type Service struct {
	log        *logger.L
	repository Repository
	locks      *campaignLocks
	now        func() time.Time
}

// New - create a service, a nil clock selects time.Now
func New(repository Repository, now func() time.Time) *Service {
	if nil == now {
		now = time.Now
	}
	return &Service{
		log:        logger.New("service"),
		repository: repository,
		locks:      newCampaignLocks(),
		now:        now,
	}
}

// CreateCampaign - validate and normalise creation data, then store it
func (s *Service) CreateCampaign(ctx context.Context, data *campaign.Data) (*campaign.Campaign, error) {
	c, err := campaign.Normalise(data)
	if nil == err {
		c, err = s.repository.CreateCampaign(ctx, c)
	}
	metrics.CampaignsCreated.WithLabelValues(metrics.Result(err)).Inc()
	if nil != err {
		s.log.Debugf("create campaign error: %s", err)
		return nil, err
	}
	return c, nil
}

// GetCampaign - read one campaign
func (s *Service) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return s.getCampaign(ctx, id)
}

// a reserved campaign without a snapshot does not exist for callers
func (s *Service) getCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	c, err := s.repository.GetCampaign(ctx, id)
	if errors.Is(err, fault.ErrCampaignNotPublished) {
		return nil, fault.ForCampaign(fault.ErrCampaignDoesNotExist, id)
	}
	return c, err
}

// GetCampaigns - read every campaign
func (s *Service) GetCampaigns(ctx context.Context) ([]*campaign.Campaign, error) {
	return s.repository.GetCampaigns(ctx)
}
