// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/service"
	"github.com/bitmark-inc/flipstarterd/service/mocks"
)

func returnUpdated(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	return c, nil
}

func neverFulfil(t *testing.T) service.FulfilFunc {
	return func(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error) {
		t.Errorf("unexpected fulfillment")
		return "", nil
	}
}

func TestHandleContribution(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(testCampaign(), nil).Times(1)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).DoAndReturn(returnUpdated).Times(1)

	s := service.New(r, clock)

	inputs := []campaign.CommitmentData{
		{TxHash: txHash, TxIndex: 0, UnlockingScript: "4830", SequenceNumber: 0xffffffff},
	}
	data := campaign.ContributionData{Alias: "alias", Comment: "comment", Amount: 465}

	result, err := s.HandleContribution(context.Background(), campaignID, data, inputs, acceptAll(465), neverFulfil(t))
	require.NoError(t, err, "contribution")

	contribution := result.Contribution
	assert.Equal(t, campaignID, contribution.CampaignID)
	assert.Equal(t, uint64(465), contribution.Satoshis)
	assert.Equal(t, now.Unix(), contribution.Timestamp)
	assert.Equal(t, "alias", contribution.Alias)
	require.Len(t, contribution.Commitments, 1)
	assert.Equal(t, campaignID, contribution.Commitments[0].CampaignID, "campaign id not assigned")

	assert.Len(t, result.Campaign.Contributions, 1)
	assert.False(t, result.Campaign.Fulfilled, "fulfilled below target")
}

func TestHandleContributionFulfills(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	existing := testCampaign()
	existing.Contributions = []campaign.Contribution{{
		CampaignID: campaignID,
		Satoshis:   300,
		Commitments: []campaign.Commitment{
			{CampaignID: campaignID, TxHash: "aa", Satoshis: 300},
			{CampaignID: campaignID, TxHash: "bb", Satoshis: 1000, Revoked: true},
		},
	}}

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(existing, nil)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).DoAndReturn(returnUpdated)

	s := service.New(r, clock)

	var fulfilled []campaign.Commitment
	fulfil := func(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error) {
		fulfilled = commitments
		return "fulfillment-tx", nil
	}

	inputs := []campaign.CommitmentData{{TxHash: txHash, TxIndex: 1}}
	data := campaign.ContributionData{Amount: 258}

	result, err := s.HandleContribution(context.Background(), campaignID, data, inputs, acceptAll(258), fulfil)
	require.NoError(t, err)

	assert.True(t, result.Campaign.Fulfilled, "not fulfilled at target")
	assert.Equal(t, "fulfillment-tx", *result.Campaign.FulfillmentTx)
	assert.Equal(t, now.Unix(), *result.Campaign.FulfillmentTimestamp)

	// only the unrevoked commitments are handed to the executor
	require.Len(t, fulfilled, 2)
	assert.Equal(t, "aa", fulfilled[0].TxHash)
	assert.Equal(t, txHash, fulfilled[1].TxHash)
}

func TestHandleContributionExecutorDeclines(t *testing.T) {
	tests := []struct {
		name   string
		fulfil service.FulfilFunc
	}{
		{"empty id", func(context.Context, []campaign.Recipient, []campaign.Commitment) (string, error) { return "", nil }},
		{"error", func(context.Context, []campaign.Recipient, []campaign.Commitment) (string, error) {
			return "", errors.New("broadcast failed")
		}},
		{"no executor", nil},
	}

	for _, item := range tests {
		ctl := gomock.NewController(t)

		r := mocks.NewMockRepository(ctl)
		r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(testCampaign(), nil)
		r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).DoAndReturn(returnUpdated)

		s := service.New(r, clock)
		inputs := []campaign.CommitmentData{{TxHash: txHash}}
		result, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 600}, inputs, acceptAll(600), item.fulfil)
		require.NoError(t, err, item.name)
		assert.False(t, result.Campaign.Fulfilled, item.name)
		assert.Len(t, result.Campaign.Contributions, 1, "%s: contribution not persisted", item.name)

		ctl.Finish()
	}
}

// a declined fulfillment is retried by the next contribution that
// still covers the target
func TestHandleContributionRetriesFulfillment(t *testing.T) {
	r := &memoryRepository{campaigns: map[string]*campaign.Campaign{campaignID: testCampaign()}}
	s := service.New(r, clock)

	calls := 0
	fulfil := func(ctx context.Context, recipients []campaign.Recipient, commitments []campaign.Commitment) (string, error) {
		calls += 1
		if 1 == calls {
			return "", nil
		}
		return "fulfillment-tx", nil
	}

	first := []campaign.CommitmentData{{TxHash: txHash, TxIndex: 0}}
	result, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 600}, first, acceptAll(600), fulfil)
	require.NoError(t, err, "first contribution")
	assert.False(t, result.Campaign.Fulfilled, "fulfilled after decline")
	assert.Equal(t, 1, calls, "executor not called at target")

	second := []campaign.CommitmentData{{TxHash: txHash, TxIndex: 1}}
	result, err = s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 10}, second, acceptAll(10), fulfil)
	require.NoError(t, err, "second contribution")
	assert.Equal(t, 2, calls, "executor not called again")
	assert.True(t, result.Campaign.Fulfilled, "not fulfilled on retry")

	stored, err := r.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	assert.True(t, stored.Fulfilled, "fulfillment not persisted")
	assert.Equal(t, "fulfillment-tx", *stored.FulfillmentTx)
	assert.Len(t, stored.Contributions, 2)
}

// whatever campaign the validator reports, the commitment belongs to
// the campaign it was submitted to
func TestHandleContributionAssignsCampaignID(t *testing.T) {
	r := &memoryRepository{campaigns: map[string]*campaign.Campaign{campaignID: testCampaign()}}
	s := service.New(r, clock)

	validate := func(ctx context.Context, recipients []campaign.Recipient, committed uint64, count int, data campaign.CommitmentData) (*campaign.Commitment, error) {
		return &campaign.Commitment{
			CampaignID: "another-campaign",
			TxHash:     data.TxHash,
			Satoshis:   100,
		}, nil
	}

	inputs := []campaign.CommitmentData{{TxHash: txHash}}
	_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 100}, inputs, validate, nil)
	require.NoError(t, err)

	stored, err := r.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	require.Len(t, stored.Contributions, 1)
	require.Len(t, stored.Contributions[0].Commitments, 1)
	assert.Equal(t, campaignID, stored.Contributions[0].Commitments[0].CampaignID, "validator campaign id kept")
}

// a reserved campaign with no snapshot yet is reported as missing
func TestHandleContributionUnpublished(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(nil, fault.ForCampaign(fault.ErrCampaignNotPublished, campaignID)).Times(2)

	s := service.New(r, clock)

	inputs := []campaign.CommitmentData{{TxHash: txHash}}
	_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 1}, inputs, acceptAll(1), nil)
	assert.ErrorIs(t, err, fault.ErrCampaignDoesNotExist)
	assert.Equal(t, "CampaignDoesNotExistError", fault.Kind(err))

	_, err = s.GetCampaign(context.Background(), campaignID)
	assert.ErrorIs(t, err, fault.ErrCampaignDoesNotExist)
	assert.Equal(t, "CampaignDoesNotExistError", fault.Kind(err))
}

func TestHandleContributionAccumulates(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	existing := testCampaign()
	existing.Contributions = []campaign.Contribution{{
		Satoshis:    10,
		Commitments: []campaign.Commitment{{CampaignID: campaignID, TxHash: "aa", Satoshis: 10}},
	}}

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(existing, nil)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).DoAndReturn(returnUpdated)

	type seen struct {
		committed uint64
		count     int
	}
	var calls []seen
	validate := func(ctx context.Context, recipients []campaign.Recipient, committed uint64, count int, data campaign.CommitmentData) (*campaign.Commitment, error) {
		calls = append(calls, seen{committed, count})
		if "bad" == data.TxHash {
			return nil, errors.New("bad signature")
		}
		return &campaign.Commitment{TxHash: data.TxHash, TxIndex: data.TxIndex, Satoshis: 20}, nil
	}

	s := service.New(r, clock)
	inputs := []campaign.CommitmentData{
		{TxHash: "b1"},
		{TxHash: "bad"},
		{TxHash: "b2"},
	}

	// stated amount is ignored because one input was rejected
	result, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 1}, inputs, validate, nil)
	require.NoError(t, err)

	assert.Equal(t, []seen{{10, 1}, {30, 2}, {30, 2}}, calls, "validator did not see running totals")
	assert.Equal(t, uint64(40), result.Contribution.Satoshis)
	assert.Len(t, result.Contribution.Commitments, 2)
}

func TestHandleContributionDuplicates(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	existing := testCampaign()
	existing.Contributions = []campaign.Contribution{{
		Satoshis: 10,
		Commitments: []campaign.Commitment{
			{CampaignID: campaignID, TxHash: "revoked", TxIndex: 0, Satoshis: 10, Revoked: true},
		},
	}}

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(existing, nil)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).DoAndReturn(returnUpdated)

	s := service.New(r, clock)
	inputs := []campaign.CommitmentData{
		{TxHash: "revoked", TxIndex: 0}, // in history, even though revoked
		{TxHash: "new", TxIndex: 3},
		{TxHash: "new", TxIndex: 3}, // repeated within the submission
	}

	result, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{}, inputs, acceptAll(5), nil)
	require.NoError(t, err)
	require.Len(t, result.Contribution.Commitments, 1)
	assert.Equal(t, "new", result.Contribution.Commitments[0].TxHash)
}

func TestHandleContributionAllRejected(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(testCampaign(), nil)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).Times(0)

	validate := func(ctx context.Context, recipients []campaign.Recipient, committed uint64, count int, data campaign.CommitmentData) (*campaign.Commitment, error) {
		switch data.TxHash {
		case "nil":
			return nil, nil
		case "nohash":
			return &campaign.Commitment{Satoshis: 4}, nil
		default:
			return nil, fmt.Errorf("input %s: %w", data.TxHash, fault.ErrWatcherUnavailable)
		}
	}

	s := service.New(r, clock)
	inputs := []campaign.CommitmentData{{TxHash: "nil"}, {TxHash: "nohash"}, {TxHash: "other"}}

	_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{}, inputs, validate, nil)

	var rejected *fault.RejectedCommitmentsError
	require.ErrorAs(t, err, &rejected)
	assert.Len(t, rejected.Errors.Errors, 3, "per input errors missing")
	assert.ErrorIs(t, err, fault.ErrInvalidCommitment)
	assert.ErrorIs(t, err, fault.ErrWatcherUnavailable)
}

func TestHandleContributionIntentMismatch(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(testCampaign(), nil)
	r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).Times(0)

	s := service.New(r, clock)
	inputs := []campaign.CommitmentData{{TxHash: txHash}}

	_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 466}, inputs, acceptAll(465), nil)

	var mismatch *fault.IntentMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint64(465), mismatch.Actual)
	assert.Equal(t, float64(466), mismatch.Stated)
}

func TestHandleContributionRejectedStates(t *testing.T) {
	fulfilled := testCampaign()
	fulfilled.Fulfilled = true

	expired := testCampaign()
	expired.Expires = now.Unix()

	notStarted := testCampaign()
	notStarted.Starts = now.Unix() + 1

	noRecipients := testCampaign()
	noRecipients.Recipients = nil

	tests := []struct {
		name     string
		existing *campaign.Campaign
		getErr   error
		expected error
	}{
		{"fulfilled", fulfilled, nil, fault.ErrCampaignFulfilled},
		{"expired", expired, nil, fault.ErrCampaignExpired},
		{"not started", notStarted, nil, fault.ErrCampaignNotStarted},
		{"no recipients", noRecipients, nil, fault.ErrCampaignDoesNotExist},
		{"missing", nil, fault.ForCampaign(fault.ErrCampaignDoesNotExist, campaignID), fault.ErrCampaignDoesNotExist},
	}

	for _, item := range tests {
		ctl := gomock.NewController(t)

		r := mocks.NewMockRepository(ctl)
		r.EXPECT().GetCampaign(gomock.Any(), campaignID).Return(item.existing, item.getErr)
		r.EXPECT().UpdateCampaign(gomock.Any(), gomock.Any()).Times(0)

		s := service.New(r, clock)
		_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 465}, []campaign.CommitmentData{{TxHash: txHash}}, acceptAll(465), nil)
		assert.ErrorIs(t, err, item.expected, item.name)

		ctl.Finish()
	}
}

func TestHandleContributionVerification(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockRepository(ctl)
	r.EXPECT().GetCampaign(gomock.Any(), gomock.Any()).Times(0)

	s := service.New(r, clock)

	_, err := s.HandleContribution(context.Background(), "", campaign.ContributionData{}, []campaign.CommitmentData{{TxHash: txHash}}, acceptAll(1), nil)
	assert.ErrorIs(t, err, fault.ErrContributionVerification)

	_, err = s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{}, nil, acceptAll(1), nil)
	assert.ErrorIs(t, err, fault.ErrContributionVerification)
}

// concurrent submissions to one campaign must all be recorded
func TestConcurrentContributions(t *testing.T) {
	r := &memoryRepository{campaigns: map[string]*campaign.Campaign{campaignID: testCampaign()}}
	s := service.New(r, clock)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i += 1 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inputs := []campaign.CommitmentData{{TxHash: fmt.Sprintf("%064x", i)}}
			_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 1}, inputs, acceptAll(1), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := r.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Len(t, c.Contributions, n, "contribution lost")
}

// repository whose updates wait for the gate to open
type gatedRepository struct {
	*memoryRepository
	entered chan struct{}
	gate    chan struct{}
}

func (r *gatedRepository) UpdateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	r.entered <- struct{}{}
	<-r.gate
	return r.memoryRepository.UpdateCampaign(ctx, c)
}

// a submission waiting behind a slow update gives up at its deadline
// and is never recorded
func TestHandleContributionWaitHonoursDeadline(t *testing.T) {
	r := &gatedRepository{
		memoryRepository: &memoryRepository{campaigns: map[string]*campaign.Campaign{campaignID: testCampaign()}},
		entered:          make(chan struct{}, 2),
		gate:             make(chan struct{}),
	}
	s := service.New(r, clock)

	done := make(chan error, 1)
	go func() {
		inputs := []campaign.CommitmentData{{TxHash: txHash, TxIndex: 0}}
		_, err := s.HandleContribution(context.Background(), campaignID, campaign.ContributionData{Amount: 1}, inputs, acceptAll(1), nil)
		done <- err
	}()
	<-r.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	inputs := []campaign.CommitmentData{{TxHash: txHash, TxIndex: 1}}
	_, err := s.HandleContribution(ctx, campaignID, campaign.ContributionData{Amount: 1}, inputs, acceptAll(1), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "waited past the deadline")
	assert.Less(t, time.Since(start), time.Second, "wait not bounded")

	close(r.gate)
	require.NoError(t, <-done, "first contribution")

	stored, err := r.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Len(t, stored.Contributions, 1, "expired submission recorded")
}
