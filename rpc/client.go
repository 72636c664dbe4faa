// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"encoding/json"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/bitmark-inc/flipstarterd/campaign"
)

// Client - caller side of the campaign protocols
//
// the campaign-details command uses it to query a running node
type Client struct {
	host host.Host
	peer peer.ID
}

// NewClient - client of the node id reachable through h
func NewClient(h host.Host, id peer.ID) *Client {
	return &Client{
		host: h,
		peer: id,
	}
}

// Create - create a campaign
func (c *Client) Create(ctx context.Context, data interface{}) (*CreateReply, error) {
	buffer, err := json.Marshal(data)
	if nil != err {
		return nil, err
	}
	var reply CreateReply
	err = c.call(ctx, CreateProtocol, &CreateRequest{Campaign: buffer}, &reply)
	if nil != err {
		return nil, err
	}
	return &reply, nil
}

// Submit - submit a contribution
func (c *Client) Submit(ctx context.Context, campaignID string, data campaign.ContributionData, inputs []campaign.CommitmentData) (*SubmitReply, error) {
	request := &SubmitRequest{
		CampaignID: campaignID,
		Contribution: ContributionRequest{
			Data:   data,
			Inputs: inputs,
		},
	}
	var reply SubmitReply
	if err := c.call(ctx, SubmitProtocol, request, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// CampaignDetails - read the current state of a campaign
func (c *Client) CampaignDetails(ctx context.Context, campaignID string) (*campaign.Campaign, error) {
	var reply campaign.Campaign
	if err := c.call(ctx, DetailsProtocol, &DetailsRequest{CampaignID: campaignID}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) call(ctx context.Context, id protocol.ID, request interface{}, result interface{}) error {
	stream, err := c.host.NewStream(ctx, c.peer, id)
	if nil != err {
		return err
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}

	if err := writeMessage(stream, request); nil != err {
		_ = stream.Reset()
		return err
	}
	_ = stream.CloseWrite()

	var response Response
	if err := readMessage(stream, &response); nil != err {
		return err
	}
	if err := response.Err(); nil != err {
		return err
	}
	if nil == result {
		return nil
	}
	return json.Unmarshal(response.Result, result)
}
