// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"encoding/json"

	"github.com/libp2p/go-libp2p/core/network"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
)

// CampaignFileName - name of the uploaded public campaign description
const CampaignFileName = "campaign.json"

// CreateRequest - arguments of /flipstarter/create
type CreateRequest struct {
	Campaign json.RawMessage `json:"campaign"`
}

// CreateReply - result of /flipstarter/create
type CreateReply struct {
	CampaignID   string   `json:"campaignId"`
	IpfsID       string   `json:"ipfsId"`
	PublishingID string   `json:"publishingId"`
	Addresses    []string `json:"addresses"`
	CampaignFile string   `json:"campaignFile,omitempty"`
}

func (s *Server) create(ctx context.Context, stream network.Stream) (interface{}, error) {
	var request CreateRequest
	if err := readMessage(stream, &request); nil != err {
		return nil, err
	}
	if 0 == len(request.Campaign) {
		return nil, fault.ErrInvalidCampaignData
	}

	var data campaign.Data
	if err := json.Unmarshal(request.Campaign, &data); nil != err {
		return nil, fault.ErrInvalidCampaignData
	}

	c, err := s.service.CreateCampaign(ctx, &data)
	if nil != err {
		return nil, err
	}

	reply := &CreateReply{
		CampaignID:   c.ID,
		IpfsID:       s.host.ID().String(),
		PublishingID: c.PublishingID,
		Addresses:    s.addresses(ctx),
	}

	// the campaign exists at this point so a failed upload is only logged
	file, err := campaignFile(request.Campaign, reply)
	if nil == err {
		id, err := s.objects.Put(ctx, file)
		if nil == err {
			reply.CampaignFile = id.String()
		} else {
			s.log.Errorf("campaign: %s  upload %s error: %s", c.ID, CampaignFileName, err)
		}
	} else {
		s.log.Errorf("campaign: %s  build %s error: %s", c.ID, CampaignFileName, err)
	}

	s.log.Infof("created campaign: %s  publishing id: %s", c.ID, c.PublishingID)

	return reply, nil
}

// the submitted campaign with the contact details of this node added
func campaignFile(submitted json.RawMessage, reply *CreateReply) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(submitted, &fields); nil != err {
		return nil, err
	}

	extra := map[string]interface{}{
		"apiType":      "ipfs",
		"id":           reply.CampaignID,
		"ipfsId":       reply.IpfsID,
		"publishingId": reply.PublishingID,
		"addresses":    reply.Addresses,
	}
	for k, v := range extra {
		buffer, err := json.Marshal(v)
		if nil != err {
			return nil, err
		}
		fields[k] = buffer
	}

	return json.Marshal(fields)
}
