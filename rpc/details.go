// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"

	"github.com/libp2p/go-libp2p/core/network"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// DetailsRequest - arguments of /flipstarter/campaignDetails
type DetailsRequest struct {
	CampaignID string `json:"campaignId"`
}

func (s *Server) details(ctx context.Context, stream network.Stream) (interface{}, error) {
	var request DetailsRequest
	if err := readMessage(stream, &request); nil != err {
		return nil, err
	}
	if "" == request.CampaignID {
		return nil, fault.ErrInvalidRequest
	}

	return s.service.GetCampaign(ctx, request.CampaignID)
}
