// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package campaign

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// MaximumSatoshis - every coin that can ever exist, no target may
// exceed it
const MaximumSatoshis = 21000000 * 100000000

// RecipientData - recipient as submitted for campaign creation
type RecipientData struct {
	Address   string      `json:"address"`
	Satoshis  json.Number `json:"satoshis"`
	Name      string      `json:"name"`
	URL       string      `json:"url"`
	Image     string      `json:"image"`
	Alias     string      `json:"alias"`
	Signature string      `json:"signature"`
}

// Data - campaign creation request
//
// timestamps and amounts may arrive as JSON numbers or numeric strings
type Data struct {
	Title        string                 `json:"title"`
	Starts       json.Number            `json:"starts"`
	Expires      json.Number            `json:"expires"`
	Recipients   []RecipientData        `json:"recipients"`
	Descriptions map[string]Description `json:"descriptions"`
}

// Normalise - validate creation data and build a campaign with only
// the known fields and every supported description language
func Normalise(data *Data) (*Campaign, error) {
	if nil == data {
		return nil, fault.ErrInvalidCampaignData
	}

	starts, ok := parseTimestamp(data.Starts)
	if !ok {
		return nil, fault.ErrInvalidCampaignData
	}
	expires, ok := parseTimestamp(data.Expires)
	if !ok || starts >= expires {
		return nil, fault.ErrInvalidCampaignData
	}

	if 0 == len(data.Recipients) {
		return nil, fault.ErrInvalidCampaignData
	}

	total := uint64(0)
	recipients := make([]Recipient, len(data.Recipients))
	for i, r := range data.Recipients {
		if "" == r.Address {
			return nil, fault.ErrInvalidCampaignData
		}
		satoshis, err := strconv.ParseUint(r.Satoshis.String(), 10, 64)
		if nil != err || 0 == satoshis || satoshis > MaximumSatoshis-total {
			return nil, fault.ErrInvalidCampaignData
		}
		total += satoshis
		recipients[i] = Recipient{
			Address:   r.Address,
			Satoshis:  satoshis,
			Name:      r.Name,
			URL:       r.URL,
			Image:     r.Image,
			Alias:     r.Alias,
			Signature: r.Signature,
		}
	}

	descriptions := make(map[string]Description, len(Languages))
	for _, language := range Languages {
		descriptions[language] = data.Descriptions[language]
	}

	return &Campaign{
		Title:         data.Title,
		Starts:        starts,
		Expires:       expires,
		Recipients:    recipients,
		Descriptions:  descriptions,
		Contributions: []Contribution{},
	}, nil
}

func parseTimestamp(n json.Number) (int64, bool) {
	if "" == n {
		return 0, false
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); nil == err {
		return i, true
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if nil != err || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
