// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package campaign - crowdfunding campaign data model
//
// A campaign names its recipients and the satoshis each must receive.
// Contributors submit pre-signed commitments which are accumulated until
// the unrevoked total covers the target, at which point the campaign is
// fulfilled.
package campaign

// Languages - description languages every campaign carries
var Languages = []string{"en", "es", "zh", "ja"}

// Recipient - one output of the fulfillment transaction
type Recipient struct {
	Address   string `json:"address"`
	Satoshis  uint64 `json:"satoshis"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Image     string `json:"image"`
	Alias     string `json:"alias"`
	Signature string `json:"signature"`
}

// Description - localised campaign text
type Description struct {
	Abstract string `json:"abstract"`
	Proposal string `json:"proposal"`
}

// Fulfillment - whether and how a campaign was completed
type Fulfillment struct {
	Fulfilled            bool    `json:"fulfilled"`
	FulfillmentTx        *string `json:"fulfillmentTx"`
	FulfillmentTimestamp *int64  `json:"fulfillmentTimestamp"`
}

// Campaign - the full merged view of a campaign
type Campaign struct {
	ID           string                 `json:"id"`
	PublishingID string                 `json:"publishingId,omitempty"`
	Title        string                 `json:"title"`
	Starts       int64                  `json:"starts"`
	Expires      int64                  `json:"expires"`
	Recipients   []Recipient            `json:"recipients"`
	Descriptions map[string]Description `json:"descriptions"`

	Fulfillment

	Contributions []Contribution `json:"contributions"`
}

// Contribution - a group of commitments submitted together
type Contribution struct {
	CampaignID  string       `json:"campaignId"`
	Alias       string       `json:"alias"`
	Comment     string       `json:"comment"`
	Satoshis    uint64       `json:"satoshis"`
	Timestamp   int64        `json:"timestamp"`
	Commitments []Commitment `json:"commitments"`
}

// Commitment - a signed pledge of one previous output
//
// identity is (TxHash, TxIndex, CampaignID); only the revocation
// fields ever change after creation
type Commitment struct {
	CampaignID      string `json:"campaignId"`
	TxHash          string `json:"txHash"`
	TxIndex         uint32 `json:"txIndex"`
	Satoshis        uint64 `json:"satoshis"`
	LockingScript   string `json:"lockingScript"`
	UnlockingScript string `json:"unlockingScript"`
	SequenceNumber  uint32 `json:"seqNum"`
	Revoked         bool   `json:"revoked"`
	RevokeTimestamp *int64 `json:"revokeTimestamp"`
}

// CommitmentData - one input as submitted by a contributor
type CommitmentData struct {
	TxHash          string `json:"previous_output_transaction_hash"`
	TxIndex         uint32 `json:"previous_output_index"`
	UnlockingScript string `json:"unlocking_script"`
	SequenceNumber  uint32 `json:"sequence_number"`
}

// ContributionData - the contributor's stated intent
type ContributionData struct {
	Alias   string  `json:"alias"`
	Comment string  `json:"comment"`
	Amount  float64 `json:"amount"`
}

// Revocation - an external notice that a committed output was spent
type Revocation struct {
	CampaignID string `json:"campaignId"`
	TxHash     string `json:"txHash"`
	TxIndex    uint32 `json:"txIndex"`
}

// Target - total satoshis required by all recipients
func (c *Campaign) Target() uint64 {
	total := uint64(0)
	for _, r := range c.Recipients {
		total += r.Satoshis
	}
	return total
}

// Metadata - a copy of the campaign without contributions or
// fulfillment state
func (c *Campaign) Metadata() Campaign {
	m := *c
	m.Fulfillment = Fulfillment{}
	m.Contributions = nil
	return m
}

// Clone - deep enough copy that mutating contributions or commitments
// of the result leaves the original untouched
func (c *Campaign) Clone() *Campaign {
	n := *c
	n.Recipients = append([]Recipient(nil), c.Recipients...)
	if nil != c.Descriptions {
		n.Descriptions = make(map[string]Description, len(c.Descriptions))
		for k, v := range c.Descriptions {
			n.Descriptions[k] = v
		}
	}
	n.Contributions = make([]Contribution, len(c.Contributions))
	for i, contribution := range c.Contributions {
		contribution.Commitments = append([]Commitment(nil), contribution.Commitments...)
		n.Contributions[i] = contribution
	}
	return &n
}

// SameOutput - true if both commitments pledge the same previous output
// of the same campaign
func (c Commitment) SameOutput(other Commitment) bool {
	return c.TxHash == other.TxHash && c.TxIndex == other.TxIndex && c.CampaignID == other.CampaignID
}
