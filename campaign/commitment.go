// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package campaign

// IsRevoked - whether a commitment no longer counts towards the campaign
//
// a revocation after fulfillment is ignored: the funds were already
// collected
func (c *Campaign) IsRevoked(commitment Commitment) bool {
	if !commitment.Revoked {
		return false
	}
	if !c.Fulfilled {
		return true
	}
	if nil == commitment.RevokeTimestamp || nil == c.FulfillmentTimestamp {
		return false
	}
	return *commitment.RevokeTimestamp < *c.FulfillmentTimestamp
}

// UnrevokedCommitments - every commitment of every contribution that
// still counts, in submission order
func (c *Campaign) UnrevokedCommitments() []Commitment {
	commitments := make([]Commitment, 0)
	for _, contribution := range c.Contributions {
		for _, commitment := range contribution.Commitments {
			if !c.IsRevoked(commitment) {
				commitments = append(commitments, commitment)
			}
		}
	}
	return commitments
}

// Committed - total satoshis and number of the unrevoked commitments
func (c *Campaign) Committed() (uint64, int) {
	total := uint64(0)
	commitments := c.UnrevokedCommitments()
	for _, commitment := range commitments {
		total += commitment.Satoshis
	}
	return total, len(commitments)
}

// HasCommitment - whether any contribution, revoked or not, already
// pledged this output
func (c *Campaign) HasCommitment(commitment Commitment) bool {
	for _, contribution := range c.Contributions {
		for _, existing := range contribution.Commitments {
			if existing.SameOutput(commitment) {
				return true
			}
		}
	}
	return false
}

// Revoke - mark the first commitment pledging txHash:txIndex as revoked
//
// returns false if no commitment matched
func (c *Campaign) Revoke(txHash string, txIndex uint32, timestamp int64) bool {
	for i := range c.Contributions {
		commitments := c.Contributions[i].Commitments
		for j := range commitments {
			if commitments[j].TxHash == txHash && commitments[j].TxIndex == txIndex {
				ts := timestamp
				commitments[j].Revoked = true
				commitments[j].RevokeTimestamp = &ts
				return true
			}
		}
	}
	return false
}
