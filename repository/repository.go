// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package repository - versioned campaign storage
//
// Campaign metadata lives in the local index together with a pointer
// to the latest snapshot and a sequence number. A snapshot is a
// directory object holding contributions.json and fulfillment.json.
// Every change writes a new snapshot, advances the sequence under the
// index lock and then publishes a name record for the snapshot.
package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ipfs/boxo/ipns"
	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/keystore"
	"github.com/bitmark-inc/flipstarterd/objectstore"
	"github.com/bitmark-inc/flipstarterd/storage"
	"github.com/bitmark-inc/logger"
)

// names of the snapshot files
const (
	ContributionsFile = "contributions.json"
	FulfillmentFile   = "fulfillment.json"
)

//go:generate mockgen -source=repository.go -destination=mocks/publisher.go -package=mocks

// Publisher - announces a new snapshot for a signing key
type Publisher interface {
	Publish(ctx context.Context, key crypto.PrivKey, snapshot cid.Cid, sequence uint64) error
}

// index record for one campaign
type indexEntry struct {
	Campaign       campaign.Campaign `json:"campaign"`
	SnapshotID     string            `json:"snapshotId"`
	SequenceNumber uint64            `json:"sequenceNumber"`
}

// Repository - VersionedCampaignStore
type Repository struct {
	sync.Mutex // campaign index lock

	log       *logger.L
	index     *storage.Table
	objects   objectstore.Store
	keys      keystore.Provider
	publisher Publisher
}

// New - create a repository
func New(index *storage.Table, objects objectstore.Store, keys keystore.Provider, publisher Publisher) *Repository {
	return &Repository{
		log:       logger.New("repository"),
		index:     index,
		objects:   objects,
		keys:      keys,
		publisher: publisher,
	}
}

// CreateCampaign - assign an id and signing key to a new campaign and
// publish its first, empty, snapshot
func (r *Repository) CreateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	metadata := c.Metadata()
	metadata.ID = campaign.DeriveID(c)
	id := metadata.ID

	if err := r.reserve(&metadata); nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			r.undo(id)
		}
	}()

	key, err := r.keys.Generate(id)
	if nil != err {
		return nil, err
	}

	name, err := publishingName(key)
	if nil != err {
		return nil, err
	}
	metadata.PublishingID = name

	state := &campaign.Campaign{
		Contributions: []campaign.Contribution{},
	}
	result, err := r.write(ctx, id, &metadata, state, key, true)
	if nil != err {
		return nil, err
	}

	r.log.Infof("created campaign: %s  publishing id: %s", id, name)

	ok = true
	return result, nil
}

// UpdateCampaign - persist the contributions and fulfillment of an
// existing campaign and publish the new snapshot
//
// metadata is immutable after creation so only the mutable state of c
// is used; a failed publish is logged, the next republish retries it
func (r *Repository) UpdateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	return r.write(ctx, c.ID, nil, c, nil, false)
}

// reserve the index entry, failing if the campaign already exists
func (r *Repository) reserve(metadata *campaign.Campaign) error {
	r.Lock()
	defer r.Unlock()

	has, err := r.index.Has([]byte(metadata.ID))
	if nil != err {
		return err
	}
	if has {
		return fault.ForCampaign(fault.ErrCampaignAlreadyExists, metadata.ID)
	}

	return r.putEntry(&indexEntry{
		Campaign: *metadata,
	})
}

// remove a partially created campaign: index entry first, then key
func (r *Repository) undo(id string) {
	r.Lock()
	err := r.index.Delete([]byte(id))
	r.Unlock()
	if nil != err {
		r.log.Errorf("undo campaign: %s  remove index error: %s", id, err)
	}

	if err := r.keys.Remove(id); nil != err {
		r.log.Errorf("undo campaign: %s  remove key error: %s", id, err)
	}
}

func (r *Repository) write(ctx context.Context, id string, metadata *campaign.Campaign, state *campaign.Campaign, key crypto.PrivKey, strict bool) (*campaign.Campaign, error) {
	snapshot, err := r.writeSnapshot(ctx, state)
	if nil != err {
		return nil, err
	}

	r.Lock()
	entry, err := r.getEntry(id)
	if nil != err {
		r.Unlock()
		return nil, err
	}
	if nil == entry {
		r.Unlock()
		return nil, fault.ForCampaign(fault.ErrStorageInconsistency, id)
	}

	sequence := entry.SequenceNumber
	if nil != metadata {
		entry.Campaign = *metadata
	}
	entry.SnapshotID = snapshot.String()
	entry.SequenceNumber = sequence + 1

	err = r.putEntry(entry)
	r.Unlock()
	if nil != err {
		return nil, err
	}

	if nil == key {
		key, err = r.keys.Get(id)
		if nil != err {
			r.log.Errorf("campaign: %s  signing key error: %s", id, err)
			return nil, fault.ForCampaign(fault.ErrStorageInconsistency, id)
		}
	}

	err = r.publisher.Publish(ctx, key, snapshot, sequence)
	if nil != err {
		if strict {
			return nil, err
		}
		r.log.Warnf("campaign: %s  sequence: %d  publish error: %s", id, sequence, err)
	}

	result := state.Clone()
	metadataCopy := entry.Campaign
	result.ID = id
	result.PublishingID = metadataCopy.PublishingID
	result.Title = metadataCopy.Title
	result.Starts = metadataCopy.Starts
	result.Expires = metadataCopy.Expires
	result.Recipients = append([]campaign.Recipient(nil), metadataCopy.Recipients...)
	result.Descriptions = metadataCopy.Descriptions
	if nil == result.Contributions {
		result.Contributions = []campaign.Contribution{}
	}
	return result, nil
}

// write both snapshot blobs then the directory linking them
func (r *Repository) writeSnapshot(ctx context.Context, state *campaign.Campaign) (cid.Cid, error) {
	contributions := state.Contributions
	if nil == contributions {
		contributions = []campaign.Contribution{}
	}

	contributionsData, err := json.Marshal(contributions)
	if nil != err {
		return cid.Undef, err
	}
	fulfillmentData, err := json.Marshal(state.Fulfillment)
	if nil != err {
		return cid.Undef, err
	}

	contributionsID, err := r.objects.Put(ctx, contributionsData)
	if nil != err {
		return cid.Undef, err
	}
	fulfillmentID, err := r.objects.Put(ctx, fulfillmentData)
	if nil != err {
		return cid.Undef, err
	}

	return r.objects.PutDirectory(ctx, []objectstore.Link{
		{Name: ContributionsFile, ID: contributionsID, Size: uint64(len(contributionsData))},
		{Name: FulfillmentFile, ID: fulfillmentID, Size: uint64(len(fulfillmentData))},
	})
}

// must hold lock
func (r *Repository) getEntry(id string) (*indexEntry, error) {
	data, err := r.index.Get([]byte(id))
	if nil != err {
		return nil, err
	}
	if nil == data {
		return nil, nil
	}
	var entry indexEntry
	if err := json.Unmarshal(data, &entry); nil != err {
		return nil, err
	}
	return &entry, nil
}

// must hold lock
func (r *Repository) putEntry(entry *indexEntry) error {
	data, err := json.Marshal(entry)
	if nil != err {
		return err
	}
	return r.index.Put([]byte(entry.Campaign.ID), data)
}

func publishingName(key crypto.PrivKey) (string, error) {
	id, err := peer.IDFromPrivateKey(key)
	if nil != err {
		return "", err
	}
	return ipns.NameFromPeer(id).String(), nil
}
