// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package objectstore - content addressed blobs and directories
//
// Blobs are stored as raw blocks and directories as unixfs dag-pb
// nodes, both with CIDv1 identifiers, so any IPFS node holding the
// same blocks resolves the same ids.
package objectstore

import (
	"context"
	"fmt"

	"github.com/ipfs/boxo/blockstore"
	dag "github.com/ipfs/boxo/ipld/merkledag"
	ft "github.com/ipfs/boxo/ipld/unixfs"
	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"
	format "github.com/ipfs/go-ipld-format"
	mh "github.com/multiformats/go-multihash"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// Link - a named entry of a directory object
type Link struct {
	Name string
	ID   cid.Cid
	Size uint64
}

// Store - content addressed object storage
type Store interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	PutDirectory(ctx context.Context, links []Link) (cid.Cid, error)
	GetFile(ctx context.Context, directory cid.Cid, name string) ([]byte, error)
}

type blockStore struct {
	blocks blockstore.Blockstore
	prefix cid.Prefix
}

// New - object store over any batching datastore
func New(d ds.Batching) Store {
	return &blockStore{
		blocks: blockstore.NewBlockstore(d),
		prefix: cid.Prefix{
			Version:  1,
			Codec:    cid.Raw,
			MhType:   mh.SHA2_256,
			MhLength: -1,
		},
	}
}

// Put - store a blob and return its id
func (s *blockStore) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	node, err := dag.NewRawNodeWPrefix(data, s.prefix)
	if nil != err {
		return cid.Undef, err
	}
	if err := s.blocks.Put(ctx, node); nil != err {
		return cid.Undef, err
	}
	return node.Cid(), nil
}

// Get - read a blob
func (s *blockStore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	block, err := s.blocks.Get(ctx, id)
	if format.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", fault.ErrObjectNotFound, id)
	}
	if nil != err {
		return nil, err
	}
	return block.RawData(), nil
}

// PutDirectory - store a directory object linking the named blobs
func (s *blockStore) PutDirectory(ctx context.Context, links []Link) (cid.Cid, error) {
	node := ft.EmptyDirNode()
	if err := node.SetCidBuilder(dag.V1CidPrefix()); nil != err {
		return cid.Undef, err
	}

	for _, l := range links {
		err := node.AddRawLink(l.Name, &format.Link{
			Name: l.Name,
			Size: l.Size,
			Cid:  l.ID,
		})
		if nil != err {
			return cid.Undef, err
		}
	}

	if err := s.blocks.Put(ctx, node); nil != err {
		return cid.Undef, err
	}
	return node.Cid(), nil
}

// GetFile - read the blob linked under name from a directory object
func (s *blockStore) GetFile(ctx context.Context, directory cid.Cid, name string) ([]byte, error) {
	data, err := s.Get(ctx, directory)
	if nil != err {
		return nil, err
	}

	node, err := dag.DecodeProtobuf(data)
	if nil != err {
		return nil, err
	}

	link, err := node.GetNodeLink(name)
	if nil != err {
		return nil, fmt.Errorf("%w: %s/%s", fault.ErrObjectNotFound, directory, name)
	}
	return s.Get(ctx, link.Cid)
}
