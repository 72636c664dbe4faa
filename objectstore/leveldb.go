// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package objectstore

import (
	leveldb "github.com/ipfs/go-ds-leveldb"
)

// Persistent - an object store held in a LevelDB directory
type Persistent struct {
	Store
	datastore *leveldb.Datastore
}

// OpenPersistent - open or create the object database
func OpenPersistent(directory string) (*Persistent, error) {
	d, err := leveldb.NewDatastore(directory, nil)
	if nil != err {
		return nil, err
	}
	return &Persistent{
		Store:     New(d),
		datastore: d,
	}, nil
}

// Close - release the database
func (p *Persistent) Close() error {
	return p.datastore.Close()
}
