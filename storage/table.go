// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// Table - a key prefixed region of the database
type Table struct {
	prefix   byte
	limit    []byte
	database *leveldb.DB
}

// Element - a key/value pair read from a table
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *Table) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Put - store a key/value bytes pair to the database
func (p *Table) Put(key []byte, value []byte) error {
	if nil == p.database {
		return fault.ErrDatabaseIsNotSet
	}
	return p.database.Put(p.prefixKey(key), value, nil)
}

// Delete - remove a key from the database
func (p *Table) Delete(key []byte) error {
	if nil == p.database {
		return fault.ErrDatabaseIsNotSet
	}
	return p.database.Delete(p.prefixKey(key), nil)
}

// Get - read a value for a given key
//
// returns nil if the key is absent
func (p *Table) Get(key []byte) ([]byte, error) {
	if nil == p.database {
		return nil, fault.ErrDatabaseIsNotSet
	}
	value, err := p.database.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	if nil != err {
		return nil, err
	}
	return value, nil
}

// Has - check if a key exists
func (p *Table) Has(key []byte) (bool, error) {
	if nil == p.database {
		return false, fault.ErrDatabaseIsNotSet
	}
	return p.database.Has(p.prefixKey(key), nil)
}

// All - every element of the table in key order
func (p *Table) All() ([]Element, error) {
	if nil == p.database {
		return nil, fault.ErrDatabaseIsNotSet
	}

	iter := p.database.NewIterator(&util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}, nil)
	defer iter.Release()

	results := make([]Element, 0)
	for iter.Next() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		results = append(results, Element{
			Key:   dataKey,
			Value: dataValue,
		})
	}
	return results, iter.Error()
}
