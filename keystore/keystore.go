// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keystore - named campaign signing keys
package keystore

import (
	"crypto/rand"
	"sync"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/storage"
)

// Provider - the key management capability needed by the campaign store
type Provider interface {
	Generate(name string) (crypto.PrivKey, error)
	Get(name string) (crypto.PrivKey, error)
	Import(name string, sealed []byte, passphrase string) (crypto.PrivKey, error)
	Export(name string, passphrase string) ([]byte, error)
	Remove(name string) error
}

// backend - where marshalled key bytes live
type backend interface {
	get(name string) ([]byte, error)
	put(name string, data []byte) error
	remove(name string) error
}

// Store - a Provider over some backend
//
// a single lock serialises every operation so that generate cannot
// race another generate for the same name
type Store struct {
	sync.Mutex
	backend backend
}

// New - keys sealed with passphrase in a database table
func New(table *storage.Table, passphrase string) *Store {
	return &Store{
		backend: &tableBackend{
			table:      table,
			passphrase: passphrase,
		},
	}
}

// NewMemory - keys held only in process memory
func NewMemory() *Store {
	return &Store{
		backend: &memoryBackend{
			keys: make(map[string][]byte),
		},
	}
}

// Generate - create a new Ed25519 key under name
func (s *Store) Generate(name string) (crypto.PrivKey, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.absent(name); nil != err {
		return nil, err
	}

	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if nil != err {
		return nil, err
	}

	if err := s.store(name, key); nil != err {
		return nil, err
	}
	return key, nil
}

// Get - fetch a key by name
func (s *Store) Get(name string) (crypto.PrivKey, error) {
	s.Lock()
	defer s.Unlock()

	data, err := s.backend.get(name)
	if nil != err {
		return nil, err
	}
	if nil == data {
		return nil, fault.ErrKeyNotFound
	}
	return crypto.UnmarshalPrivateKey(data)
}

// Import - add a key previously produced by Export
func (s *Store) Import(name string, sealed []byte, passphrase string) (crypto.PrivKey, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.absent(name); nil != err {
		return nil, err
	}

	data, err := open(sealed, passphrase)
	if nil != err {
		return nil, err
	}

	key, err := crypto.UnmarshalPrivateKey(data)
	if nil != err {
		return nil, fault.ErrInvalidKeyData
	}

	if err := s.store(name, key); nil != err {
		return nil, err
	}
	return key, nil
}

// Export - the key sealed with passphrase
func (s *Store) Export(name string, passphrase string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	data, err := s.backend.get(name)
	if nil != err {
		return nil, err
	}
	if nil == data {
		return nil, fault.ErrKeyNotFound
	}
	return seal(data, passphrase)
}

// Remove - delete a key, absent keys are not an error
func (s *Store) Remove(name string) error {
	s.Lock()
	defer s.Unlock()

	return s.backend.remove(name)
}

func (s *Store) absent(name string) error {
	data, err := s.backend.get(name)
	if nil != err {
		return err
	}
	if nil != data {
		return fault.ErrKeyExists
	}
	return nil
}

func (s *Store) store(name string, key crypto.PrivKey) error {
	data, err := crypto.MarshalPrivateKey(key)
	if nil != err {
		return err
	}
	return s.backend.put(name, data)
}
