// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keystore

import (
	"github.com/bitmark-inc/flipstarterd/storage"
)

type tableBackend struct {
	table      *storage.Table
	passphrase string
}

func (b *tableBackend) get(name string) ([]byte, error) {
	sealed, err := b.table.Get([]byte(name))
	if nil != err || nil == sealed {
		return nil, err
	}
	return open(sealed, b.passphrase)
}

func (b *tableBackend) put(name string, data []byte) error {
	sealed, err := seal(data, b.passphrase)
	if nil != err {
		return err
	}
	return b.table.Put([]byte(name), sealed)
}

func (b *tableBackend) remove(name string) error {
	return b.table.Delete([]byte(name))
}

type memoryBackend struct {
	keys map[string][]byte
}

func (b *memoryBackend) get(name string) ([]byte, error) {
	return b.keys[name], nil
}

func (b *memoryBackend) put(name string, data []byte) error {
	b.keys[name] = append([]byte(nil), data...)
	return nil
}

func (b *memoryBackend) remove(name string) error {
	delete(b.keys, name)
	return nil
}
