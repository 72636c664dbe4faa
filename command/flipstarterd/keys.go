// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/flipstarterd/keystore"
	"github.com/bitmark-inc/flipstarterd/server"
	"github.com/bitmark-inc/flipstarterd/storage"
)

// open the daemon's key index, fails while the daemon is running
func openKeys(options *Configuration, readOnly bool) (*keystore.Store, *storage.Database, error) {
	db, err := storage.Open(filepath.Join(options.DataDirectory, server.IndexDatabaseName), readOnly)
	if nil != err {
		return nil, nil, err
	}
	return keystore.New(db.Keys, options.Passphrase), db, nil
}

// write the signing key of a campaign sealed with the configured
// passphrase, an existing file is never overwritten
func exportKey(options *Configuration, campaignID string, fileName string) error {
	keys, db, err := openKeys(options, true)
	if nil != err {
		return err
	}
	defer db.Close()

	sealed, err := keys.Export(campaignID, options.Passphrase)
	if nil != err {
		return err
	}

	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return err
	}
	_, err = f.Write(sealed)
	if closeErr := f.Close(); nil == err {
		err = closeErr
	}
	return err
}

// add a signing key produced by export-key
func importKey(options *Configuration, campaignID string, fileName string) error {
	sealed, err := os.ReadFile(fileName)
	if nil != err {
		return err
	}

	keys, db, err := openKeys(options, false)
	if nil != err {
		return err
	}
	defer db.Close()

	_, err = keys.Import(campaignID, sealed, options.Passphrase)
	return err
}
