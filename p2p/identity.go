// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// MakeIdentity - generate a random Ed25519 node key in hex
func MakeIdentity() (string, error) {
	key, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if nil != err {
		return "", err
	}
	return EncodeIdentity(key)
}

// DecodeIdentity - hex string to private key
func DecodeIdentity(s string) (crypto.PrivKey, error) {
	if "" == s {
		return nil, fault.ErrMissingPrivateKey
	}
	buffer, err := hex.DecodeString(s)
	if nil != err {
		return nil, fault.ErrInvalidKeyData
	}
	key, err := crypto.UnmarshalPrivateKey(buffer)
	if nil != err {
		return nil, fault.ErrInvalidKeyData
	}
	return key, nil
}

// EncodeIdentity - private key to hex string
func EncodeIdentity(key crypto.PrivKey) (string, error) {
	buffer, err := crypto.MarshalPrivateKey(key)
	if nil != err {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}
