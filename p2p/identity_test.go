// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p_test

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/crypto/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/flipstarterd/fault"
	"github.com/bitmark-inc/flipstarterd/p2p"
)

func TestIdentity(t *testing.T) {
	s, err := p2p.MakeIdentity()
	require.NoError(t, err, "make identity")

	key, err := p2p.DecodeIdentity(s)
	require.NoError(t, err, "decode identity")
	assert.Equal(t, pb.KeyType(crypto.Ed25519), key.Type())

	again, err := p2p.EncodeIdentity(key)
	require.NoError(t, err, "encode identity")
	assert.Equal(t, s, again)
}

func TestDecodeIdentityInvalid(t *testing.T) {
	_, err := p2p.DecodeIdentity("")
	assert.ErrorIs(t, err, fault.ErrMissingPrivateKey)

	_, err = p2p.DecodeIdentity("not hex")
	assert.ErrorIs(t, err, fault.ErrInvalidKeyData)

	_, err = p2p.DecodeIdentity("0801")
	assert.ErrorIs(t, err, fault.ErrInvalidKeyData)
}
