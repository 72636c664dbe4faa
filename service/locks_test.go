// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(c *campaignLocks) int {
	c.Lock()
	defer c.Unlock()
	return len(c.locks)
}

func TestCampaignLocks(t *testing.T) {
	c := newCampaignLocks()
	ctx := context.Background()

	require.NoError(t, c.lock(ctx, "one"), "lock one")
	require.NoError(t, c.lock(ctx, "two"), "different ids must not block")
	assert.Equal(t, 2, entries(c))

	acquired := make(chan error, 1)
	go func() {
		acquired <- c.lock(ctx, "one")
	}()

	select {
	case <-acquired:
		t.Fatal("lock held twice")
	case <-time.After(20 * time.Millisecond):
	}

	c.unlock("one")
	require.NoError(t, <-acquired, "waiter not woken")
	c.unlock("one")
	c.unlock("two")

	assert.Equal(t, 0, entries(c), "ids not dropped")
}

func TestCampaignLocksTimeout(t *testing.T) {
	c := newCampaignLocks()

	require.NoError(t, c.lock(context.Background(), "one"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.lock(ctx, "one")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, entries(c), "waiter not released")

	c.unlock("one")
	assert.Equal(t, 0, entries(c), "ids not dropped")

	// an expired context never takes a free lock
	err = c.lock(ctx, "one")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, entries(c), "ids not dropped")
}
