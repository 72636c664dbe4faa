// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"sync"
)

// one single slot semaphore per campaign id, dropped once nobody holds
// or waits for it
type campaignLocks struct {
	sync.Mutex
	locks map[string]*campaignLock
}

type campaignLock struct {
	slot  chan struct{}
	users int
}

func newCampaignLocks() *campaignLocks {
	return &campaignLocks{
		locks: make(map[string]*campaignLock),
	}
}

// lock - wait for the campaign, giving up when ctx is done
//
// a nil return means the caller holds the lock and must unlock
func (c *campaignLocks) lock(ctx context.Context, id string) error {
	c.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &campaignLock{
			slot: make(chan struct{}, 1),
		}
		c.locks[id] = l
	}
	l.users += 1
	c.Unlock()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		c.release(id, l)
		return ctx.Err()
	}

	// the slot may win the race against an expired context
	if err := ctx.Err(); nil != err {
		c.unlock(id)
		return err
	}
	return nil
}

func (c *campaignLocks) unlock(id string) {
	c.Lock()
	l := c.locks[id]
	<-l.slot
	c.Unlock()

	c.release(id, l)
}

func (c *campaignLocks) release(id string, l *campaignLock) {
	c.Lock()
	l.users -= 1
	if 0 == l.users {
		delete(c.locks, id)
	}
	c.Unlock()
}

