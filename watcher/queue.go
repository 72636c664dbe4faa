// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package watcher

import (
	"context"

	"github.com/bitmark-inc/flipstarterd/campaign"
)

// DefaultQueueSize - revocations buffered before Push blocks
const DefaultQueueSize = 1000

// Queue - bounded revocation queue
//
// each revocation is delivered to exactly one reader
type Queue struct {
	c chan campaign.Revocation
}

// NewQueue - create a queue, size <= 0 selects the default
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		c: make(chan campaign.Revocation, size),
	}
}

// Push - queue a revocation, blocking while the queue is full
func (q *Queue) Push(ctx context.Context, revocation campaign.Revocation) error {
	select {
	case q.c <- revocation:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chan - channel to read from
func (q *Queue) Chan() <-chan campaign.Revocation {
	return q.c
}

// Len - number of queued revocations
func (q *Queue) Len() int {
	return len(q.c)
}
