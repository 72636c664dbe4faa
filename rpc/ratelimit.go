// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// limiting for a single request
//
// a request that would have to wait longer than maximumDelay is
// refused rather than queued
func rateLimit(ctx context.Context, limiter *rate.Limiter, maximumDelay time.Duration) error {
	r := limiter.Reserve()
	if !r.OK() {
		return fault.ErrRateLimited
	}
	delay := r.Delay()
	if delay > maximumDelay {
		r.Cancel()
		return fault.ErrRateLimited
	}
	if 0 == delay {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
