// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/flipstarterd/metrics"
)

func TestResult(t *testing.T) {
	assert.Equal(t, metrics.ResultOK, metrics.Result(nil))
	assert.Equal(t, metrics.ResultFailed, metrics.Result(errors.New("x")))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(metrics.Contributions.WithLabelValues(metrics.ResultOK))
	metrics.Contributions.WithLabelValues(metrics.ResultOK).Inc()
	after := testutil.ToFloat64(metrics.Contributions.WithLabelValues(metrics.ResultOK))
	assert.Equal(t, before+1, after)
}

func TestHandler(t *testing.T) {
	metrics.RelayPeers.Set(3)

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	assert.True(t, strings.Contains(body, "flipstarterd_relay_peers 3"), "gauge not exported")
}
