// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics - prometheus instruments shared by all components
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flipstarterd"

// result labels
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	CampaignsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "campaigns_created_total",
		Help:      "campaign creation attempts by result",
	}, []string{"result"})

	Contributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contributions_total",
		Help:      "contribution submissions by result",
	}, []string{"result"})

	CommitmentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commitments_rejected_total",
		Help:      "individual commitments rejected during contribution handling",
	})

	CampaignsFulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "campaigns_fulfilled_total",
		Help:      "campaigns that reached their target and were fulfilled",
	})

	Revocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revocations_total",
		Help:      "revocation notices by whether a commitment matched",
	}, []string{"result"})

	RecordsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_published_total",
		Help:      "name records broadcast by result",
	}, []string{"result"})

	ListenerWaitExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listener_wait_exhausted_total",
		Help:      "publishes that proceeded without confirmed listeners",
	})

	RelayPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "relay_peers",
		Help:      "candidate peers that accepted a relay reservation at the last probe",
	})

	PeerConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "peer_connections",
		Help:      "open libp2p connections",
	})

	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_requests",
		Help:      "protocol streams currently being served",
	})

	RequestsLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_limited_total",
		Help:      "protocol requests refused by the rate limiter",
	}, []string{"protocol"})
)

// Result - label value for an error outcome
func Result(err error) string {
	if nil == err {
		return ResultOK
	}
	return ResultFailed
}

// Handler - http handler exposing the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
