// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/flipstarterd/campaign"
	"github.com/bitmark-inc/flipstarterd/metrics"
	"github.com/bitmark-inc/flipstarterd/objectstore"
	"github.com/bitmark-inc/flipstarterd/service"
	"github.com/bitmark-inc/flipstarterd/watcher"
	"github.com/bitmark-inc/logger"
)

// protocol names
const (
	CreateProtocol  = protocol.ID("/flipstarter/create")
	SubmitProtocol  = protocol.ID("/flipstarter/submit")
	DetailsProtocol = protocol.ID("/flipstarter/campaignDetails")
)

// defaults
const (
	defaultRequestTimeout = 2 * time.Minute
	defaultRateLimit      = 20
	defaultRateBurst      = 40
	defaultMaximumDelay   = 5 * time.Second
	defaultMaximumStreams = 100
)

//go:generate mockgen -source=server.go -destination=mocks/service.go -package=mocks

// CampaignService - the operations the protocols expose
type CampaignService interface {
	CreateCampaign(ctx context.Context, data *campaign.Data) (*campaign.Campaign, error)
	HandleContribution(ctx context.Context, campaignID string, data campaign.ContributionData, inputs []campaign.CommitmentData, validate service.ValidateFunc, fulfil service.FulfilFunc) (*service.Result, error)
	GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error)
}

// AddressSource - the addresses this node currently advertises
type AddressSource func(ctx context.Context) []string

// Configuration - request handling limits, zero values select defaults
type Configuration struct {
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	MaximumDelay   time.Duration
	MaximumStreams int
}

// Server - protocol handlers bound to one host
type Server struct {
	log       *logger.L
	host      host.Host
	service   CampaignService
	watcher   watcher.Watcher
	objects   objectstore.Store
	addresses AddressSource
	limiter   *rate.Limiter

	timeout        time.Duration
	maximumDelay   time.Duration
	maximumStreams int64
	active         atomic.Int64
}

type handlerFunc func(ctx context.Context, stream network.Stream) (interface{}, error)

// New - create the protocol server, call Register to start serving
func New(h host.Host, s CampaignService, w watcher.Watcher, objects objectstore.Store, addresses AddressSource, configuration Configuration) *Server {
	if 0 == configuration.RequestTimeout {
		configuration.RequestTimeout = defaultRequestTimeout
	}
	if 0 == configuration.RateLimit {
		configuration.RateLimit = defaultRateLimit
	}
	if 0 == configuration.RateBurst {
		configuration.RateBurst = defaultRateBurst
	}
	if 0 == configuration.MaximumDelay {
		configuration.MaximumDelay = defaultMaximumDelay
	}
	if 0 == configuration.MaximumStreams {
		configuration.MaximumStreams = defaultMaximumStreams
	}
	if nil == addresses {
		addresses = func(context.Context) []string { return []string{} }
	}

	return &Server{
		log:            logger.New("rpc"),
		host:           h,
		service:        s,
		watcher:        w,
		objects:        objects,
		addresses:      addresses,
		limiter:        rate.NewLimiter(rate.Limit(configuration.RateLimit), configuration.RateBurst),
		timeout:        configuration.RequestTimeout,
		maximumDelay:   configuration.MaximumDelay,
		maximumStreams: int64(configuration.MaximumStreams),
	}
}

// Register - install the stream handlers on the host
func (s *Server) Register() {
	s.host.SetStreamHandler(CreateProtocol, s.handle(CreateProtocol, s.create))
	s.host.SetStreamHandler(SubmitProtocol, s.handle(SubmitProtocol, s.submit))
	s.host.SetStreamHandler(DetailsProtocol, s.handle(DetailsProtocol, s.details))
	s.log.Infof("serving: %s %s %s", CreateProtocol, SubmitProtocol, DetailsProtocol)
}

// Close - remove the stream handlers
func (s *Server) Close() {
	s.host.RemoveStreamHandler(CreateProtocol)
	s.host.RemoveStreamHandler(SubmitProtocol)
	s.host.RemoveStreamHandler(DetailsProtocol)
}

func (s *Server) handle(name protocol.ID, handler handlerFunc) network.StreamHandler {
	return func(stream network.Stream) {
		defer stream.Close()

		remote := stream.Conn().RemotePeer()

		if s.active.Add(1) > s.maximumStreams {
			s.active.Add(-1)
			s.log.Warnf("%s: too many streams, reset: %s", name, remote)
			_ = stream.Reset()
			return
		}
		metrics.ActiveRequests.Inc()
		defer func() {
			s.active.Add(-1)
			metrics.ActiveRequests.Dec()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = stream.SetDeadline(time.Now().Add(s.timeout))

		if err := rateLimit(ctx, s.limiter, s.maximumDelay); nil != err {
			metrics.RequestsLimited.WithLabelValues(string(name)).Inc()
			s.log.Debugf("%s: from: %s  limited: %s", name, remote, err)
			_ = writeError(stream, err)
			return
		}

		result, err := handler(ctx, stream)
		if nil != err {
			s.log.Debugf("%s: from: %s  error: %s", name, remote, err)
			err = writeError(stream, err)
		} else {
			err = writeResult(stream, result)
		}
		if nil != err {
			s.log.Warnf("%s: to: %s  write error: %s", name, remote, err)
			_ = stream.Reset()
		}
	}
}
