// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package server - assemble and run a campaign node
package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/host"

	"github.com/bitmark-inc/flipstarterd/background"
	"github.com/bitmark-inc/flipstarterd/keystore"
	"github.com/bitmark-inc/flipstarterd/objectstore"
	"github.com/bitmark-inc/flipstarterd/p2p"
	"github.com/bitmark-inc/flipstarterd/publisher"
	"github.com/bitmark-inc/flipstarterd/relay"
	"github.com/bitmark-inc/flipstarterd/repository"
	"github.com/bitmark-inc/flipstarterd/rpc"
	"github.com/bitmark-inc/flipstarterd/service"
	"github.com/bitmark-inc/flipstarterd/storage"
	"github.com/bitmark-inc/flipstarterd/watcher"
	"github.com/bitmark-inc/logger"
)

// defaults
const (
	DefaultRepublishInterval = time.Hour
	DefaultRelayRefresh      = 10 * time.Minute

	IndexDatabaseName  = "index.leveldb"
	ObjectDatabaseName = "objects.leveldb"

	startupTimeout = 5 * time.Minute
)

// WatcherFactory - build the watcher that feeds revocations into queue
type WatcherFactory func(queue *watcher.Queue) watcher.Watcher

// Configuration - everything needed to run a node
type Configuration struct {
	DataDirectory     string
	Passphrase        string
	Node              p2p.Configuration
	Publisher         publisher.Configuration
	RPC               rpc.Configuration
	UseRelayAddresses bool
	RelayTimeout      time.Duration
	RelayParallelism  int
	RelayRefresh      time.Duration
	RepublishInterval time.Duration
	RevocationQueue   int
	Watcher           WatcherFactory
}

// Server - a running campaign node
type Server struct {
	sync.Mutex

	log *logger.L

	node        *p2p.Node
	overlay     *publisher.PubSubOverlay
	database    *storage.Database
	objects     *objectstore.Persistent
	repository  *repository.Repository
	service     *service.Service
	watcher     watcher.Watcher
	revocations *watcher.Queue
	addresses   *addressBook
	rpc         *rpc.Server
	processes   *background.T
}

// New - open storage, start the node and serve the campaign protocols
func New(conf *Configuration) (*Server, error) {
	s := &Server{
		log: logger.New("server"),
	}
	if err := s.start(conf); nil != err {
		_ = s.Stop()
		return nil, err
	}
	return s, nil
}

func (s *Server) start(conf *Configuration) error {
	republishInterval := conf.RepublishInterval
	if republishInterval <= 0 {
		republishInterval = DefaultRepublishInterval
	}
	relayRefresh := conf.RelayRefresh
	if relayRefresh <= 0 {
		relayRefresh = DefaultRelayRefresh
	}

	var err error

	s.database, err = storage.Open(filepath.Join(conf.DataDirectory, IndexDatabaseName), false)
	if nil != err {
		return err
	}
	s.objects, err = objectstore.OpenPersistent(filepath.Join(conf.DataDirectory, ObjectDatabaseName))
	if nil != err {
		return err
	}

	s.node, err = p2p.New(&conf.Node)
	if nil != err {
		return err
	}
	self := s.node.Host.ID()
	s.log.Infof("peer id: %s", self)

	s.overlay = publisher.NewPubSubOverlay(s.node.PubSub, self)
	keys := keystore.New(s.database.Keys, conf.Passphrase)
	s.repository = repository.New(s.database.Campaigns, s.objects, keys, publisher.New(s.overlay, conf.Publisher))
	s.service = service.New(s.repository, nil)

	s.revocations = watcher.NewQueue(conf.RevocationQueue)
	if nil != conf.Watcher {
		s.watcher = conf.Watcher(s.revocations)
	}
	if nil == s.watcher {
		s.log.Warn("no commitment watcher configured: contributions will be rejected")
		s.watcher = watcher.NewUnavailable()
	}

	prober := relay.New(s.node.Host, conf.RelayTimeout, conf.RelayParallelism)
	s.addresses = newAddressBook(prober, s.node.Bootstrap, self, s.node.StaticAddresses(), conf.UseRelayAddresses, relayRefresh)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	connected := s.node.ConnectBootstrap(ctx)
	s.log.Infof("bootstrap peers connected: %d of %d", connected, len(s.node.Bootstrap))

	if _, err := recheck(ctx, s.log, s.repository, s.watcher); nil != err {
		return err
	}

	s.rpc = rpc.New(s.node.Host, s.service, s.watcher, s.objects, s.addresses.Addresses, conf.RPC)
	s.rpc.Register()

	processes := background.Processes{
		&revocationConsumer{
			log:     logger.New("revocation"),
			queue:   s.revocations,
			handler: s.service,
		},
		republishProcess(logger.New("republish"), s.repository, republishInterval),
	}
	if conf.UseRelayAddresses {
		processes = append(processes, relayProcess(s.addresses, relayRefresh))
	}

	s.Lock()
	s.processes = background.Start(processes, nil)
	s.Unlock()

	return nil
}

// Host - the libp2p host of the node
func (s *Server) Host() host.Host {
	return s.node.Host
}

// Revocations - the queue a watcher pushes spent commitments into
func (s *Server) Revocations() *watcher.Queue {
	return s.revocations
}

// Addresses - currently advertised contact addresses
func (s *Server) Addresses(ctx context.Context) []string {
	return s.addresses.Addresses(ctx)
}

// Stop - shut down in reverse order of start, safe on a partially
// started server
func (s *Server) Stop() error {
	s.Lock()
	defer s.Unlock()

	var result *multierror.Error

	s.processes.Stop()
	s.processes = nil

	if nil != s.rpc {
		s.rpc.Close()
		s.rpc = nil
	}
	if nil != s.overlay {
		s.overlay.Close()
		s.overlay = nil
	}
	if nil != s.node {
		result = multierror.Append(result, s.node.Close())
		s.node = nil
	}
	if nil != s.objects {
		result = multierror.Append(result, s.objects.Close())
		s.objects = nil
	}
	if nil != s.database {
		result = multierror.Append(result, s.database.Close())
		s.database = nil
	}

	if err := result.ErrorOrNil(); nil != err {
		s.log.Errorf("stop error: %s", err)
		return err
	}
	s.log.Info("stopped")
	return nil
}
