// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/bitmark-inc/flipstarterd/configuration"
	"github.com/bitmark-inc/flipstarterd/p2p"
	"github.com/bitmark-inc/flipstarterd/publisher"
	"github.com/bitmark-inc/flipstarterd/rpc"
	"github.com/bitmark-inc/flipstarterd/server"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLogDirectory = "log"
	defaultLogFile      = "flipstarterd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type LoggingType struct {
	Directory string      `gluamapper:"directory" json:"directory"`
	File      string      `gluamapper:"file" json:"file"`
	Size      int         `gluamapper:"size" json:"size"`
	Count     int         `gluamapper:"count" json:"count"`
	Console   bool        `gluamapper:"console" json:"console"`
	Levels    LoglevelMap `gluamapper:"levels" json:"levels"`
}

type PublishingType struct {
	PreloadNodes   []string `gluamapper:"preload_nodes" json:"preload_nodes"`
	AcceptPeers    []string `gluamapper:"accept_peers" json:"accept_peers"`
	MinimumPeers   int      `gluamapper:"minimum_peers" json:"minimum_peers"`
	RetryWait      string   `gluamapper:"retry_wait" json:"retry_wait"`
	Retries        int      `gluamapper:"retries" json:"retries"`
	RecordValidity string   `gluamapper:"record_validity" json:"record_validity"`
	RecordTTL      string   `gluamapper:"record_ttl" json:"record_ttl"`
	ListenTimeout  string   `gluamapper:"listen_timeout" json:"listen_timeout"`
}

type RPCType struct {
	RequestTimeout string  `gluamapper:"request_timeout" json:"request_timeout"`
	RateLimit      float64 `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst      int     `gluamapper:"rate_burst" json:"rate_burst"`
	MaximumDelay   string  `gluamapper:"maximum_delay" json:"maximum_delay"`
	MaximumStreams int     `gluamapper:"maximum_streams" json:"maximum_streams"`
}

type RelayType struct {
	UseRelayAddresses bool   `gluamapper:"use_relay_addresses" json:"use_relay_addresses"`
	Timeout           string `gluamapper:"timeout" json:"timeout"`
	Parallelism       int    `gluamapper:"parallelism" json:"parallelism"`
	Refresh           string `gluamapper:"refresh" json:"refresh"`
}

type MetricsType struct {
	Listen string `gluamapper:"listen" json:"listen"`
}

type Configuration struct {
	DataDirectory     string            `gluamapper:"data_directory" json:"data_directory"`
	PidFile           string            `gluamapper:"pidfile" json:"pidfile"`
	Passphrase        string            `gluamapper:"passphrase" json:"-"`
	RepublishInterval string            `gluamapper:"republish_interval" json:"republish_interval"`
	RevocationQueue   int               `gluamapper:"revocation_queue" json:"revocation_queue"`
	Peering           p2p.Configuration `gluamapper:"peering" json:"peering"`
	Publishing        PublishingType    `gluamapper:"publishing" json:"publishing"`
	RPC               RPCType           `gluamapper:"rpc" json:"rpc"`
	Relay             RelayType         `gluamapper:"relay" json:"relay"`
	Metrics           MetricsType       `gluamapper:"metrics" json:"metrics"`
	Logging           LoggingType       `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		// all other zero values select the package defaults

		Logging: LoggingType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    LoglevelMap{},
		},
	}

	for k, v := range defaultLogLevels {
		options.Logging.Levels[k] = v
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	// the log file must be a plain name inside the log directory
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("Files: %q is not plain name", options.Logging.File)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Logging.Directory,
	} {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// ensure the path is absolute, relative paths are below directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// convert to the logger's own configuration
func (c *Configuration) loggerConfiguration() logger.Configuration {
	return logger.Configuration{
		Directory: c.Logging.Directory,
		File:      c.Logging.File,
		Size:      c.Logging.Size,
		Count:     c.Logging.Count,
		Console:   c.Logging.Console,
		Levels:    c.Logging.Levels,
	}
}

// convert the file configuration into the server's, parsing all
// durations and peer ids
func (c *Configuration) serverConfiguration() (server.Configuration, error) {

	conf := server.Configuration{
		DataDirectory:     c.DataDirectory,
		Passphrase:        c.Passphrase,
		Node:              c.Peering,
		UseRelayAddresses: c.Relay.UseRelayAddresses,
		RelayParallelism:  c.Relay.Parallelism,
		RevocationQueue:   c.RevocationQueue,
	}

	accept, err := acceptCheck(c.Publishing.AcceptPeers, c.Publishing.MinimumPeers)
	if nil != err {
		return conf, err
	}

	if c.Publishing.Retries < 0 {
		return conf, fmt.Errorf("publishing: retries: %d is negative", c.Publishing.Retries)
	}

	conf.Publisher = publisher.Configuration{
		PreloadNodes: c.Publishing.PreloadNodes,
		Accept:       accept,
		Retries:      uint64(c.Publishing.Retries),
	}

	conf.RPC = rpc.Configuration{
		RateLimit:      c.RPC.RateLimit,
		RateBurst:      c.RPC.RateBurst,
		MaximumStreams: c.RPC.MaximumStreams,
	}

	// blank durations stay zero
	durations := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"publishing.retry_wait", c.Publishing.RetryWait, &conf.Publisher.RetryWait},
		{"publishing.record_validity", c.Publishing.RecordValidity, &conf.Publisher.RecordValidity},
		{"publishing.record_ttl", c.Publishing.RecordTTL, &conf.Publisher.RecordTTL},
		{"publishing.listen_timeout", c.Publishing.ListenTimeout, &conf.Publisher.ListenTimeout},
		{"rpc.request_timeout", c.RPC.RequestTimeout, &conf.RPC.RequestTimeout},
		{"rpc.maximum_delay", c.RPC.MaximumDelay, &conf.RPC.MaximumDelay},
		{"relay.timeout", c.Relay.Timeout, &conf.RelayTimeout},
		{"relay.refresh", c.Relay.Refresh, &conf.RelayRefresh},
		{"republish_interval", c.RepublishInterval, &conf.RepublishInterval},
	}
	for _, item := range durations {
		d, err := configuration.ParseDuration(item.value, 0)
		if nil != err {
			return conf, fmt.Errorf("%s: %w", item.name, err)
		}
		*item.target = d
	}

	return conf, nil
}

// build the preload acceptance check
//
// no listed peers: at least minimum of anybody
// listed peers: at least minimum of those
func acceptCheck(peers []string, minimum int) (publisher.PeerCheck, error) {
	if minimum <= 0 {
		minimum = 1
	}
	ids := make([]peer.ID, 0, len(peers))
	for _, s := range peers {
		id, err := peer.Decode(s)
		if nil != err {
			return nil, fmt.Errorf("publishing: accept_peers: %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	if len(ids) > 0 && minimum > len(ids) {
		return nil, fmt.Errorf("publishing: minimum_peers: %d exceeds accept_peers count: %d", minimum, len(ids))
	}
	return publisher.AtLeast(minimum, ids...), nil
}
