// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/bitmark-inc/flipstarterd/p2p"
)

const (
	peerPrivateKeyFilename = "peer.private"
)

// setup command handler
//
// commands that run to create key files these commands cannot access
// any internal database or states or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-peer-identity", "peer":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing directory argument")
		}
		id, err := makePeerIdentity(arguments[0])
		if nil != err {
			exitwithstatus.Message("generate peer identity error: %s", err)
		}
		fmt.Printf("peer id: %s\n", id)

	case "version", "v":
		fmt.Printf("%s\n", version)

	case "campaign-details", "details":
		if len(arguments) < 2 {
			exitwithstatus.Message("missing address or campaign id argument")
		}
		c, err := campaignDetails(arguments[0], arguments[1], defaultClientTimeout)
		if nil != err {
			exitwithstatus.Message("campaign details error: %s", err)
		}
		printJSON(c)

	case "start", "run", "config-test", "cfg", "export-key", "import-key":
		return false // defer processing until configuration is read

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %v\n", command)
		}

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-peer-identity DIR      (peer)   - create private key in: %q\n", "DIR/"+peerPrivateKeyFilename)
		fmt.Printf("                                        the value is read by: peering.private_key\n\n")

		fmt.Printf("  campaign-details ADDR ID   (details) - fetch campaign ID from the node at multiaddr ADDR\n\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n\n")
		fmt.Printf("  export-key ID FILE                  - write the sealed signing key of campaign ID\n")
		fmt.Printf("  import-key ID FILE                  - add a signing key written by export-key\n")
		fmt.Printf("                                        both use the configured passphrase and\n")
		fmt.Printf("                                        need the daemon to be stopped\n\n")
		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n\n")

		fmt.Printf("flags:\n\n")
		fmt.Printf("  --config-file=FILE  (-c)  - the Lua configuration file (required)\n")
		fmt.Printf("  --quiet             (-q)  - do not print start up messages\n")
		fmt.Printf("  --verbose           (-v)  - more output\n")
		fmt.Printf("  --version           (-V)  - display version sting\n")
		fmt.Printf("  --help              (-h)  - this message\n\n")

		fmt.Printf("program: %s\n", program)
		exitwithstatus.Exit(1)
	}

	// indicate processing complete and prefor normal exit from main
	return true
}

// configuration command handler
//
// commands that just inspect the configuration, program exits on
// return of true
func processConfigCommand(arguments []string, options *Configuration) bool {

	if len(arguments) < 1 {
		return false
	}

	switch arguments[0] {
	case "config-test", "cfg":
		buffer, err := json.MarshalIndent(options, "", "  ")
		if nil != err {
			exitwithstatus.Message("configuration error: %s", err)
		}
		if _, err := options.serverConfiguration(); nil != err {
			exitwithstatus.Message("configuration error: %s", err)
		}
		fmt.Printf("configuration: %s\n", buffer)
		return true

	case "export-key":
		if len(arguments) < 3 {
			exitwithstatus.Message("missing campaign id or file argument")
		}
		if err := exportKey(options, arguments[1], arguments[2]); nil != err {
			exitwithstatus.Message("export key error: %s", err)
		}
		fmt.Printf("exported: %s\n", arguments[2])
		return true

	case "import-key":
		if len(arguments) < 3 {
			exitwithstatus.Message("missing campaign id or file argument")
		}
		if err := importKey(options, arguments[1], arguments[2]); nil != err {
			exitwithstatus.Message("import key error: %s", err)
		}
		fmt.Printf("imported: %s\n", arguments[1])
		return true

	case "start", "run":
		return false

	default:
		return false
	}
}

func printJSON(item interface{}) {
	buffer, err := json.MarshalIndent(item, "", "  ")
	if nil != err {
		exitwithstatus.Message("json error: %s", err)
	}
	fmt.Printf("%s\n", buffer)
}

// create a new node identity in the directory
//
// an existing key file is never overwritten
func makePeerIdentity(directory string) (peer.ID, error) {

	fileName := filepath.Join(directory, peerPrivateKeyFilename)

	s, err := p2p.MakeIdentity()
	if nil != err {
		return "", err
	}
	key, err := p2p.DecodeIdentity(s)
	if nil != err {
		return "", err
	}
	id, err := peer.IDFromPrivateKey(key)
	if nil != err {
		return "", err
	}

	f, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return "", err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", s); nil != err {
		return "", err
	}
	return id, nil
}
