// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// ParseHostPort - parse host:port, return version(ip4/ip6), ip, port
func ParseHostPort(hostPort string) (string, string, string, error) {
	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", "", "", fault.ErrInvalidPeerAddress
	}
	ip := strings.TrimSpace(host)
	numericPort, err := strconv.Atoi(strings.TrimSpace(port))
	if nil != err || numericPort < 1 || numericPort > 65535 {
		return "", "", "", fault.ErrInvalidPeerAddress
	}
	netIP := net.ParseIP(ip)
	if nil == netIP {
		return "", "", "", fault.ErrInvalidPeerAddress
	}
	version := "ip6"
	if nil != netIP.To4() {
		version = "ip4"
	}
	return version, ip, strconv.Itoa(numericPort), nil
}

// DualStack - expand "*:port" into both 0.0.0.0:port and [::]:port,
// removing duplicates
func DualStack(ipPorts []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(ipPorts))
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	for _, ipPort := range ipPorts {
		if strings.HasPrefix(ipPort, "*:") {
			port := strings.TrimPrefix(ipPort, "*:")
			add("0.0.0.0:" + port)
			add("[::]:" + port)
			continue
		}
		add(ipPort)
	}
	return result
}

// ListenAddresses - configuration entries to multiaddresses
//
// entries may be host:port (tcp) or full multiaddresses
func ListenAddresses(entries []string) ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(entries))
	for _, entry := range DualStack(entries) {
		if strings.HasPrefix(entry, "/") {
			addr, err := ma.NewMultiaddr(entry)
			if nil != err {
				return nil, fmt.Errorf("%w: %s", fault.ErrInvalidPeerAddress, entry)
			}
			addrs = append(addrs, addr)
			continue
		}

		version, ip, port, err := ParseHostPort(entry)
		if nil != err {
			return nil, fmt.Errorf("%w: %s", err, entry)
		}
		addr, err := ma.NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%s", version, ip, port))
		if nil != err {
			return nil, fmt.Errorf("%w: %s", fault.ErrInvalidPeerAddress, entry)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// PeerAddresses - parse multiaddresses that must carry a /p2p/ component
func PeerAddresses(entries []string) ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(entries))
	for _, entry := range entries {
		addr, err := ma.NewMultiaddr(entry)
		if nil != err {
			return nil, fmt.Errorf("%w: %s", fault.ErrInvalidPeerAddress, entry)
		}
		if _, err := peer.AddrInfoFromP2pAddr(addr); nil != err {
			return nil, fmt.Errorf("%w: %s", fault.ErrInvalidPeerAddress, entry)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// FullAddresses - append /p2p/<id> to each address
func FullAddresses(addrs []ma.Multiaddr, id peer.ID) []string {
	self, err := ma.NewMultiaddr("/p2p/" + id.String())
	if nil != err {
		return []string{}
	}
	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		result = append(result, addr.Encapsulate(self).String())
	}
	return result
}
