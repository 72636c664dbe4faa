// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publisher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
)

const resolvePath = "/api/v0/name/resolve"

// preloadListeners - asks remote IPFS nodes to start following a name
type preloadListeners struct {
	log     *logger.L
	nodes   []string
	client  *http.Client
	timeout time.Duration
}

// start - fire one resolve request per node and return immediately;
// failures are only logged
func (l *preloadListeners) start(name string) {
	for _, node := range l.nodes {
		go l.request(node, name)
	}
}

func (l *preloadListeners) request(node string, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	u := strings.TrimRight(node, "/") + resolvePath + "?" + url.Values{
		"arg":    []string{name},
		"stream": []string{"false"},
	}.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if nil != err {
		l.log.Warnf("listen request: %s  error: %s", node, err)
		return
	}

	response, err := l.client.Do(request)
	if nil != err {
		l.log.Debugf("listen request: %s  error: %s", node, err)
		return
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	l.log.Debugf("listen request: %s  name: %s  status: %d", node, name, response.StatusCode)
}
