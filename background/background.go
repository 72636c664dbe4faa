// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - start and stop a set of long running routines
package background

import (
	"sync"
	"time"
)

// Process - type signature for background process
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type
type T struct {
	shutdown chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// Start - start up a set of background processes
func Start(processes Processes, args interface{}) *T {

	register := &T{
		shutdown: make(chan struct{}),
	}

	// start each background
	for _, p := range processes {
		register.wg.Add(1)
		go func(p Process) {
			defer register.wg.Done()
			p.Run(args, register.shutdown)
		}(p)
	}
	return register
}

// Stop - stop a set of background processes and wait for all of them
// to return
func (t *T) Stop() {
	if nil == t {
		return
	}
	t.once.Do(func() {
		close(t.shutdown)
	})
	t.wg.Wait()
}

// Periodic - run a function at a fixed interval until shutdown
//
// the function is first run immediately if runAtStart is set
type Periodic struct {
	Interval   time.Duration
	RunAtStart bool
	Action     func(shutdown <-chan struct{})
}

// Run - implement Process
func (p *Periodic) Run(args interface{}, shutdown <-chan struct{}) {
	if p.RunAtStart {
		p.Action(shutdown)
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			p.Action(shutdown)
		}
	}
}
