// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"sync"
	"sync/atomic"
)

// throttle limits the number of goroutines doing work concurrently
// and remembers the first error any of them reports.
type throttle struct {
	Max       int
	wg        sync.WaitGroup
	ch        chan bool
	err       atomic.Value
	setupOnce sync.Once
	errorOnce sync.Once
}

// Acquire blocks until one of Max slots is available.
func (t *throttle) Acquire() {
	t.setupOnce.Do(func() {
		if t.Max < 1 {
			t.Max = 1
		}
		t.ch = make(chan bool, t.Max)
	})
	t.wg.Add(1)
	t.ch <- true
}

func (t *throttle) Release() {
	t.wg.Done()
	<-t.ch
}

// Go runs f in a new goroutine once a slot is available. If an
// error has already been reported, f is not run and that error is
// returned.
func (t *throttle) Go(f func() error) error {
	t.Acquire()
	if err := t.Err(); err != nil {
		t.Release()
		return err
	}
	go func() {
		defer t.Release()
		t.Report(f())
	}()
	return nil
}

func (t *throttle) Report(err error) {
	if err != nil {
		t.errorOnce.Do(func() { t.err.Store(err) })
	}
}

func (t *throttle) Err() error {
	err, _ := t.err.Load().(error)
	return err
}

// Wait waits for all acquired slots to be released, and returns the
// first reported error, if any.
func (t *throttle) Wait() error {
	t.wg.Wait()
	return t.Err()
}
