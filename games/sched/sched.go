/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package sched provides cancellable deferred callbacks for game engines.
package sched

import (
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback, reporting whether it was still pending.
	Stop() bool
}

// Scheduler runs f once, after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Poster runs callbacks on a single event loop.
type Poster interface {
	Post(f func())
}

// Loop is a Scheduler whose callbacks are delivered through a Poster, so that
// they run on the same goroutine as every other mutation of the engine.
type Loop struct {
	p Poster
}

func NewLoop(p Poster) *Loop {
	return &Loop{p: p}
}

type loopTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

func (lt *loopTimer) Stop() bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.stopped {
		return false
	}
	lt.stopped = true

	return lt.t.Stop()
}

func (lt *loopTimer) live() bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	return !lt.stopped
}

func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	lt := &loopTimer{}

	lt.mu.Lock()
	lt.t = time.AfterFunc(d, func() {
		l.p.Post(func() {
			// Stop may have raced with delivery onto the loop.
			if lt.live() {
				f()
			}
		})
	})
	lt.mu.Unlock()

	return lt
}

// Manual is a Scheduler driven by explicit calls to Advance. It is not safe for
// concurrent use.
type Manual struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true

	return true
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.seq++
	t := &manualTask{at: m.now + d, seq: m.seq, f: f}
	m.tasks = append(m.tasks, t)

	return t
}

// Now reports the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending counts callbacks that are neither stopped nor fired.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}

	return n
}

// Advance moves virtual time forward by d, firing due callbacks in deadline
// order. Callbacks scheduled while advancing fire too if they fall due.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d

	for {
		next := m.nextDue(end)
		if next == nil {
			break
		}
		m.now = next.at
		next.fired = true
		next.f()
	}

	m.now = end
	m.compact()
}

func (m *Manual) nextDue(end time.Duration) *manualTask {
	var next *manualTask
	for _, t := range m.tasks {
		if t.stopped || t.fired || t.at > end {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}

	return next
}

func (m *Manual) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.tasks = live
}
