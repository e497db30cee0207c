package sched

import (
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := &Manual{}
	var got []string

	m.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	m.AfterFunc(time.Second, func() { got = append(got, "a") })
	m.AfterFunc(time.Second, func() { got = append(got, "b") })

	m.Advance(2 * time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Expected [a b], got %v", got)
	}
	if m.Pending() != 1 {
		t.Errorf("Expected 1 pending, got %d", m.Pending())
	}

	m.Advance(time.Second)
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("Expected [a b c], got %v", got)
	}
	if m.Now() != 3*time.Second {
		t.Errorf("Expected now 3s, got %s", m.Now())
	}
}

func TestManualChainedCallbacks(t *testing.T) {
	m := &Manual{}
	fired := 0

	m.AfterFunc(time.Second, func() {
		fired++
		m.AfterFunc(time.Second, func() { fired++ })
	})

	m.Advance(2 * time.Second)
	if fired != 2 {
		t.Errorf("Expected both callbacks to fire, got %d", fired)
	}
}

func TestManualStop(t *testing.T) {
	m := &Manual{}
	fired := false

	tm := m.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Error("Expected Stop to report a pending callback")
	}
	if tm.Stop() {
		t.Error("Expected second Stop to report false")
	}

	m.Advance(time.Minute)
	if fired {
		t.Error("stopped callback fired")
	}
}

type chanPoster chan func()

func (c chanPoster) Post(f func()) { c <- f }

func TestLoopDeliversThroughPoster(t *testing.T) {
	posted := make(chanPoster, 1)
	l := NewLoop(posted)

	ran := false
	l.AfterFunc(time.Millisecond, func() { ran = true })

	select {
	case f := <-posted:
		f()
	case <-time.After(time.Second):
		t.Fatal("callback never posted")
	}
	if !ran {
		t.Error("Expected callback to run on the loop")
	}
}

func TestLoopStopAfterPost(t *testing.T) {
	posted := make(chanPoster, 1)
	l := NewLoop(posted)

	ran := false
	tm := l.AfterFunc(time.Millisecond, func() { ran = true })

	var f func()
	select {
	case f = <-posted:
	case <-time.After(time.Second):
		t.Fatal("callback never posted")
	}

	tm.Stop()
	f()
	if ran {
		t.Error("callback stopped after posting still ran")
	}
}
