package transport

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepAliveConfigDefaults(t *testing.T) {
	config := DefaultKeepAliveConfig()
	want := 2*time.Second*3 + time.Second
	if got := config.DetectionDelay(); got != want {
		t.Errorf("DetectionDelay = %v, want %v", got, want)
	}

	filled := KeepAliveConfig{PingInterval: time.Second}.withDefaults()
	if filled.PongTimeout != DefaultPongTimeout || filled.MaxMissedPongs != DefaultMaxMissedPongs {
		t.Errorf("defaults not applied: %+v", filled)
	}
	if filled.PingInterval != time.Second {
		t.Errorf("explicit interval overwritten: %v", filled.PingInterval)
	}
}

func TestKeepAliveAnsweredPingsDoNotTimeout(t *testing.T) {
	var ka *KeepAlive
	var timedOut atomic.Bool
	ka = NewKeepAlive(KeepAliveConfig{
		PingInterval:   10 * time.Millisecond,
		PongTimeout:    5 * time.Millisecond,
		MaxMissedPongs: 2,
	}, func(seq uint32) error {
		go ka.PongReceived(seq)
		return nil
	}, func() { timedOut.Store(true) })

	ka.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	ka.Stop()

	if timedOut.Load() {
		t.Error("timeout reported for an answering peer")
	}
	st := ka.Stats()
	if st.Sequence < 3 {
		t.Errorf("expected several pings, got %d", st.Sequence)
	}
	if st.MissedPongs != 0 {
		t.Errorf("MissedPongs = %d, want 0", st.MissedPongs)
	}
	if ka.IsRunning() {
		t.Error("still running after Stop")
	}
}

func TestKeepAliveTimeout(t *testing.T) {
	timeout := make(chan struct{})
	ka := NewKeepAlive(KeepAliveConfig{
		PingInterval:   10 * time.Millisecond,
		PongTimeout:    5 * time.Millisecond,
		MaxMissedPongs: 2,
	}, func(uint32) error { return nil }, func() { close(timeout) })

	ka.Start(context.Background())
	select {
	case <-timeout:
	case <-time.After(time.Second):
		t.Fatal("timeout not reported")
	}
	if ka.IsRunning() {
		t.Error("still running after timeout")
	}
	ka.Stop()
}

func TestKeepAliveContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var pings atomic.Int32
	ka := NewKeepAlive(KeepAliveConfig{PingInterval: time.Hour}, func(uint32) error {
		pings.Add(1)
		return nil
	}, nil)

	ka.Start(ctx)
	ka.Start(ctx)
	cancel()
	ka.Stop()

	if pings.Load() != 1 {
		t.Errorf("pings = %d, want 1", pings.Load())
	}
}

func TestKeepAliveIgnoresStalePong(t *testing.T) {
	ka := NewKeepAlive(KeepAliveConfig{}, func(uint32) error { return nil }, nil)
	ka.ping()
	ka.ping()
	ka.pong(1)
	if !ka.pending {
		t.Error("stale pong cleared the pending ping")
	}
	ka.pong(2)
	if ka.pending {
		t.Error("current pong did not clear the pending ping")
	}
}
