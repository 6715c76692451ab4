// Habistat - Housing Intelligence and Price Estimation
// Copyright 2026 The Habistat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/habistat/habistat

package cache

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func TestGetAdd(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Add("a", []byte("1"))
	v, ok := c.Get("a")
	if !ok || !bytes.Equal(v, []byte("1")) {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not hit")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Add("a", []byte("1"))
	c.Add("b", []byte("2"))
	c.Get("a") // a is now most recent
	c.Add("c", []byte("3"))

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived")
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRU(4, 10*time.Millisecond)
	c.Add("a", []byte("1"))
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
}

func TestUpdateExisting(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Add("a", []byte("1"))
	c.Add("a", []byte("2"))
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
	v, _ := c.Get("a")
	if !bytes.Equal(v, []byte("2")) {
		t.Errorf("value = %q", v)
	}
}

func TestRemoveAndPurge(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Add("a", []byte("1"))
	c.Add("b", []byte("2"))
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("removed key should miss")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("len after purge = %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewLRU(64, time.Minute)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%16)
				c.Add(key, []byte{byte(g)})
				c.Get(key)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
