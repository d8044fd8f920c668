package service

import (
	"testing"
	"time"
)

func TestRateLimiter_SuppressesRepeatWithinWindow(t *testing.T) {
	l := NewRateLimiter(time.Hour)

	if l.ShouldSuppress("1.2.3.4", "abcd1234") {
		t.Fatal("first check should not suppress")
	}
	if !l.ShouldSuppress("1.2.3.4", "abcd1234") {
		t.Fatal("repeat within window should suppress")
	}
}

func TestRateLimiter_AllowsAfterWindowElapses(t *testing.T) {
	l := NewRateLimiter(time.Hour)
	now := time.Now()
	l.now = func() time.Time { return now }

	if l.ShouldSuppress("1.2.3.4", "abcd1234") {
		t.Fatal("first check should not suppress")
	}

	now = now.Add(61 * time.Minute)
	if l.ShouldSuppress("1.2.3.4", "abcd1234") {
		t.Fatal("check after window should not suppress")
	}
}

func TestRateLimiter_KeyedPerSourceAndCode(t *testing.T) {
	l := NewRateLimiter(time.Hour)

	if l.ShouldSuppress("1.2.3.4", "abcd1234") {
		t.Fatal("first check should not suppress")
	}
	if l.ShouldSuppress("5.6.7.8", "abcd1234") {
		t.Fatal("different source should not be suppressed")
	}
	if l.ShouldSuppress("1.2.3.4", "zzzz9999") {
		t.Fatal("different code should not be suppressed")
	}
}

func TestRateLimiter_SweepsExpiredEntries(t *testing.T) {
	l := NewRateLimiter(time.Hour)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.ShouldSuppress("1.2.3.4", "abcd1234")
	l.ShouldSuppress("5.6.7.8", "abcd1234")
	if len(l.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l.entries))
	}

	now = now.Add(2 * time.Hour)
	l.ShouldSuppress("9.9.9.9", "abcd1234")
	if len(l.entries) != 1 {
		t.Fatalf("expected expired entries to be swept, got %d", len(l.entries))
	}
}
