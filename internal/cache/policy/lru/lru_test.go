package lru

import (
	"fmt"
	"testing"
)

func TestPolicy_GetSet(t *testing.T) {
	p, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Add("key", []byte("value"))

	got, ok := p.Get("key")
	if !ok {
		t.Fatal("Get() = miss, want hit")
	}
	if string(got) != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestPolicy_EvictsLeastRecentlyUsed(t *testing.T) {
	p, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Add("a", []byte("1"))
	p.Add("b", []byte("2"))

	// Touch "a" so "b" becomes the eviction candidate.
	p.Get("a")

	if evicted := p.Add("c", []byte("3")); !evicted {
		t.Error("Add() beyond capacity reported no eviction")
	}

	if _, ok := p.Get("b"); ok {
		t.Error("least recently used entry was not evicted")
	}
	if _, ok := p.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := p.Get("c"); !ok {
		t.Error("newly added entry missing")
	}
}

func TestPolicy_ContainsDoesNotTouchRecency(t *testing.T) {
	p, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Add("a", []byte("1"))
	p.Add("b", []byte("2"))

	if !p.Contains("a") {
		t.Error("Contains() = false for present key")
	}
	if p.Contains("missing") {
		t.Error("Contains() = true for absent key")
	}

	// Contains must not refresh "a"; it stays the eviction candidate.
	p.Add("c", []byte("3"))
	if p.Contains("a") {
		t.Error("Contains() marked the key recently used; it survived eviction")
	}
}

func TestPolicy_Remove(t *testing.T) {
	p, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Add("key", []byte("value"))

	if removed := p.Remove("key"); !removed {
		t.Error("Remove() = false, want true")
	}
	if removed := p.Remove("key"); removed {
		t.Error("Remove() of absent key = true, want false")
	}
	if _, ok := p.Get("key"); ok {
		t.Error("Get() after Remove() = hit, want miss")
	}
}

func TestPolicy_Purge(t *testing.T) {
	p, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		p.Add(fmt.Sprintf("key%d", i), []byte("value"))
	}
	p.Purge()

	if p.Len() != 0 {
		t.Errorf("Len() after Purge() = %d, want 0", p.Len())
	}
}

func TestPolicy_LenCap(t *testing.T) {
	p, err := New(8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.Add("key", []byte("value"))

	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
	if p.Cap() != 8 {
		t.Errorf("Cap() = %d, want 8", p.Cap())
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should return error")
	}
}
