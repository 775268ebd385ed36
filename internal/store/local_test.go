package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, KeyCurrent, []byte(`{"status":"full_staff"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, KeyCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"status":"full_staff"}` {
		t.Errorf("got %s", got)
	}
	if err := s.Put(ctx, KeyCurrent, []byte(`{"status":"half_staff"}`)); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, KeyCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"status":"half_staff"}` {
		t.Errorf("after overwrite got %s", got)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Get(context.Background(), "current.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreList(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{
		KeyCurrent,
		KeyIndex,
		ProclamationKey(2025, "2025-01-x"),
		ProclamationKey(2024, "2024-12-y"),
	} {
		if err := s.Put(ctx, key, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := s.List(ctx, PrefixProclamations)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"proclamations/2024/2024-12-y.json",
		"proclamations/2025/2025-01-x.json",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "../escape.json", "/abs.json", "a/../../b.json", "trailing/"} {
		if err := s.Put(ctx, key, []byte("{}")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
		if _, err := s.Get(ctx, key); err == nil {
			t.Errorf("Get(%q) succeeded, want error", key)
		}
	}
}

func TestLocalStoreHealthCheck(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check failed: %v", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Get(ctx, KeyCurrent); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Put(ctx, ProclamationKey(2025, "a"), []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, KeyIndex, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	keys, err := s.List(ctx, PrefixProclamations)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "proclamations/2025/a.json" {
		t.Errorf("keys = %v", keys)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestProclamationKey(t *testing.T) {
	got := ProclamationKey(2025, "2025-01-carter-death")
	if got != "proclamations/2025/2025-01-carter-death.json" {
		t.Errorf("key = %q", got)
	}
}
