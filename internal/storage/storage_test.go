package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eugenenazirov/bin-packer/internal/packing"
)

func sampleRequest() packing.RawRequest {
	return packing.RawRequest{
		Weights:     []json.Number{"4", "8", "5"},
		BinCapacity: "10",
		Objective:   "min_bins",
		ItemLabels:  []string{"a", "b", "c"},
	}
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func sequentialIDs() func() string {
	var n int
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("cfg-%d", n)
	}
}

func TestNewMemoryStorageStartsEmpty(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()

	got, err := store.ListConfigs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no configurations, got %d", len(got))
	}
}

func TestSaveConfigStoresCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage(WithClock(fixedClock()), WithIDGenerator(sequentialIDs()))
	req := sampleRequest()

	saved, err := store.SaveConfig("", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != "cfg-1" {
		t.Fatalf("expected ID cfg-1, got %s", saved.ID)
	}
	if saved.Name != "config_10_3" {
		t.Fatalf("expected derived name, got %s", saved.Name)
	}

	// ensure mutation safety
	req.Weights[0] = "999"
	saved.Request.ItemLabels[0] = "mutated"

	again, err := store.GetConfig("cfg-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Request.Weights[0] != "4" {
		t.Fatalf("expected stored weights to be isolated, got %v", again.Request.Weights)
	}
	if again.Request.ItemLabels[0] != "a" {
		t.Fatalf("expected stored labels to be isolated, got %v", again.Request.ItemLabels)
	}
}

func TestListConfigsKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage(WithIDGenerator(sequentialIDs()))
	for _, name := range []string{"first", "second", "third"} {
		if _, err := store.SaveConfig(name, sampleRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := store.ListConfigs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 configurations, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Name != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, got[i].Name)
		}
	}
}

func TestSaveConfigRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		req  packing.RawRequest
	}{
		{name: "", req: packing.RawRequest{BinCapacity: "10"}},
		{name: string(make([]byte, 200)), req: sampleRequest()},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			store := NewMemoryStorage()
			if _, err := store.SaveConfig(tc.name, tc.req); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGetConfigUnknownID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	if _, err := store.GetConfig("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			if _, err := store.SaveConfig(fmt.Sprintf("cfg %d", offset), sampleRequest()); err != nil {
				t.Errorf("SaveConfig failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.ListConfigs(); err != nil {
				t.Errorf("ListConfigs failed: %v", err)
			}
		}()
	}

	wg.Wait()

	got, err := store.ListConfigs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("expected 32 configurations, got %d", len(got))
	}
}
