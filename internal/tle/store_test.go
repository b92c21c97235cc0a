package tle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestStoreRefresh(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(block(landsatName, landsatLine1, landsatLine2) + "\n" + block(issName, issLine1, issLine2)))
	}))
	defer server.Close()

	store := NewStore()
	if store.Get() != nil || store.AgeSeconds() != -1 {
		t.Fatal("new store should be empty")
	}
	if store.Find("25544") != nil {
		t.Fatal("empty store should find nothing")
	}

	fetcher := NewFetcher(server.URL, testLogger)
	snap, err := store.Refresh(context.Background(), fetcher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Records) != 2 || snap.Source != server.URL {
		t.Fatalf("unexpected snapshot: %d records from %q", len(snap.Records), snap.Source)
	}
	if store.Find("LANDSAT 8") == nil {
		t.Error("LANDSAT 8 not found after refresh")
	}
	if age := store.AgeSeconds(); age < 0 || age > 60 {
		t.Errorf("AgeSeconds() = %f", age)
	}

	min, max := snap.EpochRange()
	if d := min.Sub(time.Date(2020, 2, 15, 1, 38, 15, 389088000, time.UTC)); d.Abs() > time.Microsecond {
		t.Errorf("epoch range min = %s", min)
	}
	if want := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC); !max.Equal(want) {
		t.Errorf("epoch range max = %s, want %s", max, want)
	}

	fail.Store(true)
	if _, err := store.Refresh(context.Background(), fetcher); err == nil {
		t.Fatal("expected error from failing source")
	}
	if store.Get() != snap {
		t.Error("failed refresh replaced the snapshot")
	}
}
