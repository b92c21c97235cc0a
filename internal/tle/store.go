package tle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one fetched catalog.
type Snapshot struct {
	Source    string
	FetchedAt time.Time
	Records   []*Record
}

// EpochRange returns the oldest and newest element epochs in the snapshot.
func (s *Snapshot) EpochRange() (min, max time.Time) {
	for i, r := range s.Records {
		e := r.EpochInstant()
		if i == 0 || e.Before(min) {
			min = e
		}
		if i == 0 || e.After(max) {
			max = e
		}
	}
	return min, max
}

// Store provides thread-safe access to the current catalog snapshot.
// Readers never block; refreshes are serialized.
type Store struct {
	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if none has been loaded.
func (s *Store) Get() *Snapshot {
	return s.snapshot.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// AgeSeconds returns the age of the current snapshot in seconds.
// Returns -1 if no snapshot is loaded.
func (s *Store) AgeSeconds() float64 {
	snap := s.snapshot.Load()
	if snap == nil {
		return -1
	}
	return time.Since(snap.FetchedAt).Seconds()
}

// Find looks a satellite up in the current snapshot. See Find.
func (s *Store) Find(query string) *Record {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil
	}
	return Find(snap.Records, query)
}

// Refresh fetches and parses the catalog and swaps it in. On error the
// previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context, f *Fetcher, opts ...Option) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := f.FetchRecords(ctx, opts...)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Source:    f.SourceURL(),
		FetchedAt: time.Now().UTC(),
		Records:   records,
	}
	s.snapshot.Store(snap)
	return snap, nil
}
