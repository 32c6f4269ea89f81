package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// ErrNotFound means the store has no report matching the query.
var ErrNotFound = errors.New("no weather report for location")

// MemoryStore keeps the scheduler's reports in process memory, oldest first,
// one slice per Location.Key. Reports are assumed to arrive in FetchedAt
// order, which the single scheduler goroutine guarantees.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]weather.Report

	limit  int           // reports kept per location; <= 0 keeps all
	maxAge time.Duration // <= 0 keeps all
	now    func() time.Time
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. limit caps the reports kept per
// location and maxAge drops reports fetched longer ago; zero disables either.
func NewMemoryStore(limit int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		reports: make(map[string][]weather.Report),
		limit:   limit,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// SaveReport appends report under its location and prunes that location.
func (s *MemoryStore) SaveReport(report weather.Report) {
	key := report.Location.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[key] = s.prune(append(s.reports[key], report))
}

// prune applies the count and age limits. The newest report is never dropped,
// so GetLatest keeps answering after a long provider outage.
func (s *MemoryStore) prune(list []weather.Report) []weather.Report {
	if s.limit > 0 && len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		first := sort.Search(len(list)-1, func(i int) bool {
			return !list[i].FetchedAt.Before(cutoff)
		})
		list = list[first:]
	}
	return list
}

// GetLatest returns the last report saved for loc.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.reports[loc.Key()]
	if len(list) == 0 {
		return weather.Report{}, ErrNotFound
	}
	return list[len(list)-1], nil
}

// GetRange returns the reports for loc with from <= FetchedAt <= to. The
// result is a copy.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.reports[loc.Key()]
	lo := sort.Search(len(list), func(i int) bool {
		return !list[i].FetchedAt.Before(from)
	})
	hi := sort.Search(len(list), func(i int) bool {
		return list[i].FetchedAt.After(to)
	})
	if lo >= hi {
		return nil, ErrNotFound
	}

	out := make([]weather.Report, hi-lo)
	copy(out, list[lo:hi])
	return out, nil
}
