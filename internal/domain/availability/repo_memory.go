package availability

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is the document form of a complete scheduling dataset, used by
// the CLI and by tests.
type Snapshot struct {
	Providers    []ProviderRecord `yaml:"providers"`
	Examinations []Examination    `yaml:"examinations"`
	Bookings     []Booking        `yaml:"bookings"`
	Declines     []DeclineRecord  `yaml:"declines"`
}

// MemoryStore is an in-memory implementation of every repository the
// Service reads from. It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	providers    map[string]ProviderRecord
	examinations map[string]Examination
	bookings     []Booking
	declines     []DeclineRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		providers:    make(map[string]ProviderRecord),
		examinations: make(map[string]Examination),
	}
}

// LoadSnapshot reads a YAML snapshot from path into a new MemoryStore.
func LoadSnapshot(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data)
}

func ParseSnapshot(data []byte) (*MemoryStore, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s := NewMemoryStore()
	for _, p := range snap.Providers {
		if p.ID == "" {
			return nil, fmt.Errorf("decode snapshot: provider without id")
		}
		s.AddProvider(p)
	}
	for _, e := range snap.Examinations {
		if e.ID == "" {
			return nil, fmt.Errorf("decode snapshot: examination without id")
		}
		s.AddExamination(e)
	}
	for _, b := range snap.Bookings {
		s.AddBooking(b)
	}
	for _, d := range snap.Declines {
		s.AddDecline(d)
	}
	return s, nil
}

func (s *MemoryStore) AddProvider(p ProviderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
}

func (s *MemoryStore) AddExamination(e Examination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.examinations[e.ID] = e
}

func (s *MemoryStore) AddBooking(b Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Instant = b.Instant.UTC()
	s.bookings = append(s.bookings, b)
}

func (s *MemoryStore) AddDecline(d DeclineRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines = append(s.declines, d)
}

// ListProviders filters on type only; language and province matching is left
// to the Directory.
func (s *MemoryStore) ListProviders(_ context.Context, filter ProviderFilter) ([]ProviderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ProviderRecord
	for _, p := range s.providers {
		if pt, err := ParseProviderType(p.Type); err != nil || pt != filter.Type {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetExamination(_ context.Context, id string) (*Examination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.examinations[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &e, nil
}

func (s *MemoryStore) ListBookings(_ context.Context, providerIDs []string, from, to time.Time) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		ids[id] = struct{}{}
	}
	var out []Booking
	for _, b := range s.bookings {
		if _, ok := ids[b.ProviderID]; !ok {
			continue
		}
		if !b.Status.HoldsSlot() {
			continue
		}
		if b.Instant.Before(from) || !b.Instant.Before(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryStore) ListDeclines(_ context.Context, examinationID, claimantID string) ([]DeclineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeclineRecord
	for _, d := range s.declines {
		if d.ExaminationID == examinationID && d.ClaimantID == claimantID {
			out = append(out, d)
		}
	}
	return out, nil
}
