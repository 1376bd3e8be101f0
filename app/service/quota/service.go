package quota

import (
	"log/slog"
	"path/filepath"
	"portfolio/app/config"
	"sync"
	"time"

	"github.com/samber/do"
)

const dayKeyLayout = "2006-01-02"

// Service is the per-caller daily usage governor. Corrupt or stale persisted
// state self-heals by resetting to a fresh day instead of surfacing errors.
type Service struct {
	mu    sync.Mutex
	limit int
	store Store
	clock func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	store, err := NewFileStore(filepath.Join("data", "usage.json"))
	if err != nil {
		return nil, err
	}

	return NewWithDeps(cfg.Quota.DailyLimit, store, time.Now), nil
}

func NewWithDeps(limit int, store Store, clock func() time.Time) *Service {
	return &Service{
		limit: limit,
		store: store,
		clock: clock,
	}
}

// Usage returns the caller's record for the current day, starting fresh when
// nothing is stored, the stored day differs from today, or the store is
// unreadable.
func (s *Service) Usage(key string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(key)
}

// RecordUsage increments the caller's count for today and persists it.
func (s *Service) RecordUsage(key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadAll()
	record := s.fresh(records[key])
	record.Count++
	records[key] = record

	if err := s.store.Save(records); err != nil {
		return record, err
	}

	return record, nil
}

func (s *Service) ReachedLimit(key string) bool {
	return s.Usage(key).Count >= s.limit
}

func (s *Service) Remaining(key string) int {
	remaining := s.limit - s.Usage(key).Count
	if remaining < 0 {
		return 0
	}

	return remaining
}

func (s *Service) Limit() int {
	return s.limit
}

// ResetTime is the next midnight in the governor's clock location.
func (s *Service) ResetTime() time.Time {
	now := s.clock()

	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

func (s *Service) load(key string) Record {
	return s.fresh(s.loadAll()[key])
}

func (s *Service) loadAll() map[string]Record {
	records, err := s.store.Load()
	if err != nil {
		slog.Warn("usage store unreadable, starting fresh", "error", err)
		return map[string]Record{}
	}

	return records
}

func (s *Service) fresh(record Record) Record {
	today := s.clock().Format(dayKeyLayout)
	if record.Date != today {
		return Record{Count: 0, Date: today}
	}

	return record
}
