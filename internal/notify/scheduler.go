package notify

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and manages one recurring recheck entry per
// user. Re-scheduling a user replaces the previous entry; cancelling stops
// future rechecks without touching already emitted notifications.
type Scheduler struct {
	cron *cron.Cron
	spec string // cron spec, e.g. "@every 1h"

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a Scheduler that fires every intervalHours hours.
func NewScheduler(intervalHours int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		spec:    fmt.Sprintf("@every %dh", intervalHours),
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins dispatching scheduled entries.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// Schedule registers run to fire on every tick for userID, replacing any
// previous entry. Also runs once immediately so the first check does not
// wait a full interval.
func (s *Scheduler) Schedule(userID string, run func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[userID]; ok {
		s.cron.Remove(old)
	}

	id, err := s.cron.AddFunc(s.spec, run)
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.entries[userID] = id

	go run()
	return nil
}

// Cancel removes the user's recheck entry, if any.
func (s *Scheduler) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[userID]; ok {
		s.cron.Remove(id)
		delete(s.entries, userID)
	}
}
