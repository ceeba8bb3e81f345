package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

const prefsKeyPrefix = "jobNotificationPreferences:"

// Notification copy, matching the app's locale.
const newJobTitle = "¡Nuevo empleo encontrado!"

// Service persists notification preferences and arranges periodic rechecks
// that emit one notification per newly detected job.
type Service struct {
	kv       store.KV
	detector *Detector
	notifier Notifier
	inbox    *Inbox
	sched    *Scheduler
}

// NewService wires the preference store, detector, notifier, inbox and
// scheduler together.
func NewService(kv store.KV, detector *Detector, notifier Notifier, inbox *Inbox, sched *Scheduler) *Service {
	return &Service{kv: kv, detector: detector, notifier: notifier, inbox: inbox, sched: sched}
}

func prefsKey(userID string) string {
	return prefsKeyPrefix + userID
}

// SavePreferences persists prefs, or clears them when prefs is nil.
// Clearing also cancels the user's scheduled recheck. Returns false on
// persistence failure rather than an error, so callers must check it.
func (s *Service) SavePreferences(ctx context.Context, userID string, prefs *model.NotificationPreferences) bool {
	if prefs == nil {
		if err := s.kv.Delete(ctx, prefsKey(userID)); err != nil {
			slog.Warn("clear notification preferences failed", "user", userID, "err", err)
			return false
		}
		s.sched.Cancel(userID)
		return true
	}

	raw, err := json.Marshal(prefs)
	if err != nil {
		slog.Warn("encode notification preferences failed", "user", userID, "err", err)
		return false
	}
	if err := s.kv.Set(ctx, prefsKey(userID), string(raw)); err != nil {
		slog.Warn("save notification preferences failed", "user", userID, "err", err)
		return false
	}
	return true
}

// GetPreferences returns the stored preferences, or nil when none are
// stored (notifications disabled).
func (s *Service) GetPreferences(ctx context.Context, userID string) (*model.NotificationPreferences, error) {
	raw, err := s.kv.Get(ctx, prefsKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prefs model.NotificationPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("decode notification preferences: %w", err)
	}
	return &prefs, nil
}

// ScheduleRecheck arranges the recurring background check for userID using
// prefs. Returns false when scheduling could not be confirmed.
func (s *Service) ScheduleRecheck(userID string, prefs *model.NotificationPreferences) bool {
	if prefs == nil {
		return false
	}
	query, filters := searchShape(prefs)
	err := s.sched.Schedule(userID, func() {
		s.runRecheck(context.Background(), userID, query, filters)
	})
	if err != nil {
		slog.Warn("schedule job recheck failed", "user", userID, "err", err)
		return false
	}
	return true
}

// runRecheck performs one detection cycle and emits one notification per
// new listing. Failures are logged and swallowed: this path runs without a
// user present to react.
func (s *Service) runRecheck(ctx context.Context, userID, query string, filters map[string]string) {
	fresh := s.detector.DetectNew(ctx, userID, query, filters)
	for _, job := range fresh {
		n := model.Notification{
			Title: newJobTitle,
			Body:  fmt.Sprintf("%s en %s", job.Title, job.Employer),
			JobID: job.ID,
		}
		if _, err := s.inbox.Add(ctx, userID, n); err != nil {
			slog.Warn("store notification failed", "user", userID, "jobId", job.ID, "err", err)
		}
		if err := s.notifier.Notify(ctx, userID, n); err != nil {
			slog.Warn("emit notification failed", "user", userID, "jobId", job.ID, "err", err)
		}
	}
}

// searchShape maps stored preferences onto the detector's query/filter
// shape. Location is folded into the free-text query the way the JSearch
// API expects ("react developer in bogotá"); the remaining fields map to
// JSearch filter parameters and are passed through verbatim.
func searchShape(prefs *model.NotificationPreferences) (string, map[string]string) {
	query := strings.TrimSpace(prefs.Keywords)
	if loc := strings.TrimSpace(prefs.Location); loc != "" {
		query = query + " in " + loc
	}

	filters := make(map[string]string)
	if v := strings.TrimSpace(prefs.EmploymentType); v != "" {
		filters["employment_types"] = v
	}
	if v := strings.TrimSpace(prefs.Experience); v != "" {
		filters["job_requirements"] = v
	}
	if v := strings.TrimSpace(prefs.Salary); v != "" {
		filters["min_salary"] = v
	}
	return query, filters
}
