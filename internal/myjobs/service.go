// Package myjobs persists the per-user saved and applied job lists.
package myjobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/store"
)

// List selects which of the two per-user lists an operation targets.
type List string

const (
	ListSaved   List = "saved"
	ListApplied List = "applied"
)

// ErrDuplicate is returned when a job with the same ID is already in the
// target list. The upstream API does not guarantee unique IDs across
// pages, so the lists deduplicate defensively.
var ErrDuplicate = errors.New("myjobs: job already in list")

// ParseList validates a raw list name.
func ParseList(s string) (List, error) {
	switch List(s) {
	case ListSaved, ListApplied:
		return List(s), nil
	}
	return "", fmt.Errorf("unknown job list %q", s)
}

// Service stores saved/applied job lists in the key/value store, keyed per
// user and list.
type Service struct {
	kv store.KV
}

// NewService returns a Service persisting in kv.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv}
}

func listKey(userID string, list List) string {
	return fmt.Sprintf("%sJobs:%s", list, userID)
}

func (s *Service) load(ctx context.Context, userID string, list List) ([]model.JobListing, error) {
	raw, err := s.kv.Get(ctx, listKey(userID, list))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var jobs []model.JobListing
	if err := json.Unmarshal([]byte(raw), &jobs); err != nil {
		return nil, fmt.Errorf("decode %s jobs: %w", list, err)
	}
	return jobs, nil
}

func (s *Service) save(ctx context.Context, userID string, list List, jobs []model.JobListing) error {
	raw, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode %s jobs: %w", list, err)
	}
	return s.kv.Set(ctx, listKey(userID, list), string(raw))
}

// Add appends a job to the list, rejecting duplicates by job ID.
func (s *Service) Add(ctx context.Context, userID string, list List, job model.JobListing) error {
	jobs, err := s.load(ctx, userID, list)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if j.ID == job.ID {
			return ErrDuplicate
		}
	}
	return s.save(ctx, userID, list, append(jobs, job))
}

// Remove deletes the job with jobID from the list. Unknown IDs are a no-op.
func (s *Service) Remove(ctx context.Context, userID string, list List, jobID string) error {
	jobs, err := s.load(ctx, userID, list)
	if err != nil {
		return err
	}
	kept := jobs[:0]
	for _, j := range jobs {
		if j.ID != jobID {
			kept = append(kept, j)
		}
	}
	return s.save(ctx, userID, list, kept)
}

// Jobs returns the list contents in insertion order.
func (s *Service) Jobs(ctx context.Context, userID string, list List) ([]model.JobListing, error) {
	return s.load(ctx, userID, list)
}
