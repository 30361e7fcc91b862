// Package scheduler runs registered jobs on cron schedules.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService. Schedules use the six-field cron form
// with a leading seconds column.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	jobMu   sync.Mutex // Protects jobs map
	jobs    map[string]*jobEntry
	running bool
}

// Compile-time assertion
var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob registers a job with the scheduler
func (s *Service) RegisterJob(name string, schedule string, handler func() error) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// Start begins running registered jobs on their schedules
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs to finish
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Jobs did not finish within stop timeout")
	}
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// GetJobStatus returns the status of a specific job
func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	// Next run time comes from the live cron entry, not the stored job
	var nextRun *time.Time
	for _, cronEntry := range s.cron.Entries() {
		if cronEntry.ID == entry.cronID {
			next := cronEntry.Next
			nextRun = &next
			break
		}
	}

	return &interfaces.JobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		LastRun:   entry.lastRun,
		NextRun:   nextRun,
		IsRunning: entry.isRunning,
		LastError: entry.lastError,
	}, nil
}

// GetAllJobStatuses returns all job statuses
func (s *Service) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	statuses := make(map[string]*interfaces.JobStatus)
	for _, name := range names {
		status, err := s.GetJobStatus(name)
		if err == nil {
			statuses[name] = status
		}
	}

	return statuses
}

// executeJob wraps job execution with panic recovery, overlap skipping and
// status tracking.
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Info().Str("job_name", name).Msg("Job still running, skipping this cycle")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().Str("job_name", name).Msg("Job execution started")

	err := handler()

	completionTime := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Job execution failed")
	} else {
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("Job execution completed")
	}
}
