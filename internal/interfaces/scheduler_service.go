package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based scheduling
type SchedulerService interface {
	// RegisterJob registers a job; must be called before Start
	RegisterJob(name string, schedule string, handler func() error) error

	// Start begins running registered jobs on their schedules
	Start() error

	// Stop halts the scheduler
	Stop() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}
