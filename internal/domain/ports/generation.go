package ports

import "context"

// JobState is the status string reported by the generation service
type JobState string

const (
	JobPending JobState = "PENDING"
	JobStarted JobState = "STARTED"
	JobSuccess JobState = "SUCCESS"
	JobFailure JobState = "FAILURE"
)

// JobStatus is one status report of a generation job
type JobStatus struct {
	State  JobState `json:"status"`
	Result string   `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Terminal reports whether polling can stop
func (s JobStatus) Terminal() bool {
	return s.State == JobSuccess || s.State == JobFailure
}

// JobStatusSource reports the state of a generation job
type JobStatusSource interface {
	Status(ctx context.Context, jobID string) (JobStatus, error)
}
