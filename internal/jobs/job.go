// Package jobs runs lifecycle work one unit at a time and records each unit
// in a sqlite run history.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobType identifies the kind of work a job performs.
type JobType string

const (
	// JobTypeProjectLifecycle syncs and builds one project.
	JobTypeProjectLifecycle JobType = "project_lifecycle"
)

// Trigger records why a job was submitted.
type Trigger string

const (
	TriggerPoll   Trigger = "poll"
	TriggerReload Trigger = "reload"
	TriggerManual Trigger = "manual"
)

// Job is one unit of lifecycle work for a single project.
type Job struct {
	ID            string     `json:"id"`
	Type          JobType    `json:"type"`
	Project       string     `json:"project"`
	Trigger       Trigger    `json:"trigger"`
	Status        JobStatus  `json:"status"`
	ProjectStatus string     `json:"projectStatus,omitempty"` // project status when the job ended
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	Detail        string     `json:"detail,omitempty"` // JSON-encoded handler detail
}

// NewJob creates a queued job for project.
func NewJob(jobType JobType, project string, trigger Trigger) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Project:   project,
		Trigger:   trigger,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}

// MarkStarted transitions the job to running state.
func (j *Job) MarkStarted() {
	now := time.Now().UTC()
	j.Status = JobRunning
	j.StartedAt = &now
}

// MarkCompleted records the resulting project status and optional detail.
func (j *Job) MarkCompleted(projectStatus string, detail any) error {
	now := time.Now().UTC()
	j.Status = JobCompleted
	j.CompletedAt = &now
	j.ProjectStatus = projectStatus
	return j.SetDetail(detail)
}

// SetDetail stores detail as JSON. A nil detail leaves the field unchanged.
func (j *Job) SetDetail(detail any) error {
	if detail == nil {
		return nil
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	j.Detail = string(data)
	return nil
}

// MarkFailed transitions the job to failed state with error.
func (j *Job) MarkFailed(projectStatus string, err error) {
	now := time.Now().UTC()
	j.Status = JobFailed
	j.CompletedAt = &now
	j.ProjectStatus = projectStatus
	if err != nil {
		j.Error = err.Error()
	}
}

// MarkCancelled transitions the job to cancelled state.
func (j *Job) MarkCancelled(reason string) {
	now := time.Now().UTC()
	j.Status = JobCancelled
	j.CompletedAt = &now
	j.Error = reason
}

// Duration returns how long the job took (or has been running).
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	endTime := time.Now().UTC()
	if j.CompletedAt != nil {
		endTime = *j.CompletedAt
	}
	return endTime.Sub(*j.StartedAt)
}

// ListJobsOptions contains options for listing jobs.
type ListJobsOptions struct {
	Project string
	Status  []JobStatus
	Limit   int
	Offset  int
}

// ListJobsResponse contains the result of listing jobs.
type ListJobsResponse struct {
	Jobs       []*Job `json:"jobs"`
	TotalCount int    `json:"totalCount"`
}
