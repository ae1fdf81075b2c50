package coachapi

import (
	"fmt"
	"time"
)

// JobState is the lifecycle position of an analysis job.
type JobState string

const (
	JobPending  JobState = "pending"
	JobDone     JobState = "done"
	JobError    JobState = "error"
	JobTimedOut JobState = "timed_out"
	JobCanceled JobState = "canceled"
)

// Terminal reports whether no further transition is allowed.
func (s JobState) Terminal() bool {
	return s != JobPending
}

// Job tracks one upload from submission to a terminal state. The ID is
// assigned once by the backend and never changes.
type Job struct {
	ID           string
	Preset       Preset
	DurationHint float64
	State        JobState
	Result       *Result
	ErrorMessage string
	Attempts     int
	SubmittedAt  time.Time
	FinishedAt   time.Time
}

// Snapshot returns a copy safe to hand to observers.
func (j *Job) Snapshot() Job {
	return *j
}

func (j *Job) recordAttempt(attempt int) {
	if j.State.Terminal() {
		return
	}
	j.Attempts = attempt
}

func (j *Job) complete(result *Result, now time.Time) error {
	if err := j.ensurePending(JobDone); err != nil {
		return err
	}
	j.State = JobDone
	j.Result = result
	j.FinishedAt = now
	return nil
}

func (j *Job) fail(state JobState, message string, now time.Time) error {
	if err := j.ensurePending(state); err != nil {
		return err
	}
	j.State = state
	j.ErrorMessage = message
	j.FinishedAt = now
	return nil
}

func (j *Job) ensurePending(next JobState) error {
	if j.State.Terminal() {
		return fmt.Errorf("job %s: invalid transition %s -> %s", j.ID, j.State, next)
	}
	return nil
}
