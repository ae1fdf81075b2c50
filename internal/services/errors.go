package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrBackend       = errors.New("backend error")
	ErrAnalysis      = errors.New("analysis error")
	ErrTimeout       = errors.New("timeout")
	ErrDevice        = errors.New("device error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// DefaultAnalysisFailure is reported when the backend flags a job as failed
// without an error_message.
const DefaultAnalysisFailure = "Analysis failed on server"

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// SubmissionError reports a non-2xx response to the initial upload.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	body := strings.TrimSpace(e.Body)
	if e.StatusCode == 0 {
		return fmt.Sprintf("Backend error: %s", body)
	}
	return fmt.Sprintf("Backend error %d: %s", e.StatusCode, body)
}

func (e *SubmissionError) Unwrap() error { return ErrBackend }

// PollError reports a non-2xx response to a job status poll. The poll loop
// aborts on the first one.
type PollError struct {
	JobID      string
	StatusCode int
	Body       string
}

func (e *PollError) Error() string {
	return fmt.Sprintf("Poll failed (%d)", e.StatusCode)
}

func (e *PollError) Unwrap() error { return ErrBackend }

// AnalysisError reports a job the backend marked with status "error".
// Reported is set when the response carried an error_message field, even an
// empty one; only a missing or null field falls back to
// DefaultAnalysisFailure.
type AnalysisError struct {
	JobID    string
	Message  string
	Reported bool
}

func (e *AnalysisError) Error() string {
	if e.Reported {
		return e.Message
	}
	return DefaultAnalysisFailure
}

func (e *AnalysisError) Unwrap() error { return ErrAnalysis }

// TimeoutError reports an exhausted poll budget.
type TimeoutError struct {
	JobID    string
	Attempts int
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Analysis timed out after %s.", describeWait(e.Waited))
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// CameraAccessError reports a capture device that could not be acquired.
type CameraAccessError struct {
	Device string
	Err    error
}

func (e *CameraAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Could not access camera %s", e.Device)
	}
	return fmt.Sprintf("Could not access camera %s: %v", e.Device, e.Err)
}

func (e *CameraAccessError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDevice}
	}
	return []error{ErrDevice, e.Err}
}

// EmptyRecordingError reports a clip that captured zero bytes.
type EmptyRecordingError struct {
	Path string
}

func (e *EmptyRecordingError) Error() string {
	return "Recording was too short; no audio was captured. Try again and speak for at least 2 seconds."
}

func (e *EmptyRecordingError) Unwrap() error { return ErrValidation }

// UserMessage converts an error into the single line shown to the user. The
// typed failures above already carry user-facing text; anything else falls
// back to the error string or a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}
	var (
		submission *SubmissionError
		poll       *PollError
		analysis   *AnalysisError
		timeout    *TimeoutError
		camera     *CameraAccessError
		empty      *EmptyRecordingError
	)
	switch {
	case errors.As(err, &submission):
		return submission.Error()
	case errors.As(err, &poll):
		return poll.Error()
	case errors.As(err, &analysis):
		return analysis.Error()
	case errors.As(err, &timeout):
		return timeout.Error()
	case errors.As(err, &camera):
		return camera.Error()
	case errors.As(err, &empty):
		return empty.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Something went wrong"
}

func describeWait(d time.Duration) string {
	if d <= 0 {
		return "the polling budget"
	}
	if d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.Round(time.Second).String()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
