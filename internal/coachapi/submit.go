package coachapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"podium/internal/logging"
	"podium/internal/services"
)

const (
	analyzePath = "/api/analyze"
	resultsPath = "/api/results"
)

type jobResponse struct {
	JobID string `json:"jobId"`
}

type statusResponse struct {
	Status       string          `json:"status"`
	Results      json.RawMessage `json:"results"`
	ErrorMessage *string         `json:"error_message"`
}

// Submit uploads media and waits for the analysis to finish. It returns the
// results of the first poll that reports status "done".
func (c *Client) Submit(ctx context.Context, media Media, meta Metadata) (*Result, error) {
	ctx = EnsureRequestID(ctx)
	job, err := c.StartJob(ctx, media, meta)
	if err != nil {
		return nil, err
	}
	return c.Await(ctx, job)
}

// StartJob performs the upload and returns a pending job. A zero-byte media
// is rejected before any network call.
func (c *Client) StartJob(ctx context.Context, media Media, meta Metadata) (*Job, error) {
	if media.Size == 0 {
		return nil, &services.EmptyRecordingError{Path: media.Name}
	}
	if meta.Preset == "" {
		meta.Preset = PresetGeneral
	}

	fields := map[string]string{"preset": string(meta.Preset)}
	if meta.DurationSeconds > 0 {
		fields["duration_seconds"] = formatSeconds(meta.DurationSeconds)
	}
	body, err := c.upload(ctx, analyzePath, "video", media, fields)
	if err != nil {
		return nil, err
	}

	var parsed jobResponse
	if err := json.Unmarshal(body, &parsed); err != nil || strings.TrimSpace(parsed.JobID) == "" {
		return nil, &services.SubmissionError{StatusCode: http.StatusOK, Body: fmt.Sprintf("%s (%s)", errMissingJobID, snippet(body))}
	}

	job := &Job{
		ID:           strings.TrimSpace(parsed.JobID),
		Preset:       meta.Preset,
		DurationHint: meta.DurationSeconds,
		State:        JobPending,
		SubmittedAt:  c.now(),
	}
	logging.WithContext(services.WithJobID(ctx, job.ID), c.logger).Info(
		"analysis job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String("preset", string(meta.Preset)),
		logging.Int64("clip_size_bytes", media.Size),
	)
	c.notify(job)
	return job, nil
}

// Await polls a pending job until it reaches a terminal state. Each attempt
// waits the poll interval, then issues one status request; the next wait
// starts only after that response is processed. Cancelling ctx stops the
// wait, moves the job to canceled, and returns ctx.Err().
func (c *Client) Await(ctx context.Context, job *Job) (*Result, error) {
	if job == nil {
		return nil, errors.New("coachapi: nil job")
	}
	if job.State.Terminal() {
		return nil, fmt.Errorf("coachapi: job %s already %s", job.ID, job.State)
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, c.logger)

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, c.cancel(job, err)
		}

		status, err := c.fetchStatus(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.cancel(job, ctx.Err())
			}
			_ = job.fail(JobError, err.Error(), c.now())
			job.Attempts = attempt
			c.notify(job)
			logging.ErrorWithContext(logger, "analysis poll failed", "job_poll_failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the backend is running and reachable"),
			)
			return nil, err
		}
		job.recordAttempt(attempt)

		switch status.Status {
		case "done":
			result, err := decodeResult(status.Results)
			if err != nil {
				wrapped := services.Wrap(services.ErrBackend, "coachapi", "poll", "decode results", err)
				_ = job.fail(JobError, wrapped.Error(), c.now())
				c.notify(job)
				return nil, wrapped
			}
			_ = job.complete(result, c.now())
			c.notify(job)
			logger.Info("analysis job finished",
				logging.String(logging.FieldEventType, "job_done"),
				logging.Int("attempt", attempt),
			)
			return result, nil
		case "error":
			analysisErr := &services.AnalysisError{JobID: job.ID}
			if status.ErrorMessage != nil {
				analysisErr.Message = *status.ErrorMessage
				analysisErr.Reported = true
			}
			_ = job.fail(JobError, analysisErr.Error(), c.now())
			c.notify(job)
			logging.WarnWithContext(logger, "analysis job failed on server", "job_error",
				logging.String("error_message", analysisErr.Error()),
				logging.String(logging.FieldImpact, "no results for this clip"),
				logging.String(logging.FieldErrorHint, "re-record or try a different clip"),
			)
			return nil, analysisErr
		default:
			logger.Debug("analysis job pending",
				logging.Int("attempt", attempt),
				logging.String("status", status.Status),
			)
			c.notify(job)
		}
	}

	timeout := &services.TimeoutError{JobID: job.ID, Attempts: c.cfg.MaxAttempts, Waited: c.PollBudget()}
	_ = job.fail(JobTimedOut, timeout.Error(), c.now())
	c.notify(job)
	logging.WarnWithContext(logger, "analysis job timed out", "job_timeout",
		logging.Int("attempt", c.cfg.MaxAttempts),
		logging.String(logging.FieldImpact, "results were not retrieved"),
		logging.String(logging.FieldErrorHint, "try again; long clips may need a larger polling.max_attempts"),
	)
	return nil, timeout
}

func (c *Client) cancel(job *Job, err error) error {
	if job.fail(JobCanceled, err.Error(), c.now()) == nil {
		c.notify(job)
	}
	return err
}

func (c *Client) fetchStatus(ctx context.Context, jobID string) (statusResponse, error) {
	var status statusResponse
	req, err := c.newRequest(ctx, http.MethodGet, resultsPath+"/"+url.PathEscape(jobID), nil)
	if err != nil {
		return status, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, c.transportError(ctx, "poll", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, c.transportError(ctx, "poll", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return status, &services.PollError{JobID: jobID, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, services.Wrap(services.ErrBackend, "coachapi", "poll", "decode status", err)
	}
	return status, nil
}

// upload streams a multipart form with one file part and returns the 2xx
// response body. Non-2xx responses become SubmissionError.
func (c *Client) upload(ctx context.Context, path, fileField string, media Media, fields map[string]string) ([]byte, error) {
	reader, err := media.Open()
	if err != nil {
		return nil, fmt.Errorf("open clip: %w", err)
	}
	defer reader.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, fileField, media, reader, fields))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &services.SubmissionError{Body: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &services.SubmissionError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func writeForm(form *multipart.Writer, fileField string, media Media, content io.Reader, fields map[string]string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, media.Name))
	header.Set("Content-Type", media.ContentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("stream clip: %w", err)
	}
	for _, key := range []string{"preset", "duration_seconds"} {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := form.WriteField(key, value); err != nil {
			return err
		}
	}
	return form.Close()
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
