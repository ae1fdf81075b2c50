package coachapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"podium/internal/services"
)

type pollScript struct {
	mu        sync.Mutex
	responses []string
	polls     int
	submits   int
	requestID []string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (s *pollScript) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			prev := s.maxFlight.Load()
			if current <= prev || s.maxFlight.CompareAndSwap(prev, current) {
				break
			}
		}

		s.mu.Lock()
		s.requestID = append(s.requestID, r.Header.Get(requestIDHeader))
		s.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/analyze":
			s.mu.Lock()
			s.submits++
			s.mu.Unlock()
			_, _ = io.WriteString(w, `{"jobId":"job-1"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/results/job-1":
			s.mu.Lock()
			idx := s.polls
			s.polls++
			resp := `{"status":"processing"}`
			if idx < len(s.responses) {
				resp = s.responses[idx]
			}
			s.mu.Unlock()
			_, _ = io.WriteString(w, resp)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (s *pollScript) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *pollScript) requestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestID...)
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithSleeper(func(time.Duration) {})}
	return NewClient(Config{BaseURL: url}, append(base, opts...)...)
}

func clip() Media {
	return BytesMedia("clip.webm", []byte("webm-bytes"))
}

func TestSubmitReturnsFirstDoneResults(t *testing.T) {
	script := &pollScript{responses: []string{
		`{"status":"pending"}`,
		`{"status":"processing"}`,
		`{"status":"done","results":{"transcript":"first","metrics":{"filler_word_count":2,"filler_words":{"um":2},"word_count":40}}}`,
		`{"status":"done","results":{"transcript":"second"}}`,
	}}
	server := httptest.NewServer(script.handler(t))
	defer server.Close()

	result, err := newTestClient(t, server.URL).Submit(context.Background(), clip(), Metadata{Preset: PresetPitch})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.Transcript != "first" {
		t.Fatalf("expected first done results, got %q", result.Transcript)
	}
	if result.Metrics.FillerWordCount != 2 || result.Metrics.FillerWords["um"] != 2 || result.Metrics.WordCount != 40 {
		t.Fatalf("unexpected metrics: %+v", result.Metrics)
	}
	if !strings.Contains(string(result.Raw), `"transcript":"first"`) {
		t.Fatalf("expected raw payload preserved, got %s", result.Raw)
	}
	if script.pollCount() != 3 {
		t.Fatalf("expected polling to stop at first done, got %d polls", script.pollCount())
	}
}

func TestSubmitErrorStatusMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"server message", `{"status":"error","error_message":"No speech detected"}`, "No speech detected"},
		{"fallback", `{"status":"error"}`, "Analysis failed on server"},
		{"null message", `{"status":"error","error_message":null}`, "Analysis failed on server"},
		{"empty message", `{"status":"error","error_message":""}`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			script := &pollScript{responses: []string{`{"status":"processing"}`, tc.body}}
			server := httptest.NewServer(script.handler(t))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Submit(context.Background(), clip(), Metadata{})
			var analysisErr *services.AnalysisError
			if !errors.As(err, &analysisErr) {
				t.Fatalf("expected AnalysisError, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("unexpected message %q want %q", err.Error(), tc.want)
			}
			if !errors.Is(err, services.ErrAnalysis) {
				t.Fatal("expected analysis marker")
			}
		})
	}
}

func TestSubmitTimesOutAfterBudget(t *testing.T) {
	script := &pollScript{}
	server := httptest.NewServer(script.handler(t))
	defer server.Close()

	var sleeps int
	client := NewClient(Config{BaseURL: server.URL}, WithSleeper(func(d time.Duration) {
		if d != 2*time.Second {
			t.Errorf("unexpected poll interval %s", d)
		}
		sleeps++
	}))

	done := make(chan error, 1)
	go func() {
		_, err := client.Submit(context.Background(), clip(), Metadata{})
		done <- err
	}()

	select {
	case err := <-done:
		var timeoutErr *services.TimeoutError
		if !errors.As(err, &timeoutErr) {
			t.Fatalf("expected TimeoutError, got %v", err)
		}
		if err.Error() != "Analysis timed out after 4 minutes." {
			t.Fatalf("unexpected timeout message %q", err.Error())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Submit did not return")
	}
	if script.pollCount() != 120 || sleeps != 120 {
		t.Fatalf("expected 120 polls and waits, got %d polls %d waits", script.pollCount(), sleeps)
	}
}

func TestPollsAreSequential(t *testing.T) {
	script := &pollScript{responses: []string{
		`{"status":"pending"}`, `{"status":"pending"}`, `{"status":"pending"}`,
		`{"status":"done","results":{}}`,
	}}
	var events []string
	var mu sync.Mutex
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	handler := script.handler(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			record("poll")
			time.Sleep(5 * time.Millisecond)
		}
		handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithSleeper(func(time.Duration) { record("wait") }))
	if _, err := client.Submit(context.Background(), clip(), Metadata{}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	want := "wait,poll,wait,poll,wait,poll,wait,poll"
	if got := strings.Join(events, ","); got != want {
		t.Fatalf("unexpected event order %s", got)
	}
	if script.maxFlight.Load() != 1 {
		t.Fatalf("expected at most one request in flight, saw %d", script.maxFlight.Load())
	}
}

func TestSubmitRejectsEmptyMediaBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Submit(context.Background(), BytesMedia("empty.webm", nil), Metadata{})
	var emptyErr *services.EmptyRecordingError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyRecordingError, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
}

func TestSubmitNon2xxIsSubmissionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, "file too large")
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Submit(context.Background(), clip(), Metadata{})
	var subErr *services.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.StatusCode != http.StatusRequestEntityTooLarge || err.Error() != "Backend error 413: file too large" {
		t.Fatalf("unexpected submission error %q", err.Error())
	}
}

func TestSnippetCutsOnRuneBoundary(t *testing.T) {
	short := "  file too large \n"
	if got := snippet([]byte(short)); got != "file too large" {
		t.Fatalf("expected short body verbatim, got %q", got)
	}

	// One ASCII byte shifts every three-byte rune across the limit.
	long := "x" + strings.Repeat("é€", errorSnippetLimit)
	got := snippet([]byte(long))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got[len(got)-8:])
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis marker, got suffix %q", got[len(got)-8:])
	}
	body := strings.TrimSuffix(got, "…")
	if len(body) > errorSnippetLimit || !strings.HasPrefix(long, body) {
		t.Fatalf("unexpected truncation length %d", len(body))
	}
}

func TestSubmitMissingJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Submit(context.Background(), clip(), Metadata{})
	var subErr *services.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
}

func TestPollNon2xxAbortsWithoutRetry(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = io.WriteString(w, `{"jobId":"job-1"}`)
			return
		}
		polls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var last Job
	client := newTestClient(t, server.URL, WithProgress(func(j Job) { last = j }))
	_, err := client.Submit(context.Background(), clip(), Metadata{})
	var pollErr *services.PollError
	if !errors.As(err, &pollErr) {
		t.Fatalf("expected PollError, got %v", err)
	}
	if err.Error() != "Poll failed (502)" {
		t.Fatalf("unexpected poll message %q", err.Error())
	}
	if polls.Load() != 1 {
		t.Fatalf("expected exactly one poll, got %d", polls.Load())
	}
	if last.State != JobError {
		t.Fatalf("expected job in error state, got %s", last.State)
	}
}

func TestCancelStopsPolling(t *testing.T) {
	script := &pollScript{}
	server := httptest.NewServer(script.handler(t))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var waits int
	var states []JobState
	client := NewClient(Config{BaseURL: server.URL},
		WithSleeper(func(time.Duration) {
			waits++
			if waits == 3 {
				cancel()
			}
		}),
		WithProgress(func(j Job) { states = append(states, j.State) }),
	)

	_, err := client.Submit(ctx, clip(), Metadata{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if script.pollCount() != 2 {
		t.Fatalf("expected no poll after cancel, got %d polls", script.pollCount())
	}
	if len(states) == 0 || states[len(states)-1] != JobCanceled {
		t.Fatalf("expected final canceled state, got %v", states)
	}
}

func TestUploadFormFields(t *testing.T) {
	tests := []struct {
		name         string
		meta         Metadata
		wantPreset   string
		wantDuration string
	}{
		{"with duration", Metadata{Preset: PresetKeynote, DurationSeconds: 60}, "keynote", "60"},
		{"without duration", Metadata{}, "general", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					_, _ = io.WriteString(w, `{"status":"done","results":{}}`)
					return
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("parse form: %v", err)
				}
				file, header, err := r.FormFile("video")
				if err != nil {
					t.Errorf("missing video part: %v", err)
				} else {
					data, _ := io.ReadAll(file)
					if string(data) != "webm-bytes" || header.Filename != "clip.webm" {
						t.Errorf("unexpected file part %q %q", header.Filename, data)
					}
					if ct := header.Header.Get("Content-Type"); ct != "video/webm" {
						t.Errorf("unexpected content type %q", ct)
					}
				}
				if got := r.FormValue("preset"); got != tc.wantPreset {
					t.Errorf("preset = %q want %q", got, tc.wantPreset)
				}
				_, hasDuration := r.MultipartForm.Value["duration_seconds"]
				if tc.wantDuration == "" && hasDuration {
					t.Errorf("expected duration_seconds omitted")
				}
				if tc.wantDuration != "" && r.FormValue("duration_seconds") != tc.wantDuration {
					t.Errorf("duration_seconds = %q want %q", r.FormValue("duration_seconds"), tc.wantDuration)
				}
				_, _ = io.WriteString(w, `{"jobId":"abc"}`)
			}))
			defer server.Close()

			if _, err := newTestClient(t, server.URL).Submit(context.Background(), clip(), tc.meta); err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
		})
	}
}

func TestSubmitSharesRequestID(t *testing.T) {
	script := &pollScript{responses: []string{`{"status":"done","results":{}}`}}
	server := httptest.NewServer(script.handler(t))
	defer server.Close()

	ctx := services.WithRequestID(context.Background(), "req-fixed")
	if _, err := newTestClient(t, server.URL).Submit(ctx, clip(), Metadata{}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	ids := script.requestIDs()
	if len(ids) != 2 {
		t.Fatalf("expected two requests, got %d", len(ids))
	}
	for _, id := range ids {
		if id != "req-fixed" {
			t.Fatalf("unexpected request id %q", id)
		}
	}
}

func TestJobTerminalStatesAreFinal(t *testing.T) {
	now := time.Unix(0, 0)
	job := &Job{ID: "j", State: JobPending}
	if err := job.complete(&Result{Transcript: "x"}, now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	for _, state := range []JobState{JobError, JobTimedOut, JobCanceled} {
		if err := job.fail(state, "late", now); err == nil {
			t.Fatalf("expected %s transition from done to be rejected", state)
		}
	}
	if err := job.complete(&Result{Transcript: "y"}, now); err == nil {
		t.Fatal("expected second completion to be rejected")
	}
	if job.Result.Transcript != "x" || job.ErrorMessage != "" {
		t.Fatalf("terminal job mutated: %+v", job)
	}
	job.recordAttempt(9)
	if job.Attempts != 0 {
		t.Fatalf("expected attempts frozen after terminal state, got %d", job.Attempts)
	}
}

func TestAwaitRejectsTerminalJob(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Await(context.Background(), &Job{ID: "x", State: JobDone})
	if err == nil || !strings.Contains(err.Error(), "already done") {
		t.Fatalf("expected terminal job error, got %v", err)
	}
}

func TestPollBudget(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost", PollInterval: 500 * time.Millisecond, MaxAttempts: 10})
	if got := client.PollBudget(); got != 5*time.Second {
		t.Fatalf("unexpected budget %s", got)
	}
	if client.BaseURL() != "http://localhost" {
		t.Fatalf("unexpected base url %q", client.BaseURL())
	}
}
