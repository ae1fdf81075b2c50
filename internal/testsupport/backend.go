package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Backend is a scripted fake of the analysis service. Each status poll pops
// the next entry of Polls; the last entry repeats once the script runs out.
type Backend struct {
	*httptest.Server

	mu        sync.Mutex
	JobID     string
	Polls     []map[string]any
	Question  string
	Eval      map[string]any
	Feedback  map[string]any
	uploads   []Upload
	pollCount int
	paths     []string
}

// Upload records one multipart submission.
type Upload struct {
	Path     string
	Fields   map[string]string
	FileName string
	FileSize int
}

// NewBackend starts a fake backend that finishes jobs with result on the
// first poll. Tests adjust the exported fields before issuing requests.
func NewBackend(t testing.TB, result map[string]any) *Backend {
	t.Helper()

	b := &Backend{
		JobID:    "job-1",
		Polls:    []map[string]any{{"status": "done", "results": result}},
		Question: "What is the main takeaway?",
		Eval: map[string]any{
			"is_correct":            true,
			"verdict":               "correct",
			"correctness_score":     90.0,
			"reason":                "Covers the key point.",
			"missing_points":        []string{},
			"suggested_improvement": "",
		},
		Feedback: map[string]any{
			"summary_feedback": []string{"Clear opening."},
			"markers":          []map[string]any{},
			"notes":            []string{},
			"transcript":       "hello there",
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", b.handleUpload(func(w http.ResponseWriter) {
		writeJSON(w, map[string]any{"jobId": b.JobID})
	}))
	mux.HandleFunc("GET /api/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r.URL.Path)
		b.mu.Lock()
		idx := b.pollCount
		if idx >= len(b.Polls) {
			idx = len(b.Polls) - 1
		}
		b.pollCount++
		payload := b.Polls[idx]
		b.mu.Unlock()
		writeJSON(w, payload)
	})
	mux.HandleFunc("POST /analyze", b.handleUpload(func(w http.ResponseWriter) {
		b.mu.Lock()
		payload := b.Feedback
		b.mu.Unlock()
		writeJSON(w, payload)
	}))
	mux.HandleFunc("POST /followup-question", func(w http.ResponseWriter, r *http.Request) {
		b.record(r.URL.Path)
		b.mu.Lock()
		question := b.Question
		b.mu.Unlock()
		writeJSON(w, map[string]any{"question": question})
	})
	mux.HandleFunc("POST /evaluate-followup-answer", func(w http.ResponseWriter, r *http.Request) {
		b.record(r.URL.Path)
		b.mu.Lock()
		payload := b.Eval
		b.mu.Unlock()
		writeJSON(w, payload)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok"})
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// Uploads returns the recorded multipart submissions.
func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

// PollCount returns the number of status polls served.
func (b *Backend) PollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pollCount
}

// Paths returns every request path in arrival order.
func (b *Backend) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func (b *Backend) record(path string) {
	b.mu.Lock()
	b.paths = append(b.paths, path)
	b.mu.Unlock()
}

func (b *Backend) handleUpload(respond func(http.ResponseWriter)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.record(r.URL.Path)
		reader, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		upload := Upload{Path: r.URL.Path, Fields: map[string]string{}}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				upload.FileName = part.FileName()
				upload.FileSize = len(data)
				continue
			}
			upload.Fields[part.FormName()] = string(data)
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, upload)
		b.mu.Unlock()
		respond(w)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
