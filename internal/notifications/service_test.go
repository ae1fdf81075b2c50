package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"podium/internal/config"
	"podium/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "analysis completed",
			event:         notifications.EventAnalysisCompleted,
			payload:       notifications.Payload{"preset": "pitch", "wpm": 141, "fillers": 3},
			expectTitle:   "Podium - Analysis Ready",
			expectMessage: "🎤 Analysis ready (pitch)\nPace: 141 WPM\nFiller words: 3",
			expectTags:    "podium,analysis,pitch",
		},
		{
			name:          "drill evaluated",
			event:         notifications.EventDrillEvaluated,
			payload:       notifications.Payload{"verdict": "Partial", "question": "Why now?"},
			expectTitle:   "Podium - Drill Evaluated",
			expectMessage: "🎯 Drill answer: Partial\nQ: Why now?",
			expectTags:    "podium,drill,evaluated",
		},
		{
			name:          "filler challenge passed",
			event:         notifications.EventFillerChallenge,
			payload:       notifications.Payload{"fillers": 0},
			expectTitle:   "Podium - Filler Challenge",
			expectMessage: "🏆 Filler challenge passed with zero filler words",
			expectTags:    "podium,drill,filler",
		},
		{
			name:           "error",
			event:          notifications.EventAnalysisFailed,
			payload:        notifications.Payload{"context": "analyze", "error": errors.New("Poll failed (502)")},
			expectTitle:    "Podium - Error",
			expectMessage:  "❌ Error with analyze: Poll failed (502)",
			expectTags:     "podium,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Podium - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "podium,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			cfg.Notifications.Analysis = true
			cfg.Notifications.Errors = true

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Analysis = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventAnalysisCompleted,
		notifications.EventAnalysisFailed,
		notifications.EventDrillEvaluated,
		notifications.EventFillerChallenge,
		notifications.Event("unknown"),
	}
	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
