package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podium/internal/config"
)

const userAgent = "Podium-Go/0.1.0"

// Event identifies a notification template.
type Event string

const (
	EventAnalysisCompleted Event = "analysis_completed"
	EventAnalysisFailed    Event = "analysis_failed"
	EventDrillEvaluated    Event = "drill_evaluated"
	EventFillerChallenge   Event = "filler_challenge"
	EventTest              Event = "test"
)

// Payload carries template values keyed by name.
type Payload map[string]any

func (p Payload) string(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		analysis: cfg.Notifications.Analysis,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	analysis bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventAnalysisCompleted:
		if !n.analysis {
			return message{}, false
		}
		preset := payload.string("preset")
		if preset == "" {
			preset = "general"
		}
		body := fmt.Sprintf("🎤 Analysis ready (%s)", preset)
		if wpm := payload.string("wpm"); wpm != "" {
			body += fmt.Sprintf("\nPace: %s WPM", wpm)
		}
		if fillers := payload.string("fillers"); fillers != "" {
			body += fmt.Sprintf("\nFiller words: %s", fillers)
		}
		return message{
			title: "Podium - Analysis Ready",
			body:  body,
			tags:  []string{"podium", "analysis", preset},
		}, true
	case EventDrillEvaluated:
		if !n.analysis {
			return message{}, false
		}
		verdict := payload.string("verdict")
		if verdict == "" {
			verdict = "Evaluated"
		}
		body := fmt.Sprintf("🎯 Drill answer: %s", verdict)
		if question := payload.string("question"); question != "" {
			body += "\nQ: " + question
		}
		return message{
			title: "Podium - Drill Evaluated",
			body:  body,
			tags:  []string{"podium", "drill", "evaluated"},
		}, true
	case EventFillerChallenge:
		if !n.analysis {
			return message{}, false
		}
		count := payload.string("fillers")
		if count == "" {
			count = "0"
		}
		body := fmt.Sprintf("Filler challenge: %s filler words", count)
		if count == "0" {
			body = "🏆 Filler challenge passed with zero filler words"
		}
		return message{
			title: "Podium - Filler Challenge",
			body:  body,
			tags:  []string{"podium", "drill", "filler"},
		}, true
	case EventAnalysisFailed:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.string("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payload.string("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Podium - Error",
			body:     builder.String(),
			tags:     []string{"podium", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Podium - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"podium", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
