// Package notifications pushes operator alerts to an ntfy topic.
//
// Severe inspections (any grade A defect) and deletions are the events worth
// interrupting a supervisor for and each can be switched off. Daily reports
// are sent when asked for, and daemon errors always. Without a configured
// topic every event is accepted and dropped.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roomcheck/internal/config"
)

const userAgent = "roomcheck/0.1"

// Event names a notification kind.
type Event string

const (
	EventSevereInspection Event = "severe_inspection"
	EventRecordsPurged    Event = "records_purged"
	EventDailyReport      Event = "daily_report"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event fields. Values are rendered with %v.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notifier backed by ntfy when a topic is configured and
// a no-op otherwise.
func NewService(cfg *config.Config) Service {
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
		severe:   cfg.Notifications.Severe,
		purge:    cfg.Notifications.Purge,
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
	severe   bool
	purge    bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, p Payload) (message, bool) {
	switch event {
	case EventSevereInspection:
		if !n.severe {
			return message{}, false
		}
		body := fmt.Sprintf("Room %s failed inspection by %s", p.str("room"), p.str("inspector"))
		if titles := p.str("titles"); titles != "" {
			body += "\n" + titles
		}
		return message{
			title:    "roomcheck - Grade A defect",
			body:     body,
			tags:     []string{"roomcheck", "inspection", "severe"},
			priority: "high",
		}, true
	case EventRecordsPurged:
		if !n.purge {
			return message{}, false
		}
		return message{
			title:    "roomcheck - Records deleted",
			body:     fmt.Sprintf("%s inspection record(s) deleted (%s)", p.str("count"), p.str("scope")),
			tags:     []string{"roomcheck", "delete", "warning"},
			priority: "high",
		}, true
	case EventDailyReport:
		return message{
			title: "roomcheck - Daily report",
			body:  p.str("summary"),
			tags:  []string{"roomcheck", "report"},
		}, true
	case EventError:
		body := "Error"
		if label := p.str("context"); label != "" {
			body += " with " + label
		}
		body += ": " + p.str("error")
		return message{
			title:    "roomcheck - Error",
			body:     body,
			tags:     []string{"roomcheck", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "roomcheck - Test",
			body:     "Notification system test",
			tags:     []string{"roomcheck", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) str(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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
