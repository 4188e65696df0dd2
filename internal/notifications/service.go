package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curator/internal/config"
)

const (
	userAgent     = "curator/0.1.0"
	defaultServer = "https://ntfy.sh/"
)

// Service defines the notification surface exposed to the curation driver.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyItemCompleted(ctx context.Context, title, platform, url string) error
	NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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
		endpoint: Endpoint(topic),
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint resolves a topic setting to the URL notifications are posted to.
func Endpoint(topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return defaultServer + strings.TrimPrefix(topic, "/")
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	return n.send(ctx, payload{
		title:   "Curator - Batch Started",
		message: fmt.Sprintf("Processing %d selected items", count),
		tags:    []string{"curator", "batch", "started"},
	})
}

func (n *ntfyService) NotifyItemCompleted(ctx context.Context, title, platform, url string) error {
	title = strings.TrimSpace(title)
	platform = strings.TrimSpace(platform)
	message := fmt.Sprintf("Archived: %s", title)
	if platform != "" {
		message = fmt.Sprintf("%s (%s)", message, platform)
	}
	return n.send(ctx, payload{
		title:   "Curator - Item Archived",
		message: message,
		tags:    []string{"curator", "item", "completed"},
		click:   strings.TrimSpace(url),
	})
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	title := "Curator - Batch Complete"
	message := fmt.Sprintf("Batch complete: %d items archived in %s", succeeded, durationText)
	if failed > 0 {
		title = "Curator - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d succeeded, %d failed in %s", succeeded, failed, durationText)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"curator", "batch", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Curator - Error",
		message:  builder.String(),
		tags:     []string{"curator", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Curator - Test",
		message:  "Notification system test",
		tags:     []string{"curator", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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
	if data.click != "" {
		req.Header.Set("Click", data.click)
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

func (noopService) NotifyBatchStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyItemCompleted(context.Context, string, string, string) error   { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
