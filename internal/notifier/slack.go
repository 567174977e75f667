// Package notifier delivers best-effort Slack-style webhook alerts. Every
// operation swallows transport failures: callers only ever see a boolean.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLowHealthThreshold is the score below which a low-health alert fires.
const DefaultLowHealthThreshold = 40

// DefaultWebhookTTL bounds how long a resolved webhook URL is reused before
// the stored setting is consulted again.
const DefaultWebhookTTL = 60 * time.Second

// Notifier is what the processing pipeline depends on.
type Notifier interface {
	AlertFailure(ctx context.Context, conversationID, failureType string) bool
	AlertLowHealth(ctx context.Context, conversationID string, score int) bool
}

// SettingsSource reads the stored webhook target; empty string means
// unconfigured.
type SettingsSource interface {
	GetWebhookURL(ctx context.Context) (string, error)
}

// WebhookProvider resolves the outbound webhook URL: stored setting first,
// env-style fallback second, cached for the TTL. The clock is injectable so
// tests can expire the cache without sleeping.
type WebhookProvider struct {
	settings SettingsSource
	fallback string
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
}

func NewWebhookProvider(settings SettingsSource, fallback string, ttl time.Duration, now func() time.Time) *WebhookProvider {
	if ttl <= 0 {
		ttl = DefaultWebhookTTL
	}
	if now == nil {
		now = time.Now
	}
	return &WebhookProvider{settings: settings, fallback: fallback, ttl: ttl, now: now}
}

// URL returns the current webhook target, or "" when none is configured.
func (p *WebhookProvider) URL(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Before(p.expiresAt) {
		return p.cached
	}

	url := p.fallback
	if p.settings != nil {
		stored, err := p.settings.GetWebhookURL(ctx)
		if err == nil && stored != "" {
			url = stored
		}
		// read errors fall back to the env value; alerting stays best-effort
	}

	p.cached = url
	p.expiresAt = now.Add(p.ttl)
	return url
}

// Slack posts alerts to an incoming-webhook-compatible endpoint.
type Slack struct {
	provider  *WebhookProvider
	client    *http.Client
	baseURL   string
	threshold int
	log       *logrus.Logger
}

type Config struct {
	Provider  *WebhookProvider
	Client    *http.Client
	BaseURL   string // dashboard base for deep links
	Threshold int    // low-health boundary, alert fires strictly below
	Logger    *logrus.Logger
}

func NewSlack(cfg Config) *Slack {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultLowHealthThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	return &Slack{
		provider:  cfg.Provider,
		client:    cfg.Client,
		baseURL:   cfg.BaseURL,
		threshold: cfg.Threshold,
		log:       cfg.Logger,
	}
}

// AlertFailure announces a freshly detected failure. The return value only
// feeds the failure row's alerted flag; it never aborts processing.
func (s *Slack) AlertFailure(ctx context.Context, conversationID, failureType string) bool {
	link := s.baseURL + "/conversations"
	text := fmt.Sprintf(":rotating_light: New failure detected: %s (conversation %s)", failureType, conversationID)
	return s.send(ctx, map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*New failure* • *%s*", failureType)}},
			{"type": "context", "elements": []map[string]any{{"type": "mrkdwn", "text": "Conversation: " + conversationID}}},
			{"type": "actions", "elements": []map[string]any{{"type": "button", "text": map[string]any{"type": "plain_text", "text": "View conversations"}, "url": link}}},
		},
	})
}

// AlertLowHealth fires only when score is strictly below the threshold; at or
// above it the call is a successful no-op.
func (s *Slack) AlertLowHealth(ctx context.Context, conversationID string, score int) bool {
	if score >= s.threshold {
		return true
	}
	link := s.baseURL + "/conversations"
	text := fmt.Sprintf(":thermometer: Low conversation health: %d (conversation %s)", score, conversationID)
	return s.send(ctx, map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Low health* • Score: *%d* (< %d)", score, s.threshold)}},
			{"type": "context", "elements": []map[string]any{{"type": "mrkdwn", "text": "Conversation: " + conversationID}}},
			{"type": "actions", "elements": []map[string]any{{"type": "button", "text": map[string]any{"type": "plain_text", "text": "View conversations"}, "url": link}}},
		},
	})
}

func (s *Slack) send(ctx context.Context, payload map[string]any) bool {
	url := s.provider.URL(ctx)
	if url == "" {
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Warn("webhook delivery failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
