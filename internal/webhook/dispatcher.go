// Package webhook delivers domain event envelopes to the external automation
// agent. Delivery is best-effort: a broken or unconfigured endpoint must never
// fail the clinic operation that triggered it.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hakeemhq/clinic-agent-platform/internal/observability/metrics"
	"github.com/hakeemhq/clinic-agent-platform/internal/settings"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Event types carried in the envelope.
const (
	EventNewPatient     = "new_patient"
	EventUpdatePatient  = "update_patient"
	EventNewAppointment = "new_appointment"
	EventTest           = "test"
)

// Skip reasons reported when dispatch is short-circuited.
const (
	SkipAgentDisabled = "agent_disabled"
	SkipNoWebhookURL  = "no_webhook_url"
)

const maxResponseBody = 2048

// SettingsSource supplies the dispatch configuration, read fresh per call so
// settings changes take effect on the next dispatch.
type SettingsSource interface {
	WebhookConfig(ctx context.Context) (settings.WebhookConfig, error)
}

// Envelope is the wire shape posted to the agent.
type Envelope struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Result describes the outcome of one dispatch.
type Result struct {
	Success    bool
	Skipped    bool
	SkipReason string
	StatusCode int
	Error      string
}

// Sent reports whether the event actually reached the endpoint. This is the
// webhook_sent flag surfaced to API callers.
func (r Result) Sent() bool {
	return r.Success && !r.Skipped
}

// TestResult is the diagnostic outcome of an operator-triggered test call.
type TestResult struct {
	Success      bool
	SkipReason   string
	StatusCode   int
	ResponseBody string
	Error        string
}

// Dispatcher posts event envelopes to the configured webhook URL.
type Dispatcher struct {
	source  SettingsSource
	client  *http.Client
	logger  *logging.Logger
	metrics *metrics.WebhookMetrics
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the default 8s-timeout client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithMetrics attaches dispatch metrics.
func WithMetrics(m *metrics.WebhookMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher reading configuration from source.
func NewDispatcher(source SettingsSource, logger *logging.Logger, opts ...Option) *Dispatcher {
	if source == nil {
		panic("webhook: settings source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		source: source,
		client: &http.Client{Timeout: 8 * time.Second},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one event envelope. Failures are reported in the Result and
// logged, never returned as errors: the domain write already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, data map[string]any) Result {
	cfg, err := d.source.WebhookConfig(ctx)
	if err != nil {
		d.logger.Error("failed to load webhook settings", "error", err, "event_type", eventType)
		d.metrics.ObserveDispatch(eventType, "failed")
		return Result{Error: "failed to fetch settings"}
	}

	if !cfg.AgentEnabled {
		d.logger.Debug("agent disabled, skipping webhook", "event_type", eventType)
		d.metrics.ObserveDispatch(eventType, "skipped")
		return Result{Success: true, Skipped: true, SkipReason: SkipAgentDisabled}
	}
	if strings.TrimSpace(cfg.URL) == "" {
		d.logger.Debug("no webhook url configured, skipping", "event_type", eventType)
		d.metrics.ObserveDispatch(eventType, "skipped")
		return Result{Success: true, Skipped: true, SkipReason: SkipNoWebhookURL}
	}

	envelope := Envelope{
		Type:      eventType,
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Data:      data,
	}

	status, _, err := d.post(ctx, cfg.URL, envelope, eventType)
	if err != nil {
		d.logger.Error("webhook dispatch failed", "error", err, "event_type", eventType, "url", cfg.URL)
		d.metrics.ObserveDispatch(eventType, "failed")
		return Result{Error: err.Error()}
	}
	if status < 200 || status > 299 {
		d.logger.Error("webhook returned non-2xx", "status", status, "event_type", eventType, "url", cfg.URL)
		d.metrics.ObserveDispatch(eventType, "failed")
		return Result{StatusCode: status, Error: fmt.Sprintf("webhook returned %d", status)}
	}

	d.logger.Info("webhook dispatched", "event_type", eventType, "status", status)
	d.metrics.ObserveDispatch(eventType, "sent")
	return Result{Success: true, StatusCode: status}
}

// Test sends a fixed diagnostic payload and returns the raw status and a
// truncated response body for display in the settings panel. It honors the
// same gating as Dispatch but reports the gate instead of silently skipping,
// since the operator explicitly asked for a delivery attempt.
func (d *Dispatcher) Test(ctx context.Context) TestResult {
	cfg, err := d.source.WebhookConfig(ctx)
	if err != nil {
		d.logger.Error("failed to load webhook settings for test", "error", err)
		return TestResult{Error: "failed to fetch settings"}
	}
	if !cfg.AgentEnabled {
		return TestResult{SkipReason: SkipAgentDisabled}
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return TestResult{SkipReason: SkipNoWebhookURL}
	}

	envelope := Envelope{
		Type:      EventTest,
		Message:   "اختبار الاتصال من نظام العيادة",
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}

	status, body, err := d.post(ctx, cfg.URL, envelope, EventTest)
	if err != nil {
		d.logger.Error("webhook test failed", "error", err, "url", cfg.URL)
		d.metrics.ObserveDispatch(EventTest, "failed")
		return TestResult{Error: err.Error()}
	}

	outcome := "sent"
	success := status >= 200 && status <= 299
	if !success {
		outcome = "failed"
	}
	d.metrics.ObserveDispatch(EventTest, outcome)
	return TestResult{Success: success, StatusCode: status, ResponseBody: body}
}

func (d *Dispatcher) post(ctx context.Context, url string, envelope Envelope, eventType string) (int, string, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return 0, "", fmt.Errorf("webhook: marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	d.metrics.ObserveDispatchLatency(eventType, time.Since(start).Seconds())
	if err != nil {
		return 0, "", fmt.Errorf("webhook: post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, string(body), nil
}
