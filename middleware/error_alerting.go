package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"ghdash/metrics"
)

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	logger        *slog.Logger
	metrics       metrics.Recorder
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration // prevent spam
	sendTimeout   time.Duration
	wg            sync.WaitGroup
}

func NewErrorAlertMiddleware(config SlackAlertConfig, logger *slog.Logger, recorder metrics.Recorder) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		logger:        logger,
		metrics:       recorder,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute, // Don't alert same error more than once per 10min
		sendTimeout:   10 * time.Second,
	}
}

// statusRecorder remembers the status code a handler wrote
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

// HTTPMiddleware recovers panics into an UNKNOWN_ERROR response and alerts on panics and 5xx responses
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		alertContext := fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if recovered := recover(); recovered != nil {
				resp := CreateAPIErrorResponse(recovered, ErrorContext{
					Logger:    m.logger,
					Metrics:   m.metrics,
					Operation: "panic",
					Method:    r.Method,
					Path:      r.URL.Path,
				}, "http")
				if !recorder.wroteHeader {
					WriteAPIError(recorder, resp, m.logger)
				}
				m.alert(fmt.Sprintf("%s: PANIC (request %s)", alertContext, resp.Body.RequestID), alertContext+" (PANIC)")
				return
			}

			if recorder.status >= http.StatusInternalServerError {
				m.alertOnError(fmt.Errorf("responded with status %d (request %s)", recorder.status, recorder.Header().Get(RequestIDHeader)), alertContext)
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}

// WrapBackgroundTask alerts when a periodic task fails or panics
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) func() error {
	return func() (err error) {
		alertContext := fmt.Sprintf("Background task: %s", taskName)
		defer func() {
			if recovered := recover(); recovered != nil {
				m.logger.Error("❌ Background task panicked", "task", taskName, "panic_type", fmt.Sprintf("%T", recovered))
				m.alert(fmt.Sprintf("%s: PANIC", alertContext), alertContext+" (PANIC)")
				err = fmt.Errorf("background task %s panicked", taskName)
			}
		}()

		if err := task(); err != nil {
			m.alertOnError(err, alertContext)
			return err
		}
		return nil
	}
}

// Wait blocks until in-flight alerts are delivered, used at shutdown
func (m *ErrorAlertMiddleware) Wait() {
	m.wg.Wait()
}

// Core error alerting logic
func (m *ErrorAlertMiddleware) alertOnError(err error, alertContext string) {
	m.alert(fmt.Sprintf("%s: %v", alertContext, err), alertContext)
}

func (m *ErrorAlertMiddleware) alert(errorMsg, alertContext string) {
	// Create hash of error for deduplication
	hash := fmt.Sprintf("%x", md5.Sum([]byte(alertContext)))

	m.mutex.Lock()
	if lastAlert, exists := m.alertedErrors[hash]; exists && time.Since(lastAlert) < m.alertCooldown {
		m.mutex.Unlock()
		return
	}
	m.alertedErrors[hash] = time.Now()
	m.mutex.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sendSlackAlert(errorMsg, alertContext)
	}()
}

func (m *ErrorAlertMiddleware) buildAlertMessage(errorMsg, alertContext string) *slack.WebhookMessage {
	envPrefix := ""
	if m.config.Environment == "dev" {
		envPrefix = "[dev] "
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType, fmt.Sprintf("🚨 %s[%s] Error Alert", envPrefix, m.config.AppName), true, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", m.config.AppName), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", m.config.Environment), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context:* %s", alertContext), false, false),
		}, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType, fmt.Sprintf("*Error:*\n```%s```", errorMsg), false, false), nil, nil),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType, fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL), false, false), nil, nil))
	}

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("Error Alert: %s", alertContext),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func (m *ErrorAlertMiddleware) sendSlackAlert(errorMsg, alertContext string) {
	if m.config.WebhookURL == "" {
		return // Slack alerts disabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
	defer cancel()

	if err := slack.PostWebhookContext(ctx, m.config.WebhookURL, m.buildAlertMessage(errorMsg, alertContext)); err != nil {
		m.logger.Error("❌ Failed to send Slack alert", "error", err.Error())
	}
}
