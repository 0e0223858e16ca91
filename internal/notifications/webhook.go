package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/httputil"
)

const sendTimeout = 30 * time.Second

// Sender posts short messages to a Slack or Discord style webhook. With no
// URL configured it only logs.
type Sender struct {
	webhookURL string
	name       string
	client     *httputil.Client
	log        zerolog.Logger
}

func NewSender(webhookURL, name string, client *httputil.Client, log zerolog.Logger) *Sender {
	if name == "" {
		name = "MarketPulse"
	}
	if client == nil {
		client = httputil.NewClient(httputil.WithTimeout(10*time.Second), httputil.WithRateLimit(0))
	}
	return &Sender{
		webhookURL: webhookURL,
		name:       name,
		client:     client,
		log:        log,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

func (s *Sender) Send(ctx context.Context, msg string) error {
	formatted := fmt.Sprintf("[%s] %s", s.name, msg)
	s.log.Info().Str("message", formatted).Msg("notification")

	if !s.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := s.client.PostJSON(ctx, s.webhookURL, s.formatPayload(formatted)); err != nil {
		s.log.Error().Err(err).Msg("failed to send notification")
		return err
	}
	return nil
}

// CycleFailed reports an ingestion cycle that exhausted its retries.
func (s *Sender) CycleFailed(ctx context.Context, job string, err error) {
	// The worker's ctx may already be cancelled; the alert should still go out.
	_ = s.Send(context.WithoutCancel(ctx), fmt.Sprintf("%s ingestion cycle failed: %v", job, err))
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.name,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.name,
	}
}
