package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	alertStatusThreshold = 300
	alertTimeout         = 5 * time.Second
)

// AlertService posts security events to an operator webhook. Delivery is
// fire-and-forget: a breach notification must never block or fail the
// request that triggered it.
type AlertService struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
}

func NewAlertService(log *zap.SugaredLogger, webhookURL string) *AlertService {
	return &AlertService{
		client:     &http.Client{Timeout: alertTimeout},
		log:        log,
		webhookURL: webhookURL,
	}
}

// NotifySessionBreach reports that an already-retired refresh token was
// presented again and its family locked out.
func (s *AlertService) NotifySessionBreach(ctx context.Context, presentedToken string) {
	s.notify(map[string]interface{}{
		"event":       "refresh_token_reuse",
		"detected_at": time.Now().UTC().Format(time.RFC3339),
		// The token is already dead; sending it lets operators correlate logs.
		"token": presentedToken,
	})
}

func (s *AlertService) notify(data map[string]interface{}) {
	if s.webhookURL == "" {
		return
	}

	go func() {
		payload, err := json.Marshal(data)
		if err != nil {
			s.log.Errorw("failed to marshal alert payload", "error", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create alert request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to send alert", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= alertStatusThreshold {
			s.log.Warnw("alert webhook returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}
