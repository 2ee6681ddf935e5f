package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSSender hands messages to an HTTP SMS gateway. The gateway owns retry
// and carrier semantics; this backend only reports whether the handoff
// call succeeded.
type SMSSender struct {
	client *resty.Client
	source string
}

// SMSConfig configures the SMS gateway backend.
type SMSConfig struct {
	GatewayURL string
	APIKey     string
	Source     string // sender id shown to the recipient
	Timeout    time.Duration
}

func NewSMSSender(cfg SMSConfig) *SMSSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.GatewayURL).
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &SMSSender{client: client, source: cfg.Source}
}

func (s *SMSSender) Send(ctx context.Context, address, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"from":    s.source,
			"to":      address,
			"message": text,
		}).
		Post("")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned %s", resp.Status())
	}
	return nil
}
