package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ChatBotSender posts messages to a chat-bot webhook (Telegram-style bot
// APIs and most internal bots share this shape: a chat id and a text body).
type ChatBotSender struct {
	client *resty.Client
}

// ChatBotConfig configures the bot webhook backend.
type ChatBotConfig struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
}

func NewChatBotSender(cfg ChatBotConfig) *ChatBotSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.WebhookURL).
		SetTimeout(timeout)
	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}

	return &ChatBotSender{client: client}
}

func (s *ChatBotSender) Send(ctx context.Context, address, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": address,
			"text":    text,
		}).
		Post("")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("chat bot webhook returned %s", resp.Status())
	}
	return nil
}
