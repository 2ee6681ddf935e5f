package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSender appends codes to a local file. Meant for local development and
// tests, where the "delivery" should be observable without any external
// system.
type FileSender struct {
	path string
}

func NewFileSender(path string) *FileSender {
	if path == "" {
		path = "otp_codes.txt"
	}
	return &FileSender{path: path}
}

func (s *FileSender) Send(ctx context.Context, address, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create delivery directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open delivery file: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("%s - %s - %s\n", time.Now().Format("2006-01-02 15:04:05"), address, text)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("write delivery file: %w", err)
	}
	return nil
}
