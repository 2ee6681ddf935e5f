package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSender struct {
	address string
	text    string
	err     error
}

func (s *stubSender) Send(ctx context.Context, address, text string) error {
	s.address = address
	s.text = text
	return s.err
}

func TestParseChannel(t *testing.T) {
	t.Run("accepts known channels case-insensitively", func(t *testing.T) {
		cases := []struct {
			input string
			want  Channel
		}{
			{"EMAIL", ChannelEmail},
			{"email", ChannelEmail},
			{" sms ", ChannelSMS},
			{"ChatBot", ChannelChatBot},
			{"FILE", ChannelFile},
		}
		for _, tc := range cases {
			got, err := ParseChannel(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		}
	})

	t.Run("rejects anything outside the closed set", func(t *testing.T) {
		for _, input := range []string{"", "TELEGRAM", "carrier-pigeon"} {
			_, err := ParseChannel(input)
			require.ErrorIs(t, err, ErrUnsupportedChannel)
		}
	})
}

func TestDispatcherRouting(t *testing.T) {
	ctx := context.Background()
	email := &stubSender{}
	d := NewDispatcher(email, nil, nil, nil)

	t.Run("routes to the wired backend", func(t *testing.T) {
		require.NoError(t, d.Send(ctx, ChannelEmail, "alice@example.com", "Your one-time code: 123456"))
		require.Equal(t, "alice@example.com", email.address)
		require.Contains(t, email.text, "123456")
	})

	t.Run("unwired channel is unsupported", func(t *testing.T) {
		err := d.Send(ctx, ChannelSMS, "+15550001111", "text")
		require.ErrorIs(t, err, ErrUnsupportedChannel)
		require.NotErrorIs(t, err, ErrDeliveryFailed)
	})

	t.Run("backend failure wraps ErrDeliveryFailed", func(t *testing.T) {
		failing := &stubSender{err: errors.New("smtp handshake failed")}
		d := NewDispatcher(failing, nil, nil, nil)

		err := d.Send(ctx, ChannelEmail, "alice@example.com", "text")
		require.ErrorIs(t, err, ErrDeliveryFailed)
	})
}

func TestFileSenderAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deliveries", "codes.txt")
	s := NewFileSender(path)

	require.NoError(t, s.Send(ctx, "alice@example.com", "Your one-time code: 123456"))
	require.NoError(t, s.Send(ctx, "bob@example.com", "Your one-time code: 654321"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "alice@example.com")
	require.Contains(t, lines[0], "123456")
	require.Contains(t, lines[1], "654321")
}

func TestFileSenderHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "codes.txt")
	err := NewFileSender(path).Send(ctx, "alice@example.com", "text")
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
