// Package notify delivers rendered one-time code messages to users. The
// dispatcher maps a channel selector onto a concrete backend; the backends
// are fire-and-forget beyond the handoff result.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Channel selects a delivery backend. The set is closed; anything else
// resolves to ErrUnsupportedChannel.
type Channel string

const (
	ChannelEmail   Channel = "EMAIL"
	ChannelSMS     Channel = "SMS"
	ChannelChatBot Channel = "CHATBOT"
	ChannelFile    Channel = "FILE"
)

var (
	ErrUnsupportedChannel = errors.New("notify: unsupported channel")
	ErrDeliveryFailed     = errors.New("notify: delivery failed")
)

// ParseChannel normalizes a wire-level channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToUpper(strings.TrimSpace(s))) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelChatBot:
		return ChannelChatBot, nil
	case ChannelFile:
		return ChannelFile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChannel, s)
	}
}

// Sender hands a rendered plaintext message to one delivery backend.
type Sender interface {
	Send(ctx context.Context, address, text string) error
}

// Dispatcher resolves channels to backends. Stateless beyond the wiring
// done at construction.
type Dispatcher struct {
	senders map[Channel]Sender
}

// NewDispatcher wires one backend per channel. A nil backend leaves its
// channel unsupported, which keeps partial deployments honest: resolving
// that channel fails instead of silently dropping messages.
func NewDispatcher(email, sms, chatBot, file Sender) *Dispatcher {
	senders := make(map[Channel]Sender, 4)
	if email != nil {
		senders[ChannelEmail] = email
	}
	if sms != nil {
		senders[ChannelSMS] = sms
	}
	if chatBot != nil {
		senders[ChannelChatBot] = chatBot
	}
	if file != nil {
		senders[ChannelFile] = file
	}
	return &Dispatcher{senders: senders}
}

// Resolve maps a channel to its backend.
func (d *Dispatcher) Resolve(channel Channel) (Sender, error) {
	s, ok := d.senders[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel)
	}
	return s, nil
}

// Send resolves the channel and hands the message off. Backend failures are
// wrapped in ErrDeliveryFailed so callers can distinguish them from
// configuration errors.
func (d *Dispatcher) Send(ctx context.Context, channel Channel, address, text string) error {
	s, err := d.Resolve(channel)
	if err != nil {
		return err
	}
	if err := s.Send(ctx, address, text); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeliveryFailed, channel, err)
	}
	return nil
}
