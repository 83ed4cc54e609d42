// Package channel abstracts outbound delivery to the messaging platforms.
// The core never talks to a platform directly; it depends on Sender and each
// platform gets its own adapter behind it.
package channel

import (
	"context"

	"replyping/internal/domain"
)

// SendResult reports a successful platform send.
type SendResult struct {
	MessageID string
}

type Sender interface {
	// Send delivers text to the recipient handle on the given channel.
	// Returns an error wrapping domain.ErrChannelUnavailable when the channel
	// is not configured and domain.ErrChannelSend on transport failure.
	Send(ctx context.Context, ct domain.ChannelType, recipient, text string) (*SendResult, error)
	// IsConfigured reports whether credentials for the channel are present.
	IsConfigured(ct domain.ChannelType) bool
}
