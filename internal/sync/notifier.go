package sync

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier surfaces disconnect events in the logs. A delivery channel
// (email, push) can replace it behind the Notifier interface.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyDisconnected(_ context.Context, userID string) error {
	n.log.Warn().Str("user_id", userID).Msg("mailbox disconnected, user must reconnect")
	return nil
}
