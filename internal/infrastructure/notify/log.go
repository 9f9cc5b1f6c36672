package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes messages to the log. Used when no messaging channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Push(ctx context.Context, recipientID, text string) error {
	n.logger.Info("Notification", zap.String("to", recipientID), zap.String("text", text))
	return nil
}
