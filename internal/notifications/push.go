package notifications

import (
	"context"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

// PushSender delivers a stored notification to the recipient's devices.
type PushSender interface {
	Send(ctx context.Context, notification models.Notification) error
}

// LogPushSender records pushes in the service log instead of calling a provider.
type LogPushSender struct {
	logg *logger.Logger
}

func NewLogPushSender(logg *logger.Logger) *LogPushSender {
	return &LogPushSender{logg: logg}
}

func (s *LogPushSender) Send(ctx context.Context, notification models.Notification) error {
	if s.logg == nil {
		return nil
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"notification_id": notification.ID.String(),
		"recipient_type":  notification.RecipientType,
		"recipient_id":    notification.RecipientID.String(),
		"type":            notification.Type,
	})
	s.logg.Info(logCtx, "push notification queued")
	return nil
}
