package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const notificationRetentionDays = 30

type notificationPurger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationPurger
	Retention     int
}

// NewNotificationCleanupJob deletes in-app notifications older than the
// retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Notifications == nil:
		return nil, errors.New("notifications service required")
	}
	return &notificationCleanupJob{
		retentionWindow: newRetentionWindow(params.Retention, notificationRetentionDays),
		logg:            params.Logger,
		purger:          params.Notifications,
	}, nil
}

type notificationCleanupJob struct {
	retentionWindow
	logg   *logger.Logger
	purger notificationPurger
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	deleted, err := j.purger.Purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, j.logFields(cutoff, deleted)), "notification cleanup complete")
	return nil
}
