package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	outboxMinAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRetentionRepo
	Retention   int
	// MinAttempts marks unpublished rows as abandoned once they reach it.
	MinAttempts int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = outboxMinAttempts
	}
	return &outboxRetentionJob{
		retentionWindow: newRetentionWindow(params.Retention, outboxRetentionDays),
		logg:            params.Logger,
		db:              params.DB,
		repo:            params.Repository,
		minAttempts:     minAttempts,
	}, nil
}

type outboxRetentionJob struct {
	retentionWindow
	logg        *logger.Logger
	db          txRunner
	repo        outboxRetentionRepo
	minAttempts int
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run removes published rows past the window together with abandoned ones.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, j.logFields(cutoff, deleted))
	j.logg.Info(j.logg.WithField(logCtx, "min_attempts", j.minAttempts), "outbox retention complete")
	return nil
}
