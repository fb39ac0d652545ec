package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const (
	defaultMissedGraceDays = 1
	missedBatchSize        = 200
	maxMissedBatches       = 50
)

type overdueScheduler interface {
	ListOverdue(ctx context.Context, before time.Time, limit int) ([]models.MealSchedule, error)
	MarkMissed(ctx context.Context, scheduleID uuid.UUID) (bool, error)
}

type MissedSchedulesJobParams struct {
	Logger    *logger.Logger
	Schedules overdueScheduler
	GraceDays int
}

// NewMissedSchedulesJob marks SCHEDULED/CONFIRMED meals dated before
// today minus the grace window as MISSED.
func NewMissedSchedulesJob(params MissedSchedulesJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Schedules == nil {
		return nil, fmt.Errorf("schedules service required")
	}
	grace := params.GraceDays
	if grace <= 0 {
		grace = defaultMissedGraceDays
	}
	return &missedSchedulesJob{
		logg:      params.Logger,
		schedules: params.Schedules,
		graceDays: grace,
		now:       time.Now,
	}, nil
}

type missedSchedulesJob struct {
	logg      *logger.Logger
	schedules overdueScheduler
	graceDays int
	now       func() time.Time
}

func (j *missedSchedulesJob) Name() string { return "missed-schedules" }

func (j *missedSchedulesJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -j.graceDays+1)

	var (
		errs    error
		marked  int
		skipped int
		failed  = map[uuid.UUID]struct{}{}
	)
	for batch := 0; batch < maxMissedBatches; batch++ {
		rows, err := j.schedules.ListOverdue(ctx, cutoff, missedBatchSize)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list overdue: %w", err))
			break
		}
		progressed := false
		for _, row := range rows {
			if _, seen := failed[row.ID]; seen {
				continue
			}
			ok, err := j.schedules.MarkMissed(ctx, row.ID)
			if err != nil {
				failed[row.ID] = struct{}{}
				errs = multierr.Append(errs, fmt.Errorf("schedule %s: %w", row.ID, err))
				continue
			}
			progressed = true
			if ok {
				marked++
			} else {
				skipped++
			}
		}
		if len(rows) < missedBatchSize || !progressed {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff.Format("2006-01-02"),
		"grace_days": j.graceDays,
		"marked":     marked,
		"skipped":    skipped,
		"failed":     len(failed),
	})
	if errs != nil {
		j.logg.Warn(logCtx, "missed schedule sweep finished with errors")
		return errs
	}
	j.logg.Info(logCtx, "missed schedule sweep complete")
	return nil
}
