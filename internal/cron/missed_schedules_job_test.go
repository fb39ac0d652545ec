package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
)

type fakeOverdueScheduler struct {
	pending   []models.MealSchedule
	failFor   map[uuid.UUID]error
	listErr   error
	cutoffs   []time.Time
	marked    []uuid.UUID
	listCalls int
}

func (f *fakeOverdueScheduler) ListOverdue(_ context.Context, before time.Time, limit int) ([]models.MealSchedule, error) {
	f.listCalls++
	f.cutoffs = append(f.cutoffs, before)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.pending) > limit {
		return append([]models.MealSchedule(nil), f.pending[:limit]...), nil
	}
	return append([]models.MealSchedule(nil), f.pending...), nil
}

func (f *fakeOverdueScheduler) MarkMissed(_ context.Context, id uuid.UUID) (bool, error) {
	if err, ok := f.failFor[id]; ok {
		return false, err
	}
	f.marked = append(f.marked, id)
	remaining := make([]models.MealSchedule, 0, len(f.pending))
	for _, row := range f.pending {
		if row.ID != id {
			remaining = append(remaining, row)
		}
	}
	f.pending = remaining
	return true, nil
}

func newMissedJob(t *testing.T, schedules overdueScheduler, grace int) *missedSchedulesJob {
	t.Helper()
	job, err := NewMissedSchedulesJob(MissedSchedulesJobParams{
		Logger:    testLogger(),
		Schedules: schedules,
		GraceDays: grace,
	})
	require.NoError(t, err)
	typed := job.(*missedSchedulesJob)
	typed.now = func() time.Time { return time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) }
	return typed
}

func overdueRows(n int) []models.MealSchedule {
	rows := make([]models.MealSchedule, n)
	for i := range rows {
		rows[i] = models.MealSchedule{ID: uuid.New()}
	}
	return rows
}

func TestMissedSchedulesJobMarksOverdueRows(t *testing.T) {
	fake := &fakeOverdueScheduler{pending: overdueRows(3)}
	job := newMissedJob(t, fake, 0)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, fake.marked, 3)
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), fake.cutoffs[0])
	require.Equal(t, "missed-schedules", job.Name())
}

func TestMissedSchedulesJobHonorsGraceWindow(t *testing.T) {
	fake := &fakeOverdueScheduler{}
	job := newMissedJob(t, fake, 3)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), fake.cutoffs[0])
}

func TestMissedSchedulesJobPagesThroughBatches(t *testing.T) {
	fake := &fakeOverdueScheduler{pending: overdueRows(missedBatchSize + 5)}
	job := newMissedJob(t, fake, 1)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, fake.marked, missedBatchSize+5)
	require.Equal(t, 2, fake.listCalls)
}

func TestMissedSchedulesJobAggregatesErrors(t *testing.T) {
	rows := overdueRows(3)
	wantMarked := rows[1].ID
	fake := &fakeOverdueScheduler{
		pending: append([]models.MealSchedule(nil), rows...),
		failFor: map[uuid.UUID]error{
			rows[0].ID: errors.New("lock timeout"),
			rows[2].ID: errors.New("order missing"),
		},
	}
	job := newMissedJob(t, fake, 1)

	err := job.Run(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.Equal(t, []uuid.UUID{wantMarked}, fake.marked)
	require.Equal(t, []models.MealSchedule{{ID: rows[0].ID}, {ID: rows[1].ID}, {ID: rows[2].ID}}, rows)
}

func TestMissedSchedulesJobStopsOnListError(t *testing.T) {
	fake := &fakeOverdueScheduler{listErr: errors.New("db down")}
	job := newMissedJob(t, fake, 1)

	require.Error(t, job.Run(context.Background()))
	require.Equal(t, 1, fake.listCalls)
}
