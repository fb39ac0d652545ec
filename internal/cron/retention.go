package cron

import "time"

// retentionWindow turns a day count into a delete cutoff relative to now.
type retentionWindow struct {
	days int
	now  func() time.Time
}

func newRetentionWindow(days, fallback int) retentionWindow {
	if days <= 0 {
		days = fallback
	}
	return retentionWindow{days: days, now: time.Now}
}

func (w retentionWindow) cutoff() time.Time {
	return w.now().UTC().AddDate(0, 0, -w.days)
}

func (w retentionWindow) logFields(cutoff time.Time, deleted int64) map[string]any {
	return map[string]any{
		"cutoff":         cutoff.Format(time.RFC3339),
		"retention_days": w.days,
		"rows_deleted":   deleted,
	}
}
