package queue

import (
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
)

// OpenNow reports whether the public queue form accepts entries.
// Two independent gates must both pass: the staff toggle and the
// schedule. A false toggle always wins, even when a window covers now.
func OpenNow(business models.Business, windows []models.ScheduleWindow, now time.Time) bool {
	if !business.IsQueueOpen {
		return false
	}
	return InWindow(windows, now)
}

// InWindow reports whether now falls inside at least one schedule
// window. A business with no windows is treated as always inside,
// so the manual toggle alone controls it. Windows whose close time
// precedes their open time wrap past midnight and are checked
// against both the window's weekday and the following day.
func InWindow(windows []models.ScheduleWindow, now time.Time) bool {
	if len(windows) == 0 {
		return true
	}
	weekday := int(now.Weekday())
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		if w.ClosesAt >= w.OpensAt {
			if w.Weekday == weekday && minute >= w.OpensAt && minute < w.ClosesAt {
				return true
			}
			continue
		}
		// wrapping window: late segment on its weekday, early segment
		// on the next day
		if w.Weekday == weekday && minute >= w.OpensAt {
			return true
		}
		if (w.Weekday+1)%7 == weekday && minute < w.ClosesAt {
			return true
		}
	}
	return false
}

// Accepting reports whether the business can take public entries at
// all: its subscription must not be cancelled and, while on trial,
// the trial must not have expired.
func Accepting(business models.Business, now time.Time) bool {
	switch business.SubscriptionStatus {
	case models.SubscriptionCancelled:
		return false
	case models.SubscriptionTrial:
		return business.TrialEndsAt == nil || now.Before(*business.TrialEndsAt)
	default:
		return true
	}
}
