// Package deadline holds the pure due-date policy shared by the review
// workflow and the reminder dispatcher: urgency classification, human
// formatting, and the decision of whether a reminder is worth sending.
package deadline

import (
	"database/sql"
	"fmt"
	"time"
)

// Urgency classifies a due date relative to now.
type Urgency string

const (
	// UrgencyNone means the review has no due date at all.
	UrgencyNone Urgency = "NONE"
	// UrgencyOverdue means the due date is strictly in the past (not today).
	UrgencyOverdue Urgency = "OVERDUE"
	// UrgencyDueSoon means due today or within the next DueSoonDays days.
	UrgencyDueSoon Urgency = "DUE_SOON"
	// UrgencyUpcoming means due further out than DueSoonDays days.
	UrgencyUpcoming Urgency = "UPCOMING"
)

const (
	// DueSoonDays is the inclusive window, in days, for "due soon".
	DueSoonDays = 3
	// StaleOverdueDays is how many days past due a review may be before
	// reminders stop entirely.
	StaleOverdueDays = 7
	// ReminderGap is the minimum time between two reminders for the same
	// review.
	ReminderGap = 48 * time.Hour
)

// DaysUntil returns the whole-day distance from now's calendar date to due's
// calendar date. Negative means overdue, zero means due today.
func DaysUntil(due, now time.Time) int {
	d := midnightUTC(due)
	n := midnightUTC(now)
	return int(d.Sub(n).Hours() / 24)
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Classify maps an optional due date into an urgency bucket.
func Classify(due sql.NullTime, now time.Time) Urgency {
	if !due.Valid {
		return UrgencyNone
	}
	days := DaysUntil(due.Time, now)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= DueSoonDays:
		return UrgencyDueSoon
	default:
		return UrgencyUpcoming
	}
}

// Format renders a due date as short human text ("Due tomorrow", "Overdue by
// 3 days"). Returns the empty string when there is no due date.
func Format(due sql.NullTime, now time.Time) string {
	if !due.Valid {
		return ""
	}
	days := DaysUntil(due.Time, now)
	switch {
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days > 1:
		return fmt.Sprintf("Due in %d days", days)
	case days == -1:
		return "Overdue by 1 day"
	default:
		return fmt.Sprintf("Overdue by %d days", -days)
	}
}

// ShouldRemind decides whether a reminder should go out for a review with
// the given due date, given when the previous reminder (if any) was sent.
//
// Reviews overdue by more than StaleOverdueDays never get another reminder.
// Otherwise a first reminder goes out once the review is due within
// DueSoonDays or already overdue; repeat reminders additionally require at
// least ReminderGap since the previous one.
func ShouldRemind(due sql.NullTime, lastReminderSent sql.NullTime, now time.Time) bool {
	if !due.Valid {
		return false
	}
	days := DaysUntil(due.Time, now)
	if days < -StaleOverdueDays {
		return false
	}
	if days > DueSoonDays {
		return false
	}
	if !lastReminderSent.Valid {
		return true
	}
	return now.Sub(lastReminderSent.Time) >= ReminderGap
}
