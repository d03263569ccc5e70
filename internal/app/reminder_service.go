package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"performance_review_service/internal/domain/cycle"
	"performance_review_service/internal/domain/deadline"
	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/notification"
	"performance_review_service/internal/domain/review"

	"github.com/sirupsen/logrus"
)

// dedupWindow suppresses a second REVIEW_DUE_SOON notification for the same
// review landing within a day of the previous one, so repeated daily sweeps
// crossing the same boundary stay quiet.
const dedupWindow = 24 * time.Hour

// DeadlineSweepResult summarizes one daily deadline sweep.
type DeadlineSweepResult struct {
	Scanned  int
	Notified int
	Deduped  int
}

// BroadcastResult summarizes one cycle-level reminder broadcast.
type BroadcastResult struct {
	EmployeePhaseRecipients int
	ManagerPhaseRecipients  int
}

// ReminderService owns deadline reminders: the daily due-soon/overdue sweep,
// the HR-triggered per-cycle broadcast, and notification retention.
type ReminderService struct {
	reviewRepo   review.Repository
	cycleRepo    cycle.Repository
	employeeRepo employee.Repository
	notifRepo    notification.Repository
	notifier     *Notifier
	logger       *logrus.Logger
}

func NewReminderService(
	rr review.Repository,
	cr cycle.Repository,
	er employee.Repository,
	nr notification.Repository,
	notifier *Notifier,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		reviewRepo:   rr,
		cycleRepo:    cr,
		employeeRepo: er,
		notifRepo:    nr,
		notifier:     notifier,
		logger:       logger,
	}
}

// ProcessDeadlineSweep scans pending self-evaluations with a due date and
// records a REVIEW_DUE_SOON notification when the review is exactly 3 days
// out, exactly 1 day out, or overdue — unless one was already recorded
// within the dedup window. Notification failures are logged and do not stop
// the sweep.
func (s *ReminderService) ProcessDeadlineSweep(ctx context.Context, now time.Time) (*DeadlineSweepResult, error) {
	pending, err := s.reviewRepo.ListPendingEmployeeDue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews for deadline sweep: %w", err)
	}

	result := &DeadlineSweepResult{Scanned: len(pending)}
	for _, rv := range pending {
		days := deadline.DaysUntil(rv.DueDate.Time, now)
		if days != 3 && days != 1 && days >= 0 {
			continue
		}

		link := ReviewLink(rv.ID)
		exists, err := s.notifRepo.Exists(ctx, rv.EmployeeID, notification.TypeReviewDueSoon, link, now.Add(-dedupWindow))
		if err != nil {
			s.logger.Errorf("deadline sweep: dedup check failed for review %d: %v", rv.ID, err)
			continue
		}
		if exists {
			result.Deduped++
			continue
		}

		s.notifier.NotifyReviewDueSoon(ctx, rv.EmployeeID, rv.ID, rv.DueDate, now)
		result.Notified++
	}
	s.logger.Infof("deadline sweep: scanned %d, notified %d, deduped %d", result.Scanned, result.Notified, result.Deduped)
	return result, nil
}

// SendCycleReminders is the HR-triggered broadcast for one cycle: pending
// reviews are grouped by phase, recipient addresses deduplicated within each
// phase, and one grouped email goes out per phase. Reviews whose due date
// says reminding is pointless (stale overdue, or still far out) are skipped.
func (s *ReminderService) SendCycleReminders(ctx context.Context, cycleID int64, now time.Time) (*BroadcastResult, error) {
	c, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	pending, err := s.reviewRepo.ListPendingByCycle(ctx, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews for cycle %d: %w", cycleID, err)
	}

	employeePhase := make(map[int64]bool)
	managerPhase := make(map[int64]bool)
	for _, rv := range pending {
		if rv.DueDate.Valid && !deadline.ShouldRemind(rv.DueDate, sql.NullTime{}, now) {
			continue
		}
		switch rv.Status {
		case review.StatusPendingEmployee:
			employeePhase[rv.EmployeeID] = true
		case review.StatusPendingManager:
			managerPhase[rv.ManagerID] = true
		}
	}

	result := &BroadcastResult{}
	empEmails, err := s.resolveEmails(ctx, employeePhase)
	if err != nil {
		return nil, err
	}
	if len(empEmails) > 0 {
		s.notifier.SendPhaseReminderEmail(empEmails, c.Name, false)
		result.EmployeePhaseRecipients = len(empEmails)
	}

	mgrEmails, err := s.resolveEmails(ctx, managerPhase)
	if err != nil {
		return nil, err
	}
	if len(mgrEmails) > 0 {
		s.notifier.SendPhaseReminderEmail(mgrEmails, c.Name, true)
		result.ManagerPhaseRecipients = len(mgrEmails)
	}

	s.logger.Infof("cycle %d reminder broadcast: %d employee-phase, %d manager-phase recipients",
		cycleID, result.EmployeePhaseRecipients, result.ManagerPhaseRecipients)
	return result, nil
}

// resolveEmails loads the distinct email addresses for a set of user ids.
func (s *ReminderService) resolveEmails(ctx context.Context, ids map[int64]bool) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	emails := make([]string, 0, len(ids))
	for id := range ids {
		emp, err := s.employeeRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipient %d: %w", id, err)
		}
		if seen[emp.Email] {
			continue
		}
		seen[emp.Email] = true
		emails = append(emails, emp.Email)
	}
	return emails, nil
}

// PurgeExpiredNotifications deletes notifications past the retention window.
func (s *ReminderService) PurgeExpiredNotifications(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.notifRepo.DeleteOlderThan(ctx, now.Add(-notification.RetentionPeriod))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired notifications: %w", err)
	}
	if deleted > 0 {
		s.logger.Infof("notification retention: purged %d expired notification(s)", deleted)
	}
	return deleted, nil
}
