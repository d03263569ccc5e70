package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"performance_review_service/internal/domain/deadline"
	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/mailer"
	"performance_review_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Notifier composes and persists in-app notifications and sends the
// corresponding emails. Every method is best-effort: failures are logged and
// swallowed, because a missed notification must never fail the workflow
// action that triggered it. Callers normally invoke these through the
// outbox rather than inline.
type Notifier struct {
	notifRepo  notification.Repository
	mailClient mailer.Client
	appBaseURL string
	logger     *logrus.Logger
}

func NewNotifier(nr notification.Repository, mc mailer.Client, appBaseURL string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		notifRepo:  nr,
		mailClient: mc,
		appBaseURL: appBaseURL,
		logger:     logger,
	}
}

// ReviewLink is the in-app deep link for a review. The deadline sweep keys
// its dedup check on this exact value.
func ReviewLink(reviewID int64) string {
	return fmt.Sprintf("/reviews/%d", reviewID)
}

func cycleLink(cycleID int64) string {
	return fmt.Sprintf("/cycles/%d", cycleID)
}

func (n *Notifier) createNotification(ctx context.Context, userID int64, typ notification.Type, title, message, link string) {
	notif := &notification.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    sql.NullString{String: link, Valid: link != ""},
	}
	if err := n.notifRepo.Create(ctx, notif); err != nil {
		n.logger.Errorf("notifier: failed to create %s notification for user %d: %v", typ, userID, err)
	}
}

func (n *Notifier) sendEmail(to []string, subject, body string) {
	if len(to) == 0 {
		return
	}
	if err := n.mailClient.Send(to, subject, emailTemplate(subject, body)); err != nil {
		n.logger.Errorf("notifier: failed to send email %q to %d recipient(s): %v", subject, len(to), err)
	}
}

// NotifyReviewsAssigned fans out assignment notifications for one batch of
// freshly created reviews, plus a single grouped email to the whole batch.
func (n *Notifier) NotifyReviewsAssigned(ctx context.Context, cycleName string, dueDate sql.NullTime, created map[int64]*employee.Employee, reviewIDs map[int64]int64) {
	emails := make([]string, 0, len(created))
	for empID, emp := range created {
		message := fmt.Sprintf("Your self-evaluation for %q is ready to fill in.", cycleName)
		if dueDate.Valid {
			message = fmt.Sprintf("Your self-evaluation for %q is ready to fill in. Due %s.",
				cycleName, dueDate.Time.Format("Jan 2, 2006"))
		}
		n.createNotification(ctx, empID, notification.TypeReviewAssigned,
			"New performance review", message, ReviewLink(reviewIDs[empID]))
		emails = append(emails, emp.Email)
	}

	body := fmt.Sprintf(`<p>A new performance review cycle, <strong>%s</strong>, has started.</p>
		<p>Please <a href="%s/reviews">log in</a> and complete your self-evaluation.</p>`, cycleName, n.appBaseURL)
	if dueDate.Valid {
		body += fmt.Sprintf(`<p>Your self-evaluation is due by <strong>%s</strong>.</p>`,
			dueDate.Time.Format("Monday, January 2, 2006"))
	}
	n.sendEmail(emails, "Your performance review is ready", body)
}

// NotifyEmployeeSubmitted tells the manager their counter-evaluation is up.
func (n *Notifier) NotifyEmployeeSubmitted(ctx context.Context, mgr, emp *employee.Employee, reviewID int64) {
	n.createNotification(ctx, mgr.ID, notification.TypeReviewSubmitted,
		"Review ready for manager evaluation",
		fmt.Sprintf("%s submitted their self-evaluation. Your evaluation is next.", emp.FullName()),
		ReviewLink(reviewID))
	n.sendEmail([]string{mgr.Email},
		"A review is waiting for your evaluation",
		fmt.Sprintf(`<p><strong>%s</strong> has completed their self-evaluation.</p>
			<p>Please <a href="%s%s">complete your manager evaluation</a>.</p>`,
			emp.FullName(), n.appBaseURL, ReviewLink(reviewID)))
}

// NotifyReviewCompleted tells both participants the review is closed.
func (n *Notifier) NotifyReviewCompleted(ctx context.Context, emp, mgr *employee.Employee, reviewID int64) {
	link := ReviewLink(reviewID)
	n.createNotification(ctx, emp.ID, notification.TypeReviewCompleted,
		"Performance review completed",
		fmt.Sprintf("Your review with %s is complete.", mgr.FullName()), link)
	n.createNotification(ctx, mgr.ID, notification.TypeReviewCompleted,
		"Performance review completed",
		fmt.Sprintf("Your review of %s is complete.", emp.FullName()), link)
	n.sendEmail([]string{emp.Email, mgr.Email},
		"Performance review completed",
		`<p>The performance review has been completed by both participants and is now final.</p>`)
}

// NotifyCycleCreated confirms cycle creation to the HR user who created it.
func (n *Notifier) NotifyCycleCreated(ctx context.Context, creatorID int64, cycleName string, cycleID int64) {
	n.createNotification(ctx, creatorID, notification.TypeCycleCreated,
		"Review cycle created",
		fmt.Sprintf("Cycle %q was created and will generate reviews on its next run date.", cycleName),
		cycleLink(cycleID))
}

// NotifyReviewDueSoon records a deadline reminder for the given review. The
// caller is responsible for the dedup window check.
func (n *Notifier) NotifyReviewDueSoon(ctx context.Context, userID, reviewID int64, due sql.NullTime, now time.Time) {
	title := "Review due soon"
	if deadline.Classify(due, now) == deadline.UrgencyOverdue {
		title = "Review overdue"
	}
	n.createNotification(ctx, userID, notification.TypeReviewDueSoon,
		title,
		fmt.Sprintf("Your performance review is waiting. %s.", deadline.Format(due, now)),
		ReviewLink(reviewID))
}

// SendPhaseReminderEmail sends the grouped reminder email for one phase of a
// cycle-level broadcast.
func (n *Notifier) SendPhaseReminderEmail(recipients []string, cycleName string, managerPhase bool) {
	action := "complete your self-evaluation"
	if managerPhase {
		action = "complete your manager evaluation"
	}
	n.sendEmail(recipients,
		fmt.Sprintf("Reminder: pending reviews in %s", cycleName),
		fmt.Sprintf(`<p>You have one or more pending performance reviews in the cycle <strong>%s</strong>.</p>
			<p>Please log in and %s.</p>`, cycleName, action))
}

// emailTemplate wraps body content in the shared HTML email shell.
func emailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1F2937; padding: 24px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 20px; letter-spacing: 1px; }
			.content { padding: 32px 28px; color: #1F2937; line-height: 1.6; }
			.content h2 { margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 16px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>PERFORMANCE REVIEWS</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				This is an automated message from the performance review system.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
