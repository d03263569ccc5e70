package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"time"

	"performance_review_service/internal/domain/cycle"
	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/notification"
	"performance_review_service/internal/domain/review"
	"performance_review_service/internal/domain/template"

	"github.com/sirupsen/logrus"
)

// In-memory fakes for the repository interfaces. They mirror the semantics
// the postgres implementations promise (conflict-ignore bulk insert, atomic
// phase completion) closely enough for service-level tests.

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// syncDispatcher runs enqueued tasks inline so tests observe their effects
// immediately.
type syncDispatcher struct {
	names []string
}

func (d *syncDispatcher) Enqueue(name string, task func(ctx context.Context) error) {
	d.names = append(d.names, name)
	_ = task(context.Background())
}

// dropDispatcher swallows tasks, for tests that only care about the
// synchronous path.
type dropDispatcher struct{}

func (dropDispatcher) Enqueue(string, func(ctx context.Context) error) {}

type sentEmail struct {
	To      []string
	Subject string
}

type fakeMailer struct {
	sends   []sentEmail
	sendErr error
}

func (m *fakeMailer) Send(to []string, subject, htmlBody string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sends = append(m.sends, sentEmail{To: to, Subject: subject})
	return nil
}

type fakeEmployeeRepo struct {
	employees map[int64]*employee.Employee
	getErr    error
}

func newFakeEmployeeRepo(emps ...*employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[int64]*employee.Employee)}
	for _, e := range emps {
		r.employees[e.ID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) Create(_ context.Context, emp *employee.Employee) error {
	r.employees[emp.ID] = emp
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id int64) (*employee.Employee, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	emp, ok := r.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return emp, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, emp *employee.Employee) error {
	r.employees[emp.ID] = emp
	return nil
}

func (r *fakeEmployeeRepo) ListActive(_ context.Context) ([]*employee.Employee, error) {
	var out []*employee.Employee
	for _, e := range r.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEmployeeRepo) ListActiveByDepartments(_ context.Context, departments []string) ([]*employee.Employee, error) {
	wanted := make(map[string]bool, len(departments))
	for _, d := range departments {
		wanted[d] = true
	}
	var out []*employee.Employee
	for _, e := range r.employees {
		if e.IsActive && wanted[e.Department] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCycleRepo struct {
	cycles            map[int64]*cycle.ReviewCycle
	nextID            int64
	updateRunDatesErr map[int64]error
	deleted           []int64
}

func newFakeCycleRepo(cycles ...*cycle.ReviewCycle) *fakeCycleRepo {
	r := &fakeCycleRepo{cycles: make(map[int64]*cycle.ReviewCycle), nextID: 1}
	for _, c := range cycles {
		r.cycles[c.ID] = c
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *fakeCycleRepo) Create(_ context.Context, c *cycle.ReviewCycle) error {
	c.ID = r.nextID
	r.nextID++
	r.cycles[c.ID] = c
	return nil
}

func (r *fakeCycleRepo) GetByID(_ context.Context, id int64) (*cycle.ReviewCycle, error) {
	c, ok := r.cycles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (r *fakeCycleRepo) Update(_ context.Context, c *cycle.ReviewCycle) error {
	r.cycles[c.ID] = c
	return nil
}

func (r *fakeCycleRepo) Delete(_ context.Context, id int64) error {
	delete(r.cycles, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeCycleRepo) ListDue(_ context.Context, now time.Time) ([]*cycle.ReviewCycle, error) {
	var out []*cycle.ReviewCycle
	for _, c := range r.cycles {
		if c.IsActive && !c.NextRunDate.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCycleRepo) UpdateRunDates(_ context.Context, id int64, lastRun, nextRun time.Time) error {
	if err := r.updateRunDatesErr[id]; err != nil {
		return err
	}
	c, ok := r.cycles[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.LastRunDate = sql.NullTime{Time: lastRun, Valid: true}
	c.NextRunDate = nextRun
	return nil
}

type fakeReviewRepo struct {
	reviews    map[int64]*review.PerformanceReview
	responses  map[int64][]*review.Response
	nextID     int64
	batchSizes []int
	bulkErr    error
}

func newFakeReviewRepo(reviews ...*review.PerformanceReview) *fakeReviewRepo {
	r := &fakeReviewRepo{
		reviews:   make(map[int64]*review.PerformanceReview),
		responses: make(map[int64][]*review.Response),
		nextID:    1,
	}
	for _, rv := range reviews {
		r.reviews[rv.ID] = rv
		if rv.ID >= r.nextID {
			r.nextID = rv.ID + 1
		}
	}
	return r
}

func (r *fakeReviewRepo) Create(_ context.Context, rv *review.PerformanceReview) error {
	rv.ID = r.nextID
	r.nextID++
	r.reviews[rv.ID] = rv
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id int64) (*review.PerformanceReview, error) {
	rv, ok := r.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rv, nil
}

func (r *fakeReviewRepo) BulkCreateSkipDuplicates(_ context.Context, rows []*review.PerformanceReview) ([]review.Created, error) {
	if r.bulkErr != nil {
		return nil, r.bulkErr
	}
	r.batchSizes = append(r.batchSizes, len(rows))
	var created []review.Created
	for _, row := range rows {
		if r.hasReviewFor(row.EmployeeID, row.CycleID) {
			continue
		}
		cp := *row
		cp.ID = r.nextID
		r.nextID++
		r.reviews[cp.ID] = &cp
		created = append(created, review.Created{ID: cp.ID, EmployeeID: cp.EmployeeID})
	}
	return created, nil
}

func (r *fakeReviewRepo) hasReviewFor(employeeID int64, cycleID sql.NullInt64) bool {
	if !cycleID.Valid {
		return false
	}
	for _, rv := range r.reviews {
		if rv.EmployeeID == employeeID && rv.CycleID.Valid && rv.CycleID.Int64 == cycleID.Int64 {
			return true
		}
	}
	return false
}

func (r *fakeReviewRepo) ListResponses(_ context.Context, reviewID int64) ([]*review.Response, error) {
	return r.responses[reviewID], nil
}

func (r *fakeReviewRepo) upsertAnswers(reviewID int64, phase review.Phase, answers []review.Answer) {
	byQuestion := make(map[int64]*review.Response)
	for _, resp := range r.responses[reviewID] {
		byQuestion[resp.QuestionID] = resp
	}
	for _, a := range answers {
		resp, ok := byQuestion[a.QuestionID]
		if !ok {
			resp = &review.Response{ReviewID: reviewID, QuestionID: a.QuestionID}
			byQuestion[a.QuestionID] = resp
			r.responses[reviewID] = append(r.responses[reviewID], resp)
		}
		if phase == review.PhaseSelf {
			if a.Rating != 0 {
				resp.SelfRating = sql.NullInt64{Int64: int64(a.Rating), Valid: true}
			}
			if a.Comment != "" {
				resp.SelfComment = sql.NullString{String: a.Comment, Valid: true}
			}
		} else {
			if a.Rating != 0 {
				resp.ManagerRating = sql.NullInt64{Int64: int64(a.Rating), Valid: true}
			}
			if a.Comment != "" {
				resp.ManagerComment = sql.NullString{String: a.Comment, Valid: true}
			}
		}
	}
}

func (r *fakeReviewRepo) SaveDraftResponses(_ context.Context, reviewID int64, phase review.Phase, answers []review.Answer) error {
	rv, ok := r.reviews[reviewID]
	if !ok {
		return sql.ErrNoRows
	}
	r.upsertAnswers(reviewID, phase, answers)
	rv.IsDraft = true
	return nil
}

func (r *fakeReviewRepo) CompleteEmployeePhase(_ context.Context, reviewID int64, answers []review.Answer) error {
	rv, ok := r.reviews[reviewID]
	if !ok || rv.Status != review.StatusPendingEmployee {
		return sql.ErrNoRows
	}
	r.upsertAnswers(reviewID, review.PhaseSelf, answers)
	rv.Status = review.StatusPendingManager
	rv.IsDraft = false
	return nil
}

func (r *fakeReviewRepo) CompleteManagerPhase(_ context.Context, reviewID int64, answers []review.Answer, overall sql.NullFloat64, completedAt time.Time) error {
	rv, ok := r.reviews[reviewID]
	if !ok || rv.Status != review.StatusPendingManager {
		return sql.ErrNoRows
	}
	r.upsertAnswers(reviewID, review.PhaseManager, answers)
	rv.Status = review.StatusCompleted
	rv.OverallScore = overall
	rv.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	rv.IsDraft = false
	return nil
}

func (r *fakeReviewRepo) ListPendingEmployeeDue(_ context.Context) ([]*review.PerformanceReview, error) {
	var out []*review.PerformanceReview
	for _, rv := range r.reviews {
		if rv.Status == review.StatusPendingEmployee && rv.DueDate.Valid {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeReviewRepo) ListPendingByCycle(_ context.Context, cycleID int64) ([]*review.PerformanceReview, error) {
	var out []*review.PerformanceReview
	for _, rv := range r.reviews {
		if !rv.CycleID.Valid || rv.CycleID.Int64 != cycleID {
			continue
		}
		if rv.Status == review.StatusPendingEmployee || rv.Status == review.StatusPendingManager {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeReviewRepo) CountByCycle(_ context.Context, cycleID int64) (int, error) {
	count := 0
	for _, rv := range r.reviews {
		if rv.CycleID.Valid && rv.CycleID.Int64 == cycleID {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	notifications []*notification.Notification
	nextID        int64
	clock         func() time.Time
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, clock: time.Now}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	n.ID = r.nextID
	r.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.clock()
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) Exists(_ context.Context, userID int64, typ notification.Type, link string, since time.Time) (bool, error) {
	for _, n := range r.notifications {
		if n.UserID == userID && n.Type == typ && n.Link.Valid && n.Link.String == link && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int64) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int64) error {
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID int64) error {
	for i, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeNotificationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*notification.Notification
	var deleted int64
	for _, n := range r.notifications {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return deleted, nil
}

func (r *fakeNotificationRepo) byType(typ notification.Type) []*notification.Notification {
	var out []*notification.Notification
	for _, n := range r.notifications {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fakeTemplateRepo struct {
	templates map[int64]*template.ReviewTemplate
	questions map[int64][]*template.Question
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{
		templates: make(map[int64]*template.ReviewTemplate),
		questions: make(map[int64][]*template.Question),
	}
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id int64) (*template.ReviewTemplate, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (r *fakeTemplateRepo) ListQuestions(_ context.Context, templateID int64) ([]*template.Question, error) {
	return r.questions[templateID], nil
}

func activeEmployee(id int64, managerID int64, dept string) *employee.Employee {
	e := &employee.Employee{
		ID:         id,
		Email:      emailFor(id),
		FirstName:  "Employee",
		Department: dept,
		Role:       employee.RoleEmployee,
		IsActive:   true,
	}
	if managerID != 0 {
		e.ManagerID = sql.NullInt64{Int64: managerID, Valid: true}
	}
	return e
}

func emailFor(id int64) string {
	return fmt.Sprintf("user%d@example.com", id)
}

func sqlTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
