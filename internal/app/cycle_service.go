package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"performance_review_service/internal/domain/cycle"
	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/review"

	"github.com/sirupsen/logrus"
)

// Dispatcher enqueues best-effort background work (notification and email
// fan-out). Implemented by the outbox; tests substitute a synchronous fake.
type Dispatcher interface {
	Enqueue(name string, task func(ctx context.Context) error)
}

// reviewBatchSize bounds how many reviews go into a single bulk insert (and
// how many recipients share one grouped assignment email).
const reviewBatchSize = 50

// Custom application-level errors for cycle management
var ErrCycleHasReviews = fmt.Errorf("cycle still owns performance reviews and cannot be deleted")
var ErrCycleInactive = fmt.Errorf("cycle is not active")

// MissingManagersError reports target employees without an assigned manager.
// Instantiation is all-or-nothing on this check: no reviews are created for
// anybody until every target has a manager.
type MissingManagersError struct {
	EmployeeIDs []int64
}

func (e *MissingManagersError) Error() string {
	return fmt.Sprintf("%d employee(s) have no manager assigned: %v", len(e.EmployeeIDs), e.EmployeeIDs)
}

// CreateCycleInput carries the HR-facing fields for a new review cycle.
type CreateCycleInput struct {
	Name                string
	Description         string
	Frequency           cycle.Frequency
	StartDate           time.Time
	DueDate             *time.Time
	IncludeAllEmployees bool
	Departments         []string
	TemplateID          int64
	CreatedBy           int64
}

// InstantiationResult summarizes one instantiation run for a cycle.
type InstantiationResult struct {
	Requested int
	Created   int
	ReviewIDs []int64
}

// CycleResult is the per-cycle entry in a scheduler sweep summary.
type CycleResult struct {
	CycleID        int64
	CycleName      string
	ReviewsCreated int
	Err            string // empty on success
}

// SweepSummary is the structured result of one ProcessDueCycles invocation.
type SweepSummary struct {
	CyclesProcessed int
	Results         []CycleResult
}

// CycleService owns the review cycle lifecycle: HR management operations,
// the periodic due-cycle sweep, and batch review instantiation.
type CycleService struct {
	cycleRepo    cycle.Repository
	reviewRepo   review.Repository
	employeeRepo employee.Repository
	notifier     *Notifier
	dispatcher   Dispatcher
	logger       *logrus.Logger
	now          func() time.Time
}

func NewCycleService(
	cr cycle.Repository,
	rr review.Repository,
	er employee.Repository,
	notifier *Notifier,
	dispatcher Dispatcher,
	logger *logrus.Logger,
	now func() time.Time,
) *CycleService {
	return &CycleService{
		cycleRepo:    cr,
		reviewRepo:   rr,
		employeeRepo: er,
		notifier:     notifier,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          now,
	}
}

// CreateCycle validates and persists a new cycle. The first run happens at
// StartDate; each completed run advances NextRunDate by one frequency period.
func (s *CycleService) CreateCycle(ctx context.Context, input CreateCycleInput) (*cycle.ReviewCycle, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("cycle name is required")
	}
	if input.TemplateID == 0 {
		return nil, fmt.Errorf("cycle template is required")
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("cycle start date is required")
	}
	if !input.IncludeAllEmployees && len(input.Departments) == 0 {
		return nil, fmt.Errorf("cycle must target all employees or at least one department")
	}

	c := &cycle.ReviewCycle{
		Name:                input.Name,
		Frequency:           input.Frequency,
		StartDate:           input.StartDate,
		NextRunDate:         input.StartDate,
		IsActive:            true,
		IncludeAllEmployees: input.IncludeAllEmployees,
		Departments:         input.Departments,
		TemplateID:          input.TemplateID,
		CreatedBy:           input.CreatedBy,
	}
	if input.Description != "" {
		c.Description = sql.NullString{String: input.Description, Valid: true}
	}
	if input.DueDate != nil {
		c.DueDate = sql.NullTime{Time: *input.DueDate, Valid: true}
	}

	if err := s.cycleRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create cycle: %w", err)
	}
	s.logger.Infof("cycle %d (%q) created, first run at %s", c.ID, c.Name, c.NextRunDate.Format("2006-01-02"))

	created := *c
	s.dispatcher.Enqueue("cycle-created-notification", func(ctx context.Context) error {
		s.notifier.NotifyCycleCreated(ctx, created.CreatedBy, created.Name, created.ID)
		return nil
	})
	return c, nil
}

// SetActive toggles whether the scheduler picks the cycle up.
func (s *CycleService) SetActive(ctx context.Context, cycleID int64, active bool) (*cycle.ReviewCycle, error) {
	c, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if c.IsActive == active {
		return c, nil
	}
	c.IsActive = active
	if err := s.cycleRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update cycle %d: %w", cycleID, err)
	}
	return c, nil
}

// Rename updates the cycle's name and description.
func (s *CycleService) Rename(ctx context.Context, cycleID int64, name, description string) (*cycle.ReviewCycle, error) {
	if name == "" {
		return nil, fmt.Errorf("cycle name is required")
	}
	c, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = sql.NullString{String: description, Valid: description != ""}
	if err := s.cycleRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update cycle %d: %w", cycleID, err)
	}
	return c, nil
}

// DeleteCycle removes a cycle that owns no reviews. Cycles with dependent
// reviews are refused rather than silently orphaning them.
func (s *CycleService) DeleteCycle(ctx context.Context, cycleID int64) error {
	count, err := s.reviewRepo.CountByCycle(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("failed to count reviews for cycle %d: %w", cycleID, err)
	}
	if count > 0 {
		return ErrCycleHasReviews
	}
	return s.cycleRepo.Delete(ctx, cycleID)
}

// ProcessDueCycles is the scheduler entry point: it finds every active cycle
// whose next run date has arrived, instantiates its reviews, and reschedules
// it. A failure in one cycle is recorded in that cycle's result entry and
// does not abort the remaining cycles.
func (s *CycleService) ProcessDueCycles(ctx context.Context, now time.Time) (*SweepSummary, error) {
	dueCycles, err := s.cycleRepo.ListDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cycles: %w", err)
	}

	summary := &SweepSummary{}
	for _, c := range dueCycles {
		result := CycleResult{CycleID: c.ID, CycleName: c.Name}
		res, err := s.runCycle(ctx, c, now)
		if err != nil {
			s.logger.Errorf("cycle %d (%q) run failed: %v", c.ID, c.Name, err)
			result.Err = err.Error()
		} else {
			result.ReviewsCreated = res.Created
		}
		summary.Results = append(summary.Results, result)
		summary.CyclesProcessed++
	}
	return summary, nil
}

// RunCycleNow lets HR trigger a cycle run immediately instead of waiting for
// the scheduler, e.g. after fixing a missing manager assignment.
func (s *CycleService) RunCycleNow(ctx context.Context, cycleID int64) (*InstantiationResult, error) {
	c, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrCycleInactive
	}
	return s.runCycle(ctx, c, s.now())
}

func (s *CycleService) runCycle(ctx context.Context, c *cycle.ReviewCycle, now time.Time) (*InstantiationResult, error) {
	targets, err := s.resolveTargets(ctx, c)
	if err != nil {
		return nil, err
	}

	res, err := s.InstantiateCycle(ctx, c, targets)
	if err != nil {
		return nil, err
	}

	anchor := c.NextRunDate
	if anchor.IsZero() {
		anchor = now
	}
	nextRun := cycle.NextRun(anchor, c.Frequency)
	if err := s.cycleRepo.UpdateRunDates(ctx, c.ID, now, nextRun); err != nil {
		return res, fmt.Errorf("failed to reschedule cycle %d: %w", c.ID, err)
	}
	s.logger.Infof("cycle %d (%q): created %d of %d reviews, next run %s",
		c.ID, c.Name, res.Created, res.Requested, nextRun.Format("2006-01-02"))
	return res, nil
}

func (s *CycleService) resolveTargets(ctx context.Context, c *cycle.ReviewCycle) ([]*employee.Employee, error) {
	if c.IncludeAllEmployees {
		targets, err := s.employeeRepo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active employees: %w", err)
		}
		return targets, nil
	}
	targets, err := s.employeeRepo.ListActiveByDepartments(ctx, c.Departments)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees for departments %v: %w", c.Departments, err)
	}
	return targets, nil
}

// InstantiateCycle creates one PENDING_EMPLOYEE review per target employee,
// in bounded batches with duplicate-skip on (employee, cycle), so re-running
// the same cycle is idempotent. Every target must have a manager; otherwise
// the whole operation fails before anything is written.
func (s *CycleService) InstantiateCycle(ctx context.Context, c *cycle.ReviewCycle, targets []*employee.Employee) (*InstantiationResult, error) {
	var missing []int64
	for _, t := range targets {
		if !t.ManagerID.Valid {
			missing = append(missing, t.ID)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingManagersError{EmployeeIDs: missing}
	}

	result := &InstantiationResult{Requested: len(targets)}
	byID := make(map[int64]*employee.Employee, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
	}

	for start := 0; start < len(targets); start += reviewBatchSize {
		end := start + reviewBatchSize
		if end > len(targets) {
			end = len(targets)
		}
		batch := targets[start:end]

		rows := make([]*review.PerformanceReview, 0, len(batch))
		for _, t := range batch {
			rows = append(rows, &review.PerformanceReview{
				EmployeeID: t.ID,
				ManagerID:  t.ManagerID.Int64,
				TemplateID: c.TemplateID,
				CycleID:    sql.NullInt64{Int64: c.ID, Valid: true},
				Status:     review.StatusPendingEmployee,
				DueDate:    c.DueDate,
				IsDraft:    false,
			})
		}

		created, err := s.reviewRepo.BulkCreateSkipDuplicates(ctx, rows)
		if err != nil {
			return result, fmt.Errorf("bulk insert failed for cycle %d (batch %d-%d): %w", c.ID, start, end, err)
		}
		if len(created) == 0 {
			continue
		}

		result.Created += len(created)
		createdEmployees := make(map[int64]*employee.Employee, len(created))
		reviewIDs := make(map[int64]int64, len(created))
		for _, cr := range created {
			result.ReviewIDs = append(result.ReviewIDs, cr.ID)
			createdEmployees[cr.EmployeeID] = byID[cr.EmployeeID]
			reviewIDs[cr.EmployeeID] = cr.ID
		}

		cycleName, dueDate := c.Name, c.DueDate
		s.dispatcher.Enqueue("review-assignment-notifications", func(ctx context.Context) error {
			s.notifier.NotifyReviewsAssigned(ctx, cycleName, dueDate, createdEmployees, reviewIDs)
			return nil
		})
	}
	return result, nil
}
