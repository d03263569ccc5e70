package app

import (
	"context"
	"fmt"
	"time"

	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/review"
	"performance_review_service/internal/domain/template"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the review workflow. Authorization and
// state failures are distinct so callers can render "not your review" versus
// "wrong phase".
var ErrNotReviewActor = fmt.Errorf("actor is not a participant of this review in its current phase")
var ErrInvalidReviewState = fmt.Errorf("review is not in a state that allows this action")
var ErrNoAnswers = fmt.Errorf("at least one answered question is required")

// RatingRangeError is a validation failure on a single answer.
type RatingRangeError struct {
	QuestionID int64
	Rating     int
}

func (e *RatingRangeError) Error() string {
	return fmt.Sprintf("rating %d for question %d is outside the allowed range %d-%d",
		e.Rating, e.QuestionID, review.RatingMin, review.RatingMax)
}

// FormQuestion pairs a template question with whatever answers exist so far.
type FormQuestion struct {
	Question *template.Question
	Response *review.Response // nil when nobody has answered yet
}

// Form is a review rendered for one actor: only the questions visible to
// their role, with current responses merged in.
type Form struct {
	Review    *review.PerformanceReview
	Questions []FormQuestion
}

// ReviewService drives a single review through its workflow:
// PENDING_EMPLOYEE -> PENDING_MANAGER -> COMPLETED. Actor checks are by id,
// never by role, so a manager who is also a reviewee elsewhere is handled
// correctly.
type ReviewService struct {
	reviewRepo   review.Repository
	employeeRepo employee.Repository
	templateRepo template.Repository
	notifier     *Notifier
	dispatcher   Dispatcher
	logger       *logrus.Logger
	now          func() time.Time
}

func NewReviewService(
	rr review.Repository,
	er employee.Repository,
	tr template.Repository,
	notifier *Notifier,
	dispatcher Dispatcher,
	logger *logrus.Logger,
	now func() time.Time,
) *ReviewService {
	return &ReviewService{
		reviewRepo:   rr,
		employeeRepo: er,
		templateRepo: tr,
		notifier:     notifier,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          now,
	}
}

func validateAnswers(answers []review.Answer) error {
	if len(answers) == 0 {
		return ErrNoAnswers
	}
	for _, a := range answers {
		// Rating 0 means "left unrated" (comment-only answer).
		if a.Rating != 0 && (a.Rating < review.RatingMin || a.Rating > review.RatingMax) {
			return &RatingRangeError{QuestionID: a.QuestionID, Rating: a.Rating}
		}
	}
	return nil
}

// SubmitEmployeeResponses persists the self-evaluation and advances the
// review to the manager phase. The response writes and the status change are
// one atomic unit: if any write fails, the status stays put.
func (s *ReviewService) SubmitEmployeeResponses(ctx context.Context, reviewID, actorID int64, answers []review.Answer) error {
	rv, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if actorID != rv.EmployeeID {
		return ErrNotReviewActor
	}
	if rv.Status != review.StatusPendingEmployee {
		return ErrInvalidReviewState
	}
	if err := validateAnswers(answers); err != nil {
		return err
	}

	if err := s.reviewRepo.CompleteEmployeePhase(ctx, reviewID, answers); err != nil {
		return fmt.Errorf("failed to submit self-evaluation for review %d: %w", reviewID, err)
	}
	s.logger.Infof("review %d: employee %d submitted, now pending manager %d", reviewID, rv.EmployeeID, rv.ManagerID)

	employeeID, managerID := rv.EmployeeID, rv.ManagerID
	s.dispatcher.Enqueue("employee-submitted-notification", func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("loading employee %d: %w", employeeID, err)
		}
		mgr, err := s.employeeRepo.GetByID(ctx, managerID)
		if err != nil {
			return fmt.Errorf("loading manager %d: %w", managerID, err)
		}
		s.notifier.NotifyEmployeeSubmitted(ctx, mgr, emp, reviewID)
		return nil
	})
	return nil
}

// SubmitManagerResponses persists the manager evaluation, computes the
// overall score, and completes the review. Per question the manager rating
// takes precedence over the self rating in the aggregate.
func (s *ReviewService) SubmitManagerResponses(ctx context.Context, reviewID, actorID int64, answers []review.Answer) error {
	rv, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if actorID != rv.ManagerID {
		return ErrNotReviewActor
	}
	if rv.Status != review.StatusPendingManager {
		return ErrInvalidReviewState
	}
	if err := validateAnswers(answers); err != nil {
		return err
	}

	existing, err := s.reviewRepo.ListResponses(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to load responses for review %d: %w", reviewID, err)
	}
	overall := review.OverallScore(mergeManagerAnswers(existing, answers))

	if err := s.reviewRepo.CompleteManagerPhase(ctx, reviewID, answers, overall, s.now()); err != nil {
		return fmt.Errorf("failed to complete review %d: %w", reviewID, err)
	}
	s.logger.Infof("review %d: completed by manager %d, overall score %.2f", reviewID, rv.ManagerID, overall.Float64)

	employeeID, managerID := rv.EmployeeID, rv.ManagerID
	s.dispatcher.Enqueue("review-completed-notification", func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("loading employee %d: %w", employeeID, err)
		}
		mgr, err := s.employeeRepo.GetByID(ctx, managerID)
		if err != nil {
			return fmt.Errorf("loading manager %d: %w", managerID, err)
		}
		s.notifier.NotifyReviewCompleted(ctx, emp, mgr, reviewID)
		return nil
	})
	return nil
}

// mergeManagerAnswers overlays the incoming manager answers onto the
// existing response rows, the same way the upsert will, so the overall score
// reflects the post-submission state.
func mergeManagerAnswers(existing []*review.Response, answers []review.Answer) []*review.Response {
	byQuestion := make(map[int64]*review.Response, len(existing))
	merged := make([]*review.Response, 0, len(existing)+len(answers))
	for _, r := range existing {
		cp := *r
		byQuestion[r.QuestionID] = &cp
		merged = append(merged, &cp)
	}
	for _, a := range answers {
		r, ok := byQuestion[a.QuestionID]
		if !ok {
			r = &review.Response{QuestionID: a.QuestionID}
			byQuestion[a.QuestionID] = r
			merged = append(merged, r)
		}
		if a.Rating != 0 {
			r.ManagerRating.Int64 = int64(a.Rating)
			r.ManagerRating.Valid = true
		}
	}
	return merged
}

// SaveDraft persists partial answers without advancing the workflow. Used by
// the client's autosave; unanswered questions are fine here.
func (s *ReviewService) SaveDraft(ctx context.Context, reviewID, actorID int64, answers []review.Answer) error {
	rv, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	var phase review.Phase
	switch rv.Status {
	case review.StatusPendingEmployee:
		if actorID != rv.EmployeeID {
			return ErrNotReviewActor
		}
		phase = review.PhaseSelf
	case review.StatusPendingManager:
		if actorID != rv.ManagerID {
			return ErrNotReviewActor
		}
		phase = review.PhaseManager
	default:
		return ErrInvalidReviewState
	}

	if len(answers) == 0 {
		return nil // nothing to save
	}
	for _, a := range answers {
		if a.Rating != 0 && (a.Rating < review.RatingMin || a.Rating > review.RatingMax) {
			return &RatingRangeError{QuestionID: a.QuestionID, Rating: a.Rating}
		}
	}

	if err := s.reviewRepo.SaveDraftResponses(ctx, reviewID, phase, answers); err != nil {
		return fmt.Errorf("failed to save draft for review %d: %w", reviewID, err)
	}
	return nil
}

// Form returns the review's questions as seen by the given actor: questions
// carrying a role filter are shown only to matching roles, questions without
// one to everyone.
func (s *ReviewService) Form(ctx context.Context, reviewID, actorID int64) (*Form, error) {
	rv, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if actorID != rv.EmployeeID && actorID != rv.ManagerID {
		return nil, ErrNotReviewActor
	}

	actor, err := s.employeeRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %d: %w", actorID, err)
	}

	questions, err := s.templateRepo.ListQuestions(ctx, rv.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for template %d: %w", rv.TemplateID, err)
	}
	responses, err := s.reviewRepo.ListResponses(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses for review %d: %w", reviewID, err)
	}
	byQuestion := make(map[int64]*review.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	form := &Form{Review: rv}
	for _, q := range questions {
		if !q.VisibleToRole(string(actor.Role)) {
			continue
		}
		form.Questions = append(form.Questions, FormQuestion{Question: q, Response: byQuestion[q.ID]})
	}
	return form, nil
}
