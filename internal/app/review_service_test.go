package app

import (
	"context"
	"testing"
	"time"

	"performance_review_service/internal/domain/employee"
	"performance_review_service/internal/domain/notification"
	"performance_review_service/internal/domain/review"
	"performance_review_service/internal/domain/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	svc       *ReviewService
	reviews   *fakeReviewRepo
	employees *fakeEmployeeRepo
	templates *fakeTemplateRepo
	notifs    *fakeNotificationRepo
	mail      *fakeMailer
	now       time.Time
}

func newReviewFixture(rv *review.PerformanceReview) *reviewFixture {
	f := &reviewFixture{
		reviews:   newFakeReviewRepo(rv),
		templates: newFakeTemplateRepo(),
		notifs:    newFakeNotificationRepo(),
		mail:      &fakeMailer{},
		now:       time.Date(2025, time.January, 20, 15, 0, 0, 0, time.UTC),
	}
	emp := activeEmployee(rv.EmployeeID, rv.ManagerID, "Engineering")
	mgr := activeEmployee(rv.ManagerID, 0, "Engineering")
	mgr.Role = employee.RoleManager
	f.employees = newFakeEmployeeRepo(emp, mgr)

	log := discardLogger()
	notifier := NewNotifier(f.notifs, f.mail, "https://reviews.example.com", log)
	f.svc = NewReviewService(f.reviews, f.employees, f.templates, notifier, &syncDispatcher{}, log, func() time.Time { return f.now })
	return f
}

func pendingEmployeeReview() *review.PerformanceReview {
	return &review.PerformanceReview{
		ID:         1,
		EmployeeID: 5,
		ManagerID:  9,
		TemplateID: 7,
		Status:     review.StatusPendingEmployee,
	}
}

func TestReviewWorkflow_HappyPath(t *testing.T) {
	rv := pendingEmployeeReview()
	f := newReviewFixture(rv)
	ctx := context.Background()

	err := f.svc.SubmitEmployeeResponses(ctx, 1, 5, []review.Answer{
		{QuestionID: 1, Rating: 3, Comment: "Shipped the migration"},
		{QuestionID: 2, Rating: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingManager, rv.Status)
	assert.False(t, rv.CompletedAt.Valid)

	submitted := f.notifs.byType(notification.TypeReviewSubmitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, int64(9), submitted[0].UserID, "the manager is told their evaluation is next")

	err = f.svc.SubmitManagerResponses(ctx, 1, 9, []review.Answer{
		{QuestionID: 1, Rating: 4, Comment: "Strong quarter"},
	})
	require.NoError(t, err)
	assert.Equal(t, review.StatusCompleted, rv.Status)

	// q1: manager 4 overrides self 3; q2: self 2 stands. Mean is 3.0.
	require.True(t, rv.OverallScore.Valid)
	assert.InDelta(t, 3.0, rv.OverallScore.Float64, 0.0001)
	require.True(t, rv.CompletedAt.Valid)
	assert.Equal(t, f.now, rv.CompletedAt.Time)

	completed := f.notifs.byType(notification.TypeReviewCompleted)
	assert.Len(t, completed, 2, "both participants hear about completion")
}

func TestSubmit_RejectsWrongActor(t *testing.T) {
	ctx := context.Background()
	answers := []review.Answer{{QuestionID: 1, Rating: 3}}

	f := newReviewFixture(pendingEmployeeReview())
	assert.ErrorIs(t, f.svc.SubmitEmployeeResponses(ctx, 1, 9, answers), ErrNotReviewActor,
		"the manager cannot fill in the self-evaluation")
	assert.ErrorIs(t, f.svc.SubmitEmployeeResponses(ctx, 1, 42, answers), ErrNotReviewActor)

	rv := pendingEmployeeReview()
	rv.Status = review.StatusPendingManager
	f = newReviewFixture(rv)
	assert.ErrorIs(t, f.svc.SubmitManagerResponses(ctx, 1, 5, answers), ErrNotReviewActor,
		"the employee cannot fill in the manager evaluation")
}

func TestSubmit_RejectsWrongState(t *testing.T) {
	ctx := context.Background()
	answers := []review.Answer{{QuestionID: 1, Rating: 3}}

	rv := pendingEmployeeReview()
	f := newReviewFixture(rv)
	assert.ErrorIs(t, f.svc.SubmitManagerResponses(ctx, 1, 9, answers), ErrInvalidReviewState,
		"manager evaluation waits for the self-evaluation")

	rv = pendingEmployeeReview()
	rv.Status = review.StatusPendingManager
	f = newReviewFixture(rv)
	assert.ErrorIs(t, f.svc.SubmitEmployeeResponses(ctx, 1, 5, answers), ErrInvalidReviewState)

	rv = pendingEmployeeReview()
	rv.Status = review.StatusCompleted
	f = newReviewFixture(rv)
	assert.ErrorIs(t, f.svc.SubmitEmployeeResponses(ctx, 1, 5, answers), ErrInvalidReviewState,
		"completed is terminal")
	assert.ErrorIs(t, f.svc.SubmitManagerResponses(ctx, 1, 9, answers), ErrInvalidReviewState)
}

func TestSubmit_ValidatesAnswers(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(pendingEmployeeReview())

	err := f.svc.SubmitEmployeeResponses(ctx, 1, 5, nil)
	assert.ErrorIs(t, err, ErrNoAnswers)

	err = f.svc.SubmitEmployeeResponses(ctx, 1, 5, []review.Answer{{QuestionID: 1, Rating: 5}})
	var rangeErr *RatingRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, int64(1), rangeErr.QuestionID)
	assert.Equal(t, 5, rangeErr.Rating)

	// A comment without a rating is a legal answer.
	err = f.svc.SubmitEmployeeResponses(ctx, 1, 5, []review.Answer{{QuestionID: 1, Comment: "Context only"}})
	assert.NoError(t, err)
}

func TestSaveDraft_DoesNotAdvanceWorkflow(t *testing.T) {
	ctx := context.Background()
	rv := pendingEmployeeReview()
	f := newReviewFixture(rv)

	err := f.svc.SaveDraft(ctx, 1, 5, []review.Answer{{QuestionID: 1, Rating: 2}})
	require.NoError(t, err)
	assert.Equal(t, review.StatusPendingEmployee, rv.Status, "a draft never changes the status")
	assert.True(t, rv.IsDraft)

	responses, _ := f.reviews.ListResponses(ctx, 1)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].SelfRating.Valid)

	assert.NoError(t, f.svc.SaveDraft(ctx, 1, 5, nil), "an empty autosave is a no-op")
	assert.ErrorIs(t, f.svc.SaveDraft(ctx, 1, 9, []review.Answer{{QuestionID: 1, Rating: 2}}), ErrNotReviewActor)

	rv.Status = review.StatusCompleted
	assert.ErrorIs(t, f.svc.SaveDraft(ctx, 1, 5, []review.Answer{{QuestionID: 1, Rating: 2}}), ErrInvalidReviewState)
}

func TestForm_FiltersQuestionsByRole(t *testing.T) {
	ctx := context.Background()
	rv := pendingEmployeeReview()
	f := newReviewFixture(rv)
	f.templates.questions[7] = []*template.Question{
		{ID: 1, Text: "How did the quarter go?"},
		{ID: 2, Text: "Promotion readiness?", VisibleTo: []string{"MANAGER", "HR"}},
	}
	require.NoError(t, f.svc.SaveDraft(ctx, 1, 5, []review.Answer{{QuestionID: 1, Rating: 3}}))

	empForm, err := f.svc.Form(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, empForm.Questions, 1, "manager-only questions are hidden from the employee")
	assert.Equal(t, int64(1), empForm.Questions[0].Question.ID)
	require.NotNil(t, empForm.Questions[0].Response)
	assert.True(t, empForm.Questions[0].Response.SelfRating.Valid)

	mgrForm, err := f.svc.Form(ctx, 1, 9)
	require.NoError(t, err)
	assert.Len(t, mgrForm.Questions, 2)

	_, err = f.svc.Form(ctx, 1, 42)
	assert.ErrorIs(t, err, ErrNotReviewActor, "only the participants may see the form")
}
