package review

import (
	"database/sql"
)

// Response holds both phases' answers to a single template question. The
// employee phase creates the row; the manager phase upserts its columns onto
// the same row (or creates it for manager-only questions).
// One row per (review_id, question_id).
type Response struct {
	ID             int64
	ReviewID       int64
	QuestionID     int64
	SelfRating     sql.NullInt64 // 1-4
	SelfComment    sql.NullString
	ManagerRating  sql.NullInt64 // 1-4
	ManagerComment sql.NullString
}

// Answer is one submitted answer to a question, before it is attached to
// either the self or the manager side of a Response.
type Answer struct {
	QuestionID int64
	Rating     int // 1-4, 0 when the question was left unrated
	Comment    string
}

// RatingMin and RatingMax bound a single question rating.
const (
	RatingMin = 1
	RatingMax = 4
)

// OverallScore averages the recorded ratings across all responses. Per
// question the manager rating takes precedence over the self rating;
// questions with neither rating are excluded. Returns an invalid NullFloat64
// when no ratings exist at all.
func OverallScore(responses []*Response) sql.NullFloat64 {
	var sum float64
	var n int
	for _, r := range responses {
		switch {
		case r.ManagerRating.Valid:
			sum += float64(r.ManagerRating.Int64)
			n++
		case r.SelfRating.Valid:
			sum += float64(r.SelfRating.Int64)
			n++
		}
	}
	if n == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: sum / float64(n), Valid: true}
}
