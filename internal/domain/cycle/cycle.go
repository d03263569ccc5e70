package cycle

import (
	"database/sql"
	"time"
)

// Frequency controls how often a review cycle re-runs.
type Frequency string

const (
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiAnnual Frequency = "SEMI_ANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

// ReviewCycle is a recurring campaign that generates a batch of performance
// reviews for a target population on each run.
// Corresponds to the 'review_cycles' table.
type ReviewCycle struct {
	ID          int64
	Name        string
	Description sql.NullString
	Frequency   Frequency
	StartDate   time.Time
	// DueDate, when set, is stamped onto every review the cycle generates.
	DueDate     sql.NullTime
	LastRunDate sql.NullTime
	NextRunDate time.Time
	IsActive    bool
	// Target population: either every active employee, or only the listed
	// departments. IncludeAllEmployees wins when both are set.
	IncludeAllEmployees bool
	Departments         []string
	TemplateID          int64
	CreatedBy           int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
