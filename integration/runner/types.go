package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/handlers"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

// TestSuite defines one investigation played against a running API.
// A suite either has Steps or references other suites through Cases.
type TestSuite struct {
	Name     string     `json:"name"`
	CaseFile string     `json:"case_file,omitempty"`
	Steps    []TestStep `json:"steps,omitempty"`
	Cases    []string   `json:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is a single action against the investigation. Exactly one of
// Activity, Digest, Answer, Suspicions or Abandon should be set.
type TestStep struct {
	Name       string                    `json:"name,omitempty"`
	Activity   *handlers.ActivityRequest `json:"activity,omitempty"`
	Digest     bool                      `json:"digest,omitempty"`
	Answer     string                    `json:"answer,omitempty"`
	Suspicions bool                      `json:"suspicions,omitempty"`
	Abandon    bool                      `json:"abandon,omitempty"`

	Expectations Expectations `json:"expect"`
}

// Kind names the action a step performs
func (s TestStep) Kind() string {
	switch {
	case s.Activity != nil:
		return "activity"
	case s.Digest:
		return "digest"
	case s.Answer != "":
		return "answer"
	case s.Suspicions:
		return "suspicions"
	case s.Abandon:
		return "abandon"
	default:
		return "check"
	}
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Investigation view
	Facts                *int               `json:"facts,omitempty"`
	MinFacts             *int               `json:"min_facts,omitempty"`
	SuspiciousFacts      *int               `json:"suspicious_facts,omitempty"`
	MinSuspiciousFacts   *int               `json:"min_suspicious_facts,omitempty"`
	PendingConversations *int               `json:"pending_conversations,omitempty"`
	PendingActivities    *int               `json:"pending_activities,omitempty"`
	CaseStatus           *puzzle.CaseStatus `json:"case_status,omitempty"`
	MinProgressPoints    *int               `json:"min_progress_points,omitempty"`

	// Digest steps
	DigestNew       *bool          `json:"digest_new,omitempty"`
	MinDigestEvents *int           `json:"min_digest_events,omitempty"`
	PuzzleType      *puzzle.Type   `json:"puzzle_type,omitempty"`
	PuzzleStatus    *puzzle.Status `json:"puzzle_status,omitempty"`

	// Answer and suspicion steps
	StatusCode       *int     `json:"status_code,omitempty"`
	ResponseContains []string `json:"response_contains,omitempty"`
}

// StepState is everything observed after a step, checked against its expectations
type StepState struct {
	View       *handlers.InvestigationView
	Digest     *handlers.DigestResponse
	Outcome    *puzzle.Outcome
	StatusCode int
	Response   string
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName  string
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	RequestID string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job           TestJob
	Results       []TestResult
	Investigation uuid.UUID
	Duration      time.Duration
	Error         error
}
