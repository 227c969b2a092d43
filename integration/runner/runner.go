package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/internal/handlers"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays investigations against a running mystery-engine API and worker
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	CaseOverride      string // If set, overrides the case file for all suites
	KeepInvestigation bool
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and, if it is a sequence,
// the suites it references
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	return loadExpanded(filename, casesDir, map[string]bool{})
}

func loadExpanded(filename, casesDir string, seen map[string]bool) ([]TestJob, error) {
	if seen[filename] {
		return nil, fmt.Errorf("sequence cycle at %s", filename)
	}
	seen[filename] = true
	defer delete(seen, filename)

	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}
	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := loadExpanded(filepath.Join(casesDir, caseFile), casesDir, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite opens a fresh investigation and executes the suite's steps in order
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	caseFile := suite.CaseFile
	if r.CaseOverride != "" {
		caseFile = r.CaseOverride
	}
	view, err := CreateInvestigation(ctx, r.Client, r.BaseURL, caseFile)
	if err != nil {
		result.Error = fmt.Errorf("failed to open investigation: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Investigation = view.ID

	if !r.KeepInvestigation {
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := DeleteInvestigation(cleanupCtx, r.Client, r.BaseURL, view.ID); err != nil {
				r.Logger("    cleanup of %s failed: %v", view.ID, err)
			}
		}()
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running %s step: %s", i+1, len(suite.Steps), step.Kind(), step.Name)
		stepResult := r.runStep(ctx, view.ID, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single step and checks its expectations
func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout+ProcessTimeout)
	defer cancel()

	st, requestID, err := r.execute(stepCtx, id, step)
	result.RequestID = requestID
	if err == nil {
		err = checkExpectations(step.Expectations, st)
		if err != nil {
			err = fmt.Errorf("expectation failed: %w", err)
		}
	}

	result.Error = err
	result.Success = err == nil
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) execute(ctx context.Context, id uuid.UUID, step TestStep) (*StepState, string, error) {
	st := &StepState{}
	base := fmt.Sprintf("%s/v1/investigations/%s", r.BaseURL, id)
	var requestID string

	switch step.Kind() {
	case "activity":
		pre, err := GetInvestigation(ctx, r.Client, r.BaseURL, id)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get investigation before activity: %w", err)
		}
		requestID, err = PostActivity(ctx, r.Client, r.BaseURL, id, step.Activity)
		if err != nil {
			return nil, "", fmt.Errorf("failed to post activity: %w", err)
		}
		st.View, err = PollForProcessing(ctx, r.Client, r.BaseURL, id, pre.UpdatedAt)
		if err != nil {
			return nil, requestID, err
		}
		return st, requestID, nil

	case "digest":
		var d handlers.DigestResponse
		if err := callJSON(ctx, r.Client, http.MethodGet, base+"/digest", nil, http.StatusOK, &d); err != nil {
			return nil, "", err
		}
		st.Digest = &d

	case "answer":
		status, data, err := call(ctx, r.Client, http.MethodPost, base+"/answer", handlers.AnswerRequest{Answer: step.Answer})
		if err != nil {
			return nil, "", err
		}
		st.StatusCode = status
		st.Response = string(data)
		if status == http.StatusOK {
			var o puzzle.Outcome
			if err := json.Unmarshal(data, &o); err != nil {
				return nil, "", fmt.Errorf("failed to decode outcome: %w", err)
			}
			st.Outcome = &o
		} else if step.Expectations.StatusCode == nil {
			return nil, "", fmt.Errorf("answer returned %d: %s", status, st.Response)
		}

	case "suspicions":
		var s handlers.SuspicionsResponse
		if err := callJSON(ctx, r.Client, http.MethodGet, base+"/suspicions", nil, http.StatusOK, &s); err != nil {
			return nil, "", err
		}
		st.Response = s.Text

	case "abandon":
		if err := callJSON(ctx, r.Client, http.MethodPost, base+"/abandon", nil, http.StatusOK, nil); err != nil {
			return nil, "", err
		}
	}

	view, err := GetInvestigation(ctx, r.Client, r.BaseURL, id)
	if err != nil {
		return nil, requestID, fmt.Errorf("failed to get investigation: %w", err)
	}
	st.View = view
	return st, requestID, nil
}

// checkExpectations validates a step's expectations against what was observed
func checkExpectations(exp Expectations, st *StepState) error {
	view := st.View
	if view == nil {
		return fmt.Errorf("no investigation view to check")
	}

	if exp.Facts != nil && view.Facts != *exp.Facts {
		return fmt.Errorf("expected %d facts, got %d", *exp.Facts, view.Facts)
	}
	if exp.MinFacts != nil && view.Facts < *exp.MinFacts {
		return fmt.Errorf("expected at least %d facts, got %d", *exp.MinFacts, view.Facts)
	}
	if exp.SuspiciousFacts != nil && view.SuspiciousFacts != *exp.SuspiciousFacts {
		return fmt.Errorf("expected %d suspicious facts, got %d", *exp.SuspiciousFacts, view.SuspiciousFacts)
	}
	if exp.MinSuspiciousFacts != nil && view.SuspiciousFacts < *exp.MinSuspiciousFacts {
		return fmt.Errorf("expected at least %d suspicious facts, got %d", *exp.MinSuspiciousFacts, view.SuspiciousFacts)
	}
	if exp.PendingConversations != nil && view.PendingConversations != *exp.PendingConversations {
		return fmt.Errorf("expected %d pending conversations, got %d", *exp.PendingConversations, view.PendingConversations)
	}
	if exp.PendingActivities != nil && view.PendingActivities != *exp.PendingActivities {
		return fmt.Errorf("expected %d pending activities, got %d", *exp.PendingActivities, view.PendingActivities)
	}

	if exp.CaseStatus != nil || exp.MinProgressPoints != nil {
		if view.Progress == nil {
			return fmt.Errorf("investigation has no progress")
		}
		if exp.CaseStatus != nil && view.Progress.Status != *exp.CaseStatus {
			return fmt.Errorf("expected case status %s, got %s", *exp.CaseStatus, view.Progress.Status)
		}
		if exp.MinProgressPoints != nil && view.Progress.ProgressPoints < *exp.MinProgressPoints {
			return fmt.Errorf("expected at least %d progress points, got %d", *exp.MinProgressPoints, view.Progress.ProgressPoints)
		}
	}

	if exp.DigestNew != nil || exp.MinDigestEvents != nil || exp.PuzzleType != nil || exp.PuzzleStatus != nil {
		if st.Digest == nil || st.Digest.Digest == nil {
			return fmt.Errorf("expected a digest, got none")
		}
		d := st.Digest
		if exp.DigestNew != nil && d.New != *exp.DigestNew {
			return fmt.Errorf("expected digest new=%t, got %t", *exp.DigestNew, d.New)
		}
		if exp.MinDigestEvents != nil && len(d.Digest.Events) < *exp.MinDigestEvents {
			return fmt.Errorf("expected at least %d digest events, got %d", *exp.MinDigestEvents, len(d.Digest.Events))
		}
		if exp.PuzzleType != nil || exp.PuzzleStatus != nil {
			p := d.Digest.Puzzle
			if p == nil {
				return fmt.Errorf("expected a puzzle in the digest, got none")
			}
			if exp.PuzzleType != nil && p.Type != *exp.PuzzleType {
				return fmt.Errorf("expected puzzle type %s, got %s", *exp.PuzzleType, p.Type)
			}
			if exp.PuzzleStatus != nil && p.Status != *exp.PuzzleStatus {
				return fmt.Errorf("expected puzzle status %s, got %s", *exp.PuzzleStatus, p.Status)
			}
		}
	}

	if exp.StatusCode != nil && st.StatusCode != *exp.StatusCode {
		return fmt.Errorf("expected status %d, got %d: %s", *exp.StatusCode, st.StatusCode, st.Response)
	}

	if len(exp.ResponseContains) > 0 {
		lower := strings.ToLower(st.Response)
		for _, want := range exp.ResponseContains {
			if !strings.Contains(lower, strings.ToLower(want)) {
				return fmt.Errorf("expected response to contain '%s', but it didn't", want)
			}
		}
	}

	return nil
}
