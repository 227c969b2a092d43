//go:build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/mystery-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test suite to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite")
var caseFileFlag = flag.String("casefile", "", "Override the case file for all suites (e.g., 'orchard_frost.yaml')")
var keepFlag = flag.Bool("keep", false, "Keep investigations after each suite for inspection")

func TestMain(m *testing.M) {
	fmt.Printf("Running Mystery Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func TestIntegrationSuites(t *testing.T) {
	if *caseFlag != "" {
		t.Skip("Running selected suites only (see TestSingleSuite)")
	}

	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	testRunner := newRunner(runner.ErrorHandlingContinue)
	if testRunner.CaseOverride != "" {
		t.Logf("Case file override enabled: %s", testRunner.CaseOverride)
	}
	runFiles(t, testRunner, files, 1)
}

// TestSingleSuite runs selected suites, optionally several times
// Supports multiple suites comma-separated: -case "contradictions,daily_puzzle"
func TestSingleSuite(t *testing.T) {
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}

	var files []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		files = append(files, filepath.Join("cases", name))
	}
	if len(files) == 0 {
		t.Fatalf("No valid test suites found in -case flag: %s", *caseFlag)
	}

	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	if *runsFlag < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", *runsFlag)
	}

	mode := runner.ErrorHandlingMode(*errFlag)
	// Multiple runs always continue so the statistics are complete
	if *runsFlag > 1 {
		mode = runner.ErrorHandlingContinue
	}
	runFiles(t, newRunner(mode), files, *runsFlag)
}

func newRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.CaseOverride = *caseFileFlag
	r.KeepInvestigation = *keepFlag
	r.Logger = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

// failureDetail tracks information about a specific step failure
type failureDetail struct {
	suite string
	step  string
	error string
	run   int
}

type suiteStats struct {
	passes, failures int
}

func runFiles(t *testing.T, testRunner *runner.Runner, files []string, runs int) {
	t.Helper()

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	stats := make(map[string]suiteStats)
	var failures []failureDetail

	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}

		for i, job := range jobs {
			t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

			result, err := testRunner.RunSuite(ctx, job.Suite)
			if err != nil && result.Error == nil {
				result.Error = err
			}
			t.Logf("Investigation ID: %s", result.Investigation)

			s := stats[job.Name]
			if result.Error != nil {
				s.failures++
				t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
			} else {
				s.passes++
				t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(jobs), job.Name, result.Duration)
			}
			stats[job.Name] = s

			for _, step := range result.Results {
				if step.Success {
					t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
					continue
				}
				t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
				failures = append(failures, failureDetail{suite: job.Name, step: step.StepName, error: step.Error.Error(), run: run})
			}
			t.Logf("--------------------------------")

			if result.Error != nil && testRunner.ErrorHandlingMode == runner.ErrorHandlingExit {
				t.Fatalf("Test suite(s) had errors")
			}
		}
	}

	t.Log(buildReport(runs, stats, failures))
	if len(failures) > 0 {
		t.Fatalf("Integration tests failed")
	}
}

// buildReport summarises pass rates per suite and groups failures by step
func buildReport(runs int, stats map[string]suiteStats, failures []failureDetail) string {
	var sb strings.Builder

	names := make([]string, 0, len(stats))
	total, passed := 0, 0
	for name, s := range stats {
		names = append(names, name)
		total += s.passes + s.failures
		passed += s.passes
	}
	sort.Strings(names)

	sb.WriteString("\nIntegration Test Summary:\n")
	if total > 0 {
		fmt.Fprintf(&sb, "   Passed: %d/%d (%.1f%%)\n", passed, total, float64(passed)/float64(total)*100)
	}
	if runs > 1 {
		for _, name := range names {
			s := stats[name]
			fmt.Fprintf(&sb, "  %s: %d/%d passes\n", name, s.passes, s.passes+s.failures)
			if s.passes > 0 && s.failures > 0 {
				sb.WriteString("    ⚠️  FLAKY: This suite both passed and failed across runs\n")
			}
		}
	}

	if len(failures) == 0 {
		return sb.String()
	}

	sort.SliceStable(failures, func(i, j int) bool {
		if failures[i].suite != failures[j].suite {
			return failures[i].suite < failures[j].suite
		}
		return failures[i].step < failures[j].step
	})
	sb.WriteString("\nFailures:\n")
	for _, f := range failures {
		fmt.Fprintf(&sb, "  ✗ %s / %s (run %d):\n      %s\n", f.suite, f.step, f.run, f.error)
	}
	return sb.String()
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func getIntEnv(name string, defaultValue int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return defaultValue
	}
	return val
}
