package puzzle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrPuzzleNotPending is returned when answering a puzzle that is already
// solved, failed or expired
var ErrPuzzleNotPending = errors.New("puzzle is not pending")

const (
	MinDifficulty     = 1
	MaxDifficulty     = 3
	DefaultDifficulty = 2

	dateLayout = "2006-01-02"
)

// Evidence is a statement attributed to a character
type Evidence struct {
	Speaker   string
	Statement string
}

// Source supplies the true and false statements a puzzle is built from.
// A daily digest is the usual source.
type Source interface {
	Truths() []Evidence
	Lies() []Evidence
	EventIDs() []string
	Agents() []string
}

// placeholder is used when a source has too few facts or no lies
var placeholder = SpotTheLie{Statements: []Statement{
	{Speaker: "The Innkeeper", Statement: "I locked the cellar door at nightfall, as I always do."},
	{Speaker: "The Stranger", Statement: "I only arrived in town this morning.", IsLie: true},
	{Speaker: "The Fisherman", Statement: "The fog rolled in just after midnight."},
}}

// Engine generates and scores puzzles and owns the scoring rules for a case.
// It is not safe for concurrent use.
type Engine struct {
	rules      ScoringRules
	rng        *rand.Rand
	now        func() time.Time
	difficulty int
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the random source used to pick and order statements
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock sets the clock used for timestamps, expiry and calendar days
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDifficulty sets the difficulty used by GeneratePuzzle
func WithDifficulty(d int) Option {
	return func(e *Engine) { e.difficulty = clampDifficulty(d) }
}

// NewEngine creates a puzzle engine with the given scoring rules
func NewEngine(rules ScoringRules, opts ...Option) *Engine {
	e := &Engine{
		rules:      rules,
		now:        time.Now,
		difficulty: DefaultDifficulty,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(e.now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	return e
}

// Rules returns the engine's scoring rules
func (e *Engine) Rules() ScoringRules {
	return e.rules
}

func clampDifficulty(d int) int {
	if d < MinDifficulty || d > MaxDifficulty {
		return DefaultDifficulty
	}
	return d
}

// nextMidnight returns the start of the calendar day after t in t's location
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func (e *Engine) today() string {
	return e.now().Format(dateLayout)
}

// GeneratePuzzle builds a puzzle at the engine's configured difficulty
func (e *Engine) GeneratePuzzle(src Source) *Puzzle {
	return e.GeneratePuzzleWithDifficulty(src, e.difficulty)
}

// GeneratePuzzleWithDifficulty builds a spot-the-lie puzzle from two random
// truths and one random lie. When the source has fewer than two distinct
// truths or no lies, fixed placeholder statements are used instead.
func (e *Engine) GeneratePuzzleWithDifficulty(src Source, difficulty int) *Puzzle {
	now := e.now()
	p := &Puzzle{
		ID:          "puzzle_" + uuid.NewString(),
		Type:        TypeSpotTheLie,
		GeneratedAt: now,
		ExpiresAt:   nextMidnight(now),
		Difficulty:  clampDifficulty(difficulty),
		Status:      StatusPending,
		SourceContext: SourceContext{
			EventIDs: []string{},
			Agents:   []string{},
		},
	}

	var truths, lies []Evidence
	if src != nil {
		truths = distinct(src.Truths())
		lies = src.Lies()
	}

	if len(truths) < 2 || len(lies) == 0 {
		content := SpotTheLie{Statements: append([]Statement(nil), placeholder.Statements...)}
		p.Content = content
		p.CorrectAnswer = lieIndex(content.Statements)
		return p
	}

	e.rng.Shuffle(len(truths), func(i, j int) { truths[i], truths[j] = truths[j], truths[i] })
	lie := lies[e.rng.IntN(len(lies))]

	statements := []Statement{
		{Speaker: truths[0].Speaker, Statement: truths[0].Statement},
		{Speaker: truths[1].Speaker, Statement: truths[1].Statement},
		{Speaker: lie.Speaker, Statement: lie.Statement, IsLie: true},
	}
	e.rng.Shuffle(len(statements), func(i, j int) { statements[i], statements[j] = statements[j], statements[i] })

	p.Content = SpotTheLie{Statements: statements}
	p.CorrectAnswer = lieIndex(statements)
	p.SourceContext = SourceContext{
		EventIDs: append([]string{}, src.EventIDs()...),
		Agents:   append([]string{}, src.Agents()...),
	}
	return p
}

// distinct drops repeated statements, keeping the first speaker of each
func distinct(in []Evidence) []Evidence {
	seen := make(map[string]bool, len(in))
	out := make([]Evidence, 0, len(in))
	for _, ev := range in {
		key := strings.ToLower(strings.TrimSpace(ev.Statement))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ev)
	}
	return out
}

func lieIndex(statements []Statement) string {
	for i, s := range statements {
		if s.IsLie {
			return strconv.Itoa(i + 1)
		}
	}
	return ""
}

// Refresh expires a pending puzzle whose deadline has passed and reports
// whether it did
func (e *Engine) Refresh(p *Puzzle) bool {
	if p == nil || p.Status != StatusPending {
		return false
	}
	if e.now().After(p.ExpiresAt) {
		p.Status = StatusExpired
		return true
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SolvePuzzle scores an answer. The puzzle is updated in place; progress is
// copied, never modified. Answering a puzzle that is not pending returns
// ErrPuzzleNotPending. An answer after the deadline expires the puzzle,
// earns nothing and leaves the streak as it was.
func (e *Engine) SolvePuzzle(p *Puzzle, userAnswer string, progress *CaseProgress) (*Outcome, error) {
	if p.Status != StatusPending {
		return nil, fmt.Errorf("%w: puzzle %s is %s", ErrPuzzleNotPending, p.ID, p.Status)
	}

	now := e.now()
	if now.After(p.ExpiresAt) {
		p.Status = StatusExpired
		result := Result{
			Expired:         true,
			NewTotal:        progress.ProgressPoints,
			ProgressPercent: percent(progress.ProgressPoints, e.pointsToSolve(progress)),
			CaseSolved:      progress.Status == CaseSolved,
			StreakBroken:    progress.CurrentStreak > 0,
			CorrectAnswer:   p.CorrectAnswer,
		}
		// Expiry reports a broken streak but leaves the counters alone, the
		// same as an expiry found by Refresh
		updated := progress.Clone()
		if updated.TodaysPuzzle != nil && updated.TodaysPuzzle.ID == p.ID {
			updated.TodaysPuzzle = nil
		}
		return &Outcome{Puzzle: p, Progress: updated, Result: result}, nil
	}

	p.Attempts++
	p.UserAnswer = userAnswer
	correct := normalizeAnswer(userAnswer) == normalizeAnswer(p.CorrectAnswer)
	if correct {
		p.Status = StatusSolved
		p.SolvedAt = &now
	} else {
		p.Status = StatusFailed
	}

	result := e.CalculateResult(p, correct, progress)
	updated := e.UpdateProgress(progress, result, p)
	return &Outcome{Puzzle: p, Progress: updated, Result: result}, nil
}

// CalculateResult scores an answer against the current progress. Difficulty
// multiplies the base points before the flat streak bonus is added, and the
// bonus applies only when the streak before this answer was at least two.
func (e *Engine) CalculateResult(p *Puzzle, correct bool, progress *CaseProgress) Result {
	var points, newStreak int
	streakBroken := false

	if correct {
		points = e.rules.CorrectBase
		if e.rules.DifficultyMultiplier {
			points *= p.Difficulty
		}
		if progress.CurrentStreak >= 2 {
			points += e.rules.StreakBonus
		}
		newStreak = progress.CurrentStreak + 1
	} else {
		points = -e.rules.WrongPenalty
		newStreak = 0
		streakBroken = progress.CurrentStreak > 0
	}

	newTotal := max(0, progress.ProgressPoints+points)
	target := e.pointsToSolve(progress)
	return Result{
		Correct:         correct,
		PointsEarned:    points,
		NewTotal:        newTotal,
		ProgressPercent: percent(newTotal, target),
		CaseSolved:      newTotal >= target,
		StreakBroken:    streakBroken,
		NewStreak:       newStreak,
		CorrectAnswer:   p.CorrectAnswer,
	}
}

func (e *Engine) pointsToSolve(progress *CaseProgress) int {
	if progress != nil && progress.PointsToSolve > 0 {
		return progress.PointsToSolve
	}
	return e.rules.PointsToSolve
}

func percent(total, target int) float64 {
	if target <= 0 {
		return 100
	}
	return min(100, float64(total)/float64(target)*100)
}

// UpdateProgress applies a result to a copy of progress. A case that reaches
// its threshold is marked solved and stays solved.
func (e *Engine) UpdateProgress(progress *CaseProgress, result Result, p *Puzzle) *CaseProgress {
	updated := progress.Clone()
	updated.ProgressPoints = result.NewTotal
	updated.CurrentStreak = result.NewStreak
	updated.LongestStreak = max(updated.LongestStreak, result.NewStreak)

	if result.Correct {
		updated.PuzzlesSolved++
		if clue := exposedLie(p); clue != "" && !contains(updated.CluesDiscovered, clue) {
			updated.CluesDiscovered = append(updated.CluesDiscovered, clue)
		}
	} else {
		updated.PuzzlesFailed++
	}

	if result.CaseSolved && updated.Status != CaseSolved {
		now := e.now()
		updated.Status = CaseSolved
		updated.SolvedAt = &now
	}

	updated.TodaysPuzzle = nil
	updated.LastPuzzleDate = e.today()
	return updated
}

func exposedLie(p *Puzzle) string {
	if p == nil {
		return ""
	}
	content, ok := p.SpotTheLie()
	if !ok {
		return ""
	}
	for _, s := range content.Statements {
		if s.IsLie {
			return fmt.Sprintf("%s lied: %q", s.Speaker, s.Statement)
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsPuzzleAvailable reports whether a new puzzle may be offered: the case is
// active, no puzzle is pending, and no puzzle was answered today.
func (e *Engine) IsPuzzleAvailable(progress *CaseProgress) bool {
	if progress == nil || progress.Status != CaseActive {
		return false
	}
	if progress.TodaysPuzzle != nil && progress.TodaysPuzzle.Status == StatusPending {
		return false
	}
	return progress.LastPuzzleDate != e.today()
}

// CreateCaseProgress starts a new investigation
func (e *Engine) CreateCaseProgress(caseID, caseName string) *CaseProgress {
	return &CaseProgress{
		CaseID:          caseID,
		CaseName:        caseName,
		PointsToSolve:   e.rules.PointsToSolve,
		CluesDiscovered: []string{},
		SuspectsCleared: []string{},
		Status:          CaseActive,
		StartedAt:       e.now(),
	}
}

// Abandon returns a copy of progress marked abandoned. Solved cases stay solved.
func (e *Engine) Abandon(progress *CaseProgress) *CaseProgress {
	updated := progress.Clone()
	if updated.Status == CaseActive {
		updated.Status = CaseAbandoned
	}
	return updated
}
