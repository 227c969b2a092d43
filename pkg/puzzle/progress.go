package puzzle

import "time"

// CaseStatus is the state of an investigation
type CaseStatus string

const (
	CaseActive    CaseStatus = "active"
	CaseSolved    CaseStatus = "solved"
	CaseAbandoned CaseStatus = "abandoned"
)

// CaseProgress tracks the scored investigation of one case
type CaseProgress struct {
	CaseID          string     `json:"case_id"`
	CaseName        string     `json:"case_name"`
	ProgressPoints  int        `json:"progress_points"`
	PointsToSolve   int        `json:"points_to_solve"`
	PuzzlesSolved   int        `json:"puzzles_solved"`
	PuzzlesFailed   int        `json:"puzzles_failed"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	CluesDiscovered []string   `json:"clues_discovered"`
	SuspectsCleared []string   `json:"suspects_cleared"`
	Status          CaseStatus `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	SolvedAt        *time.Time `json:"solved_at,omitempty"`
	TodaysPuzzle    *Puzzle    `json:"todays_puzzle,omitempty"`
	LastPuzzleDate  string     `json:"last_puzzle_date,omitempty"`
}

// Clone returns a deep copy of the progress record
func (cp *CaseProgress) Clone() *CaseProgress {
	if cp == nil {
		return nil
	}
	out := *cp
	out.CluesDiscovered = append([]string{}, cp.CluesDiscovered...)
	out.SuspectsCleared = append([]string{}, cp.SuspectsCleared...)
	if cp.SolvedAt != nil {
		t := *cp.SolvedAt
		out.SolvedAt = &t
	}
	out.TodaysPuzzle = cp.TodaysPuzzle.Clone()
	return &out
}

// ScoringRules configures how answers are scored
type ScoringRules struct {
	CorrectBase          int  `json:"correct_base" yaml:"correct_base"`
	StreakBonus          int  `json:"streak_bonus" yaml:"streak_bonus"`
	WrongPenalty         int  `json:"wrong_penalty" yaml:"wrong_penalty"`
	DifficultyMultiplier bool `json:"difficulty_multiplier" yaml:"difficulty_multiplier"`
	PointsToSolve        int  `json:"points_to_solve" yaml:"points_to_solve"`
}

// DefaultScoringRules returns the standard scoring: ten points per correct
// answer scaled by difficulty, five bonus points on a streak, no penalty for
// a wrong answer and one hundred points to close a case.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		CorrectBase:          10,
		StreakBonus:          5,
		WrongPenalty:         0,
		DifficultyMultiplier: true,
		PointsToSolve:        100,
	}
}

// Result is the scored outcome of one answer
type Result struct {
	Correct         bool    `json:"correct"`
	Expired         bool    `json:"expired,omitempty"`
	PointsEarned    int     `json:"points_earned"`
	NewTotal        int     `json:"new_total"`
	ProgressPercent float64 `json:"progress_percent"`
	CaseSolved      bool    `json:"case_solved"`
	StreakBroken    bool    `json:"streak_broken"`
	NewStreak       int     `json:"new_streak"`
	CorrectAnswer   string  `json:"correct_answer"`
}

// Outcome bundles the updated puzzle and progress with the scored result
type Outcome struct {
	Puzzle   *Puzzle       `json:"puzzle"`
	Progress *CaseProgress `json:"progress"`
	Result   Result        `json:"result"`
}
