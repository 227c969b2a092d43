package casefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

// Extension is the file extension of case files
const Extension = ".yaml"

// SeedFact is a claim on the ledger before the investigation starts
type SeedFact struct {
	Subject string       `yaml:"subject" json:"subject"`
	Claim   string       `yaml:"claim" json:"claim"`
	Source  facts.Source `yaml:"source" json:"source"`
}

// Scoring overrides individual scoring rules. Unset fields keep the defaults.
type Scoring struct {
	CorrectBase          *int  `yaml:"correct_base,omitempty" json:"correct_base,omitempty"`
	StreakBonus          *int  `yaml:"streak_bonus,omitempty" json:"streak_bonus,omitempty"`
	WrongPenalty         *int  `yaml:"wrong_penalty,omitempty" json:"wrong_penalty,omitempty"`
	DifficultyMultiplier *bool `yaml:"difficulty_multiplier,omitempty" json:"difficulty_multiplier,omitempty"`
	PointsToSolve        *int  `yaml:"points_to_solve,omitempty" json:"points_to_solve,omitempty"`
	Difficulty           *int  `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// CaseFile is the template for an investigation: who is involved, what they
// know and what is already on the record
type CaseFile struct {
	ID            string                `yaml:"id" json:"id"`
	Name          string                `yaml:"name" json:"name"`
	FileName      string                `yaml:"-" json:"file_name"`
	Description   string                `yaml:"description" json:"description"`
	ContentRating string                `yaml:"content_rating" json:"content_rating"`
	Scoring       Scoring               `yaml:"scoring" json:"scoring"`
	NPCs          []digest.NPCKnowledge `yaml:"npcs" json:"npcs"`
	SeedFacts     []SeedFact            `yaml:"seed_facts" json:"seed_facts"`
}

// Rules applies the case's overrides on top of base
func (c *CaseFile) Rules(base puzzle.ScoringRules) puzzle.ScoringRules {
	r := base
	if c.Scoring.CorrectBase != nil {
		r.CorrectBase = *c.Scoring.CorrectBase
	}
	if c.Scoring.StreakBonus != nil {
		r.StreakBonus = *c.Scoring.StreakBonus
	}
	if c.Scoring.WrongPenalty != nil {
		r.WrongPenalty = *c.Scoring.WrongPenalty
	}
	if c.Scoring.DifficultyMultiplier != nil {
		r.DifficultyMultiplier = *c.Scoring.DifficultyMultiplier
	}
	if c.Scoring.PointsToSolve != nil {
		r.PointsToSolve = *c.Scoring.PointsToSolve
	}
	return r
}

// Difficulty returns the case's puzzle difficulty, or fallback when unset
func (c *CaseFile) Difficulty(fallback int) int {
	if c.Scoring.Difficulty != nil {
		return *c.Scoring.Difficulty
	}
	return fallback
}

// Load reads and parses a case file from disk
func Load(path string) (*CaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	cf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cf.FileName = filepath.Base(path)
	return cf, nil
}

// Parse decodes a case file. Unknown fields are rejected.
func Parse(data []byte) (*CaseFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cf CaseFile
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("parse case yaml: %w", err)
	}
	return &cf, nil
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// ValidFileName reports whether name (without extension) is lowercase snake_case
func ValidFileName(name string) bool {
	return validIDRegex.MatchString(strings.TrimSuffix(name, Extension))
}

// Validate checks the case for problems and returns all of them joined
func (c *CaseFile) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !validIDRegex.MatchString(c.ID) {
		add("id %q should be lowercase snake_case", c.ID)
	}
	if strings.TrimSpace(c.Name) == "" {
		add("name is required")
	}
	if len(c.NPCs) == 0 {
		add("at least one npc is required")
	}

	agents := make(map[string]bool, len(c.NPCs))
	lies := 0
	for i, npc := range c.NPCs {
		switch {
		case npc.Agent == "":
			add("npcs[%d] has no agent", i)
		case agents[npc.Agent]:
			add("npc %q is listed more than once", npc.Agent)
		}
		agents[npc.Agent] = true
		lies += len(npc.Lies)
	}
	if len(c.NPCs) > 0 && lies == 0 {
		add("no npc has any lies, so every puzzle would use placeholder statements")
	}

	for i, sf := range c.SeedFacts {
		if strings.TrimSpace(sf.Subject) == "" || strings.TrimSpace(sf.Claim) == "" {
			add("seed_facts[%d] needs a subject and a claim", i)
		}
		if !sf.Source.Type.Valid() {
			add("seed_facts[%d] has unknown source type %q", i, sf.Source.Type)
		}
		if sf.Source.Name == "" {
			add("seed_facts[%d] has no source name", i)
		}
	}

	if d := c.Scoring.Difficulty; d != nil && (*d < puzzle.MinDifficulty || *d > puzzle.MaxDifficulty) {
		add("scoring.difficulty must be between %d and %d", puzzle.MinDifficulty, puzzle.MaxDifficulty)
	}
	if p := c.Scoring.PointsToSolve; p != nil && *p <= 0 {
		add("scoring.points_to_solve must be positive")
	}
	for _, field := range []struct {
		name string
		v    *int
	}{
		{"correct_base", c.Scoring.CorrectBase},
		{"streak_bonus", c.Scoring.StreakBonus},
		{"wrong_penalty", c.Scoring.WrongPenalty},
	} {
		if field.v != nil && *field.v < 0 {
			add("scoring.%s must not be negative", field.name)
		}
	}

	return errors.Join(errs...)
}
