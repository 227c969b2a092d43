package state

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

func testCase() *casefile.CaseFile {
	points := 30
	return &casefile.CaseFile{
		ID:            "harbour",
		Name:          "The Harbour Lantern",
		FileName:      "harbour.yaml",
		ContentRating: "PG",
		Scoring:       casefile.Scoring{PointsToSolve: &points},
		NPCs: []digest.NPCKnowledge{
			{Agent: "kira", Facts: []string{"The lamp was lit."}, Lies: []string{"I was home."}},
			{Agent: "thom", Facts: []string{"The ferry was late."}, Lies: []string{"I never met her."}},
		},
		SeedFacts: []casefile.SeedFact{
			{Subject: "kira", Claim: "was home all night", Source: facts.Source{Type: facts.SourceNPC, Name: "kira", Day: 1}},
			{Subject: "kira", Claim: "was seen at the docks", Source: facts.Source{Type: facts.SourceNPC, Name: "thom", Day: 1}},
		},
	}
}

func TestNewCaseState(t *testing.T) {
	cs := NewCaseState(testCase(), puzzle.DefaultScoringRules(), 2)

	assert.Equal(t, "harbour.yaml", cs.CaseFile)
	assert.Equal(t, "The Harbour Lantern", cs.CaseName)
	assert.Equal(t, 30, cs.Rules.PointsToSolve)
	assert.Equal(t, 10, cs.Rules.CorrectBase)
	assert.Equal(t, 2, cs.Difficulty)
	assert.True(t, cs.Active())

	require.NotNil(t, cs.Progress)
	assert.Equal(t, cs.ID.String(), cs.Progress.CaseID)
	assert.Equal(t, 30, cs.Progress.PointsToSolve)
	assert.False(t, cs.CreatedAt.IsZero())

	ledger := cs.Ledger()
	assert.Equal(t, 2, ledger.Len())
	for _, f := range ledger.GetFactsAbout("kira") {
		assert.Equal(t, facts.StatusContradicted, f.Status)
	}

	gen := cs.Digests()
	_, ok := gen.Knowledge("thom")
	assert.True(t, ok)
}

func TestCaseState_CaptureAndReload(t *testing.T) {
	cs := NewCaseState(testCase(), puzzle.DefaultScoringRules(), 1)

	ledger := cs.Ledger()
	ledger.AddFact("lantern", "was taken before midnight", facts.Source{Type: facts.SourceObservation, Name: "harbour log", Day: 2})
	gen := cs.Digests()
	gen.RecordActivity(digest.Activity{ID: "a1", Agent: "kira", Action: "rowed out", Timestamp: time.Now()})

	before := cs.UpdatedAt
	cs.Capture(ledger, gen)
	assert.False(t, cs.UpdatedAt.Before(before))

	data, err := json.Marshal(cs)
	require.NoError(t, err)
	var loaded CaseState
	require.NoError(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, cs.ID, loaded.ID)
	assert.Equal(t, 3, loaded.Ledger().Len())
	assert.Len(t, loaded.Ledger().GetFactsAbout("lantern"), 1)
	convs, acts := loaded.Digests().Pending()
	assert.Equal(t, 0, convs)
	assert.Equal(t, 1, acts)
}

func TestCaseState_CaptureNilKeepsParts(t *testing.T) {
	cs := NewCaseState(testCase(), puzzle.DefaultScoringRules(), 2)
	factsBefore := cs.Facts

	gen := cs.Digests()
	gen.RecordActivity(digest.Activity{Agent: "thom", Action: "waited"})
	cs.Capture(nil, gen)

	assert.Equal(t, factsBefore, cs.Facts)
	assert.Len(t, cs.Activity.Activities, 1)
}

func TestCaseState_Engine(t *testing.T) {
	cs := NewCaseState(testCase(), puzzle.DefaultScoringRules(), 3)
	p := cs.Engine().GeneratePuzzle(nil)
	assert.Equal(t, 3, p.Difficulty)
	assert.Equal(t, 30, cs.Engine().Rules().PointsToSolve)
}

func TestCaseState_ActiveAfterAbandon(t *testing.T) {
	cs := NewCaseState(testCase(), puzzle.DefaultScoringRules(), 2)
	cs.Progress = cs.Engine().Abandon(cs.Progress)
	assert.False(t, cs.Active())
}
