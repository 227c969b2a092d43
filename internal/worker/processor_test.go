package worker

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/digest"
	"github.com/jwebster45206/mystery-engine/pkg/facts"
	"github.com/jwebster45206/mystery-engine/pkg/liedetector"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
	"github.com/jwebster45206/mystery-engine/pkg/queue"
	"github.com/jwebster45206/mystery-engine/pkg/state"
)

// fakeModel answers contradiction checks with verdict and everything else
// with narration
type fakeModel struct {
	verdict   string
	narration string
	calls     int
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if strings.Contains(prompt, "JSON object") {
		return m.verdict, nil
	}
	return m.narration, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func harbourCase() *casefile.CaseFile {
	return &casefile.CaseFile{
		ID:            "harbour_lantern",
		Name:          "The Harbour Lantern",
		FileName:      "harbour_lantern.yaml",
		ContentRating: "PG",
		NPCs: []digest.NPCKnowledge{
			{Agent: "kira", Facts: []string{"The lamp was lit at nine."}, Lies: []string{"I was home all night."}},
			{Agent: "mara", Facts: []string{"The ferry was late."}, Lies: []string{"I never left the inn."}},
		},
		SeedFacts: []casefile.SeedFact{
			{Subject: "kira", Claim: "was home all night", Source: facts.Source{Type: facts.SourceNPC, Name: "kira", Day: 1}},
		},
	}
}

func newCaseState() *state.CaseState {
	return state.NewCaseState(harbourCase(), puzzle.DefaultScoringRules(), 2)
}

func claimRequest(id uuid.UUID, npc, subject, claim string) *queue.Request {
	req := queue.NewRequest(id, queue.RequestTypeClaim)
	req.Claim = &queue.Claim{
		Subject: subject,
		Claim:   claim,
		Source:  facts.Source{Type: facts.SourceNPC, Name: npc, Day: 2},
	}
	return req
}

func TestProcessor_ClaimWithLieDetection(t *testing.T) {
	cs := newCaseState()
	model := &fakeModel{
		verdict:   `{"contradict": true, "severity": "direct", "explanation": "She cannot be home and at the docks."}`,
		narration: "Mara's story about the docks sits badly with what Kira told you.",
	}
	p := NewProcessor(model, discardLogger())

	out, err := p.Apply(context.Background(), cs, claimRequest(cs.ID, "mara", "kira", "was seen at the docks all night"))
	require.NoError(t, err)

	require.Len(t, out.Contradictions, 1)
	assert.Equal(t, "kira", out.Contradictions[0].FactA.Source.Name)

	require.NotNil(t, out.Alert)
	assert.Equal(t, "mara", out.Alert.NPC)
	assert.Equal(t, liedetector.SeverityLie, out.Alert.Severity)
	assert.Equal(t, model.narration, out.Alert.GutFeeling)
	assert.Greater(t, out.TokensUsed, 0)
	assert.Equal(t, 2, model.calls)

	ledger := cs.Ledger()
	assert.Equal(t, 2, ledger.Len())
	for _, f := range ledger.GetFactsAbout("Kira") {
		assert.Equal(t, facts.StatusContradicted, f.Status)
	}
}

func TestProcessor_ClaimWithoutModel(t *testing.T) {
	cs := newCaseState()
	p := NewProcessor(nil, discardLogger())

	out, err := p.Apply(context.Background(), cs, claimRequest(cs.ID, "mara", "kira", "was seen at the docks all night"))
	require.NoError(t, err)
	assert.Len(t, out.Contradictions, 1)
	assert.Nil(t, out.Alert)
	assert.Zero(t, out.TokensUsed)
}

func TestProcessor_NonNPCClaimSkipsDetector(t *testing.T) {
	cs := newCaseState()
	model := &fakeModel{verdict: `{"contradict": true, "severity": "direct"}`}
	p := NewProcessor(model, discardLogger())

	req := claimRequest(cs.ID, "harbour log", "lantern", "was taken before midnight")
	req.Claim.Source.Type = facts.SourceObservation

	out, err := p.Apply(context.Background(), cs, req)
	require.NoError(t, err)
	assert.Nil(t, out.Alert)
	assert.Zero(t, model.calls)
	assert.Len(t, cs.Ledger().GetFactsAbout("lantern"), 1)
}

func TestProcessor_NarrativeRequests(t *testing.T) {
	cs := newCaseState()
	p := NewProcessor(nil, discardLogger())
	ctx := context.Background()

	conv := queue.NewRequest(cs.ID, queue.RequestTypeConversation)
	conv.Conversation = &digest.Conversation{Participants: []string{"kira", "mara"}, Topic: "the lamp", Timestamp: time.Now()}
	_, err := p.Apply(ctx, cs, conv)
	require.NoError(t, err)

	act := queue.NewRequest(cs.ID, queue.RequestTypeActivity)
	act.Activity = &digest.Activity{Agent: "kira", Action: "rowed out", Secret: true}
	_, err = p.Apply(ctx, cs, act)
	require.NoError(t, err)

	know := queue.NewRequest(cs.ID, queue.RequestTypeKnowledge)
	know.Knowledge = &digest.NPCKnowledge{Agent: "odo", Facts: []string{"The nets were cut."}}
	_, err = p.Apply(ctx, cs, know)
	require.NoError(t, err)

	gen := cs.Digests()
	convs, acts := gen.Pending()
	assert.Equal(t, 1, convs)
	assert.Equal(t, 1, acts)
	_, ok := gen.Knowledge("odo")
	assert.True(t, ok)
}

func TestProcessor_Rejections(t *testing.T) {
	p := NewProcessor(nil, discardLogger())
	ctx := context.Background()

	cs := newCaseState()
	_, err := p.Apply(ctx, cs, queue.NewRequest(cs.ID, queue.RequestTypeActivity))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvestigationClosed)

	cs.Progress = cs.Engine().Abandon(cs.Progress)
	_, err = p.Apply(ctx, cs, claimRequest(cs.ID, "mara", "kira", "was at the inn"))
	assert.ErrorIs(t, err, ErrInvestigationClosed)
}
