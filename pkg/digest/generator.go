package digest

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

const (
	maxActivityStatements = 2
	quietSummary          = "All was quiet while you were away."
)

// PuzzleGenerator turns a digest into the day's puzzle
type PuzzleGenerator interface {
	GeneratePuzzle(src puzzle.Source) *puzzle.Puzzle
}

// Generator buffers raw NPC activity and turns it into daily digests.
// It is not safe for concurrent use.
type Generator struct {
	knowledge     map[string]NPCKnowledge
	conversations []Conversation
	activities    []Activity
	rng           *rand.Rand
	now           func() time.Time
	title         cases.Caser
}

// Option configures a Generator
type Option func(*Generator)

// WithRand sets the random source used to pick facts and lies from knowledge
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithClock sets the clock used to date digests
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates an empty digest generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		knowledge: make(map[string]NPCKnowledge),
		now:       time.Now,
		title:     cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		seed := uint64(g.now().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	return g
}

// RegisterNPC stores a character's knowledge, replacing any earlier record
func (g *Generator) RegisterNPC(k NPCKnowledge) {
	g.knowledge[k.Agent] = k
}

// Knowledge returns the registered knowledge for agent
func (g *Generator) Knowledge(agent string) (NPCKnowledge, bool) {
	k, ok := g.knowledge[agent]
	return k, ok
}

// RecordConversation buffers a conversation
func (g *Generator) RecordConversation(c Conversation) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = g.now()
	}
	g.conversations = append(g.conversations, c)
}

// RecordActivity buffers a solo activity
func (g *Generator) RecordActivity(a Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = g.now()
	}
	g.activities = append(g.activities, a)
}

// Pending returns how many buffered conversations and activities there are
func (g *Generator) Pending() (conversations, activities int) {
	return len(g.conversations), len(g.activities)
}

// GenerateDigest builds a digest of everything buffered at or after since.
// Events are ordered by timestamp and the digest's puzzle is generated
// before it is returned.
func (g *Generator) GenerateDigest(since time.Time, puzzles PuzzleGenerator) *DailyDigest {
	var events []Event
	for _, c := range g.conversations {
		if !c.Timestamp.Before(since) {
			events = append(events, g.conversationEvent(c))
		}
	}
	for _, a := range g.activities {
		if !a.Timestamp.Before(since) {
			events = append(events, g.activityEvent(a))
		}
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if events == nil {
		events = []Event{}
	}

	d := &DailyDigest{
		Date:    g.now().Format("2006-01-02"),
		Events:  events,
		Summary: summarize(events),
	}
	d.Puzzle = puzzles.GeneratePuzzle(d)
	return d
}

// ClearProcessedEvents drops buffered conversations and activities older than before
func (g *Generator) ClearProcessedEvents(before time.Time) {
	g.conversations = slices.DeleteFunc(g.conversations, func(c Conversation) bool {
		return c.Timestamp.Before(before)
	})
	g.activities = slices.DeleteFunc(g.activities, func(a Activity) bool {
		return a.Timestamp.Before(before)
	})
}

func (g *Generator) displayName(agent string) string {
	if agent == strings.ToLower(agent) {
		return g.title.String(agent)
	}
	return agent
}

func (g *Generator) joinNames(agents []string) string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, g.displayName(a))
	}
	return joinList(names)
}

func (g *Generator) conversationEvent(c Conversation) Event {
	ev := Event{
		ID:             "evt_" + c.ID,
		Timestamp:      c.Timestamp,
		Type:           EventConversation,
		InvolvedAgents: append([]string{}, c.Participants...),
		Facts:          []Statement{},
		PossibleLies:   []Statement{},
	}

	names := g.joinNames(c.Participants)
	switch {
	case c.Topic != "" && c.Location != "":
		ev.Description = fmt.Sprintf("%s talked about %s at %s.", names, c.Topic, c.Location)
	case c.Topic != "":
		ev.Description = fmt.Sprintf("%s talked about %s.", names, c.Topic)
	case c.Location != "":
		ev.Description = fmt.Sprintf("%s had a conversation at %s.", names, c.Location)
	default:
		ev.Description = fmt.Sprintf("%s had a conversation.", names)
	}

	for _, agent := range c.Participants {
		k, ok := g.knowledge[agent]
		if !ok {
			continue
		}
		if f, ok := g.pick(k.Facts); ok {
			ev.Facts = append(ev.Facts, Statement{Agent: agent, Text: f})
		}
		if l, ok := g.pick(k.Lies); ok {
			ev.PossibleLies = append(ev.PossibleLies, Statement{Agent: agent, Text: l})
		}
	}

	if c.Topic != "" && len(c.Participants) > 0 {
		ev.Facts = append(ev.Facts, Statement{
			Agent: c.Participants[0],
			Text:  fmt.Sprintf("%s discussed %s.", names, c.Topic),
		})
	}
	return ev
}

func (g *Generator) activityEvent(a Activity) Event {
	ev := Event{
		ID:             "evt_" + a.ID,
		Timestamp:      a.Timestamp,
		Type:           EventMovement,
		InvolvedAgents: []string{a.Agent},
		Facts:          []Statement{},
		PossibleLies:   []Statement{},
	}
	if a.Secret {
		ev.Type = EventTension
	}

	ev.Description = fmt.Sprintf("%s %s", g.displayName(a.Agent), strings.TrimSuffix(a.Action, "."))
	if a.Location != "" {
		ev.Description += " at " + a.Location
	}
	ev.Description += "."

	if k, ok := g.knowledge[a.Agent]; ok {
		for _, f := range g.sample(k.Facts, maxActivityStatements) {
			ev.Facts = append(ev.Facts, Statement{Agent: a.Agent, Text: f})
		}
		for _, l := range g.sample(k.Lies, maxActivityStatements) {
			ev.PossibleLies = append(ev.PossibleLies, Statement{Agent: a.Agent, Text: l})
		}
	}
	return ev
}

func (g *Generator) pick(items []string) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	return items[g.rng.IntN(len(items))], true
}

// sample returns up to n distinct items in random order
func (g *Generator) sample(items []string, n int) []string {
	if len(items) == 0 {
		return nil
	}
	idx := g.rng.Perm(len(items))
	out := make([]string, 0, min(n, len(items)))
	for _, i := range idx[:min(n, len(items))] {
		out = append(out, items[i])
	}
	return out
}

func summarize(events []Event) string {
	if len(events) == 0 {
		return quietSummary
	}

	counts := make(map[EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}

	var parts []string
	if n := counts[EventConversation]; n > 0 {
		parts = append(parts, plural(n, "conversation took place", "conversations took place"))
	}
	if n := counts[EventTension]; n > 0 {
		parts = append(parts, plural(n, "tense moment was noticed", "tense moments were noticed"))
	}
	if n := counts[EventMovement]; n > 0 {
		parts = append(parts, plural(n, "character was seen on the move", "characters were seen on the move"))
	}
	if n := counts[EventDiscovery]; n > 0 {
		parts = append(parts, plural(n, "discovery was made", "discoveries were made"))
	}
	return "While you were away, " + joinList(parts) + "."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
