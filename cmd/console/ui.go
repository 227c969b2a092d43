package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/mystery-engine/internal/handlers"
	"github.com/jwebster45206/mystery-engine/pkg/puzzle"
)

const PlaceHolderText = "Answer 1, 2 or 3, or type /help..."

var clipboardWriteAll = clipboard.WriteAll

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	streamClient *http.Client

	investigation *handlers.InvestigationView
	digest        *handlers.DigestResponse
	entries       []logEntry

	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Case selection state
	showCaseModal bool
	cases         []handlers.CaseSummary
	selectedCase  int
	loadingCases  bool

	showQuitModal bool
	progressTick  int

	events *eventStream
}

// eventStream is shared by every copy of the model
type eventStream struct {
	cancel context.CancelFunc
	ch     chan SSEEvent
}

type logEntry struct {
	title string
	style lipgloss.Style
	text  string
}

type casesLoadedMsg struct {
	cases []handlers.CaseSummary
	err   error
}

type investigationCreatedMsg struct {
	view *handlers.InvestigationView
	err  error
}

type investigationMsg struct {
	view *handlers.InvestigationView
	err  error
}

type digestMsg struct {
	digest *handlers.DigestResponse
	err    error
}

type answerMsg struct {
	outcome *puzzle.Outcome
	err     error
}

type suspicionsMsg struct {
	suspicions *handlers.SuspicionsResponse
	err        error
}

type sseEventMsg SSEEvent

type sseClosedMsg struct{}

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	clueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client, streamClient *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		config:        cfg,
		client:        client,
		streamClient:  streamClient,
		textarea:      ta,
		logViewport:   logVp,
		metaViewport:  viewport.New(20, 20),
		showCaseModal: true,
		loadingCases:  true,
		events:        &eventStream{ch: make(chan SSEEvent, 16)},
	}
}

// stopEvents closes the event stream, if one was opened
func (m ConsoleUI) stopEvents() {
	if m.events.cancel != nil {
		m.events.cancel()
	}
}

func (m *ConsoleUI) addEntry(title string, style lipgloss.Style, text string) {
	m.entries = append(m.entries, logEntry{title: title, style: style, text: text})
	m.writeLogContent()
}

// writeLogContent renders the case log for the current viewport width
func (m *ConsoleUI) writeLogContent() {
	width := m.logViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("MYSTERY ENGINE") + "\n\n")
	if m.investigation != nil {
		content.WriteString(wordwrap.String("Case: "+m.investigation.CaseName, width) + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, e := range m.entries {
		if e.title != "" {
			content.WriteString(e.style.Render(e.title) + "\n")
		}
		content.WriteString(wordwrap.String(e.text, width) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(view *handlers.InvestigationView) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CASE FILE") + "\n\n")
	if view == nil {
		return content.String()
	}

	content.WriteString("Investigation:\n")
	content.WriteString(view.ID.String()[:8] + "...\n\n")

	if p := view.Progress; p != nil {
		content.WriteString("Status:\n")
		content.WriteString(string(p.Status) + "\n\n")

		percent := 0
		if p.PointsToSolve > 0 {
			percent = min(100, p.ProgressPoints*100/p.PointsToSolve)
		}
		content.WriteString("Progress:\n")
		content.WriteString(fmt.Sprintf("%d / %d (%d%%)\n\n", p.ProgressPoints, p.PointsToSolve, percent))

		content.WriteString("Puzzles:\n")
		content.WriteString(fmt.Sprintf("%d solved, %d failed\n\n", p.PuzzlesSolved, p.PuzzlesFailed))

		content.WriteString("Streak:\n")
		content.WriteString(fmt.Sprintf("%d (best %d)\n\n", p.CurrentStreak, p.LongestStreak))

		if len(p.CluesDiscovered) > 0 {
			content.WriteString("Clues:\n")
			for _, clue := range p.CluesDiscovered {
				content.WriteString("• " + clue + "\n")
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("Ledger:\n")
	content.WriteString(fmt.Sprintf("%d facts, %d suspicious\n\n", view.Facts, view.SuspiciousFacts))

	content.WriteString("Commands:\n")
	content.WriteString("• 1-3: Answer\n")
	content.WriteString("• /digest\n")
	content.WriteString("• /suspicions\n")
	content.WriteString("• /copy\n")
	content.WriteString("• /help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// formatPuzzle renders a puzzle as plain text
func formatPuzzle(p *puzzle.Puzzle) string {
	if p == nil {
		return "No puzzle today."
	}

	var b strings.Builder
	switch c := p.Content.(type) {
	case puzzle.SpotTheLie:
		b.WriteString("One of these statements is a lie. Which one?\n")
		for i, s := range c.Statements {
			fmt.Fprintf(&b, "\n  %d. %s: %q", i+1, s.Speaker, s.Statement)
		}
	case puzzle.WhoSaidIt:
		fmt.Fprintf(&b, "Who said %q?\n", c.Quote)
		for i, o := range c.Options {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, o)
		}
	case puzzle.Sequence:
		b.WriteString("Put these events in order:\n")
		for i, e := range c.Events {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, e)
		}
	case puzzle.FillBlank:
		b.WriteString(c.Template + "\n")
		for i, o := range c.Options {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, o)
		}
	}

	switch p.Status {
	case puzzle.StatusPending:
		fmt.Fprintf(&b, "\n\nDifficulty %d. Expires %s.", p.Difficulty, p.ExpiresAt.Local().Format("Mon 15:04"))
	default:
		fmt.Fprintf(&b, "\n\nThis puzzle is %s. The answer was %s.", p.Status, p.CorrectAnswer)
	}
	return b.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadCases()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showCaseModal {
		return m.updateCaseModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeLogContent()
		m.metaViewport.SetContent(writeMetadata(m.investigation))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.entries = append(m.entries, logEntry{title: "You:", style: userStyle, text: input})
			m.loading = true
			m.progressTick = 0
			m.writeLogContent()
			return m, tea.Batch(m.sendAnswer(input), progressTick())
		}

	case digestMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry("Error:", errorStyle, msg.err.Error())
			break
		}
		m.digest = msg.digest
		m.addDigest(msg.digest)
		return m, m.refreshInvestigation()

	case answerMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry("Error:", errorStyle, msg.err.Error())
			break
		}
		m.addOutcome(msg.outcome)
		return m, m.refreshInvestigation()

	case suspicionsMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry("Error:", errorStyle, msg.err.Error())
			break
		}
		m.addEntry("Your notes:", titleStyle, msg.suspicions.Text)

	case investigationMsg:
		if msg.err == nil && msg.view != nil {
			m.investigation = msg.view
			m.metaViewport.SetContent(writeMetadata(m.investigation))
		}

	case sseEventMsg:
		m.addEvent(SSEEvent(msg))
		return m, tea.Batch(m.waitForEvent(), m.refreshInvestigation())

	case sseClosedMsg:
		m.addEntry("", promptStyle, "Live updates disconnected.")

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeLogContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	logWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - logWidth - 6
	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(logWidth - 4)
}

func (m *ConsoleUI) addDigest(d *handlers.DigestResponse) {
	if d.Digest == nil {
		return
	}
	heading := "Last digest (" + d.Digest.Date + "):"
	if d.New {
		heading = "While you were away (" + d.Digest.Date + "):"
	}

	var b strings.Builder
	b.WriteString(d.Digest.Summary)
	for _, ev := range d.Digest.Events {
		fmt.Fprintf(&b, "\n  %s  %s", ev.Timestamp.Local().Format("15:04"), ev.Description)
	}
	m.entries = append(m.entries, logEntry{title: heading, style: titleStyle, text: b.String()})
	m.entries = append(m.entries, logEntry{title: "Today's puzzle:", style: speakerStyle, text: formatPuzzle(d.Digest.Puzzle)})
	m.writeLogContent()
}

func (m *ConsoleUI) addOutcome(o *puzzle.Outcome) {
	r := o.Result
	var text string
	switch {
	case r.Expired:
		text = "Too late. The trail went cold overnight."
	case r.Correct:
		text = fmt.Sprintf("Correct! +%d points (%.0f%% of the way there).", r.PointsEarned, r.ProgressPercent)
	default:
		text = fmt.Sprintf("Not quite. The answer was %s.", r.CorrectAnswer)
	}
	if r.StreakBroken {
		text += " Your streak is broken."
	} else if r.NewStreak > 1 {
		text += fmt.Sprintf(" Streak: %d.", r.NewStreak)
	}
	if r.CaseSolved {
		text += "\n\nCase closed. Well done, detective."
	}

	style := clueStyle
	if !r.Correct {
		style = errorStyle
	}
	m.addEntry("Verdict:", style, text)
	if m.digest != nil && m.digest.Digest != nil {
		m.digest.Digest.Puzzle = o.Puzzle
	}
}

func (m *ConsoleUI) addEvent(e SSEEvent) {
	str := func(key string) string {
		if v, ok := e.Data[key].(string); ok {
			return v
		}
		return ""
	}

	switch e.Type {
	case "connected":
		return
	case "lie.suspected":
		m.addEntry("Gut feeling:", loadingStyle, str("gut_feeling"))
	case "fact.contradiction":
		m.addEntry("Something doesn't add up:", loadingStyle, str("description"))
	case "activity.recorded":
		m.addEntry("", promptStyle, "New "+str("type")+" noted in the case file.")
	case "case.solved":
		m.addEntry("Case solved:", clueStyle, str("case_name"))
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.addEntry("Help:", titleStyle, `• 1, 2 or 3 - name the statement you think is the lie
• /digest - show what happened since your last visit
• /suspicions - list the claims that don't add up
• /copy - copy today's puzzle to the clipboard
• /abandon - give up on this case
• Ctrl+C - quit`)

	case "/digest":
		m.loading = true
		m.progressTick = 0
		m.writeLogContent()
		return m, tea.Batch(m.fetchDigest(), progressTick())

	case "/suspicions":
		m.loading = true
		m.progressTick = 0
		m.writeLogContent()
		return m, tea.Batch(m.fetchSuspicions(), progressTick())

	case "/copy":
		if m.digest == nil || m.digest.Digest == nil || m.digest.Digest.Puzzle == nil {
			m.addEntry("", promptStyle, "There is no puzzle to copy yet.")
			break
		}
		if err := clipboardWriteAll(formatPuzzle(m.digest.Digest.Puzzle)); err != nil {
			m.addEntry("Error:", errorStyle, "Failed to copy puzzle: "+err.Error())
			break
		}
		m.addEntry("", promptStyle, "Puzzle copied to clipboard.")

	case "/abandon":
		return m, m.abandon()

	default:
		m.addEntry("", promptStyle, "Unknown command. Type /help for the list.")
	}
	return m, nil
}

func (m ConsoleUI) sendAnswer(answer string) tea.Cmd {
	id := m.investigation.ID
	return func() tea.Msg {
		outcome, err := answerPuzzle(m.client, m.config.APIBaseURL, id, answer)
		return answerMsg{outcome, err}
	}
}

func (m ConsoleUI) fetchDigest() tea.Cmd {
	id := m.investigation.ID
	return func() tea.Msg {
		d, err := getDigest(m.client, m.config.APIBaseURL, id)
		return digestMsg{d, err}
	}
}

func (m ConsoleUI) fetchSuspicions() tea.Cmd {
	id := m.investigation.ID
	return func() tea.Msg {
		s, err := getSuspicions(m.client, m.config.APIBaseURL, id)
		return suspicionsMsg{s, err}
	}
}

func (m ConsoleUI) refreshInvestigation() tea.Cmd {
	id := m.investigation.ID
	return func() tea.Msg {
		view, err := getInvestigation(m.client, m.config.APIBaseURL, id)
		return investigationMsg{view, err}
	}
}

func (m ConsoleUI) abandon() tea.Cmd {
	id := m.investigation.ID
	return func() tea.Msg {
		view, err := abandonInvestigation(m.client, m.config.APIBaseURL, id)
		return investigationMsg{view, err}
	}
}

func (m ConsoleUI) loadCases() tea.Cmd {
	return func() tea.Msg {
		cases, err := listCases(m.client, m.config.APIBaseURL)
		return casesLoadedMsg{cases, err}
	}
}

func (m ConsoleUI) openInvestigation(caseFile string) tea.Cmd {
	return func() tea.Msg {
		view, err := createInvestigation(m.client, m.config.APIBaseURL, caseFile)
		return investigationCreatedMsg{view, err}
	}
}

// startEvents opens the event stream in the background
func (m ConsoleUI) startEvents() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.events.cancel = cancel
	id := m.investigation.ID
	go func() {
		defer close(m.events.ch)
		_ = listenToSSE(ctx, m.streamClient, m.config.APIBaseURL, id, m.events.ch)
	}()
	return m.waitForEvent()
}

// waitForEvent delivers the next streamed event as a message
func (m ConsoleUI) waitForEvent() tea.Cmd {
	ch := m.events.ch
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return sseClosedMsg{}
		}
		return sseEventMsg(e)
	}
}

func (m ConsoleUI) updateCaseModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case casesLoadedMsg:
		m.loadingCases = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.cases = msg.cases
		}

	case investigationCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.investigation = msg.view
		m.showCaseModal = false
		m.resize()
		m.metaViewport.SetContent(writeMetadata(m.investigation))
		m.textarea.Focus()
		m.ready = true
		m.loading = true
		m.writeLogContent()
		return m, tea.Batch(textarea.Blink, m.startEvents(), m.fetchDigest(), progressTick())

	case tea.KeyMsg:
		if m.loadingCases {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.err != nil {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCase > 0 {
				m.selectedCase--
			}
		case tea.KeyDown:
			if m.selectedCase < len(m.cases)-1 {
				m.selectedCase++
			}
		case tea.KeyEnter:
			if len(m.cases) > 0 && !m.loading && m.err == nil {
				m.loading = true
				return m, m.openInvestigation(m.cases[m.selectedCase].FileName)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showCaseModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Case?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved. Come back tomorrow for a new puzzle.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCaseModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	switch {
	case m.loadingCases:
		content.WriteString(modalTitleStyle.Render("Loading Cases..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch the open cases..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Opening Case..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Gathering the witnesses..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Case"))
		content.WriteString("\n\n")
		for i, c := range m.cases {
			if i == m.selectedCase {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + c.Name))
			} else {
				content.WriteString(modalItemStyle.Render("  " + c.Name))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showCaseModal {
		return m.renderCaseModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(0, logWidth-4))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.logViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	usable = min(max(usable, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
