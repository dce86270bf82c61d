// Package tui renders live review progress with Bubbletea. The review
// itself runs elsewhere; the model only consumes progress events from a
// channel and draws them inline, so it stays safe to use from any CLI
// command without owning business logic.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trustlens-labs/trustlens-cli/internal/adapters/driving/tui/styles"
)

// maxVisibleLines caps how many verdict lines the inline view redraws.
// Older lines collapse into a single counter so tall rule sets do not
// overflow the terminal.
const maxVisibleLines = 12

// RuleEvent is one progress update from a running review. Message is the
// orchestrator's per-rule line, "{rule name}: {verdict}".
type RuleEvent struct {
	ReviewID  string
	Completed int
	Total     int
	Message   string
}

// doneMsg signals that the event channel closed and the review finished.
type doneMsg struct{}

// ReviewModel is the Bubbletea model for a running review. It implements
// tea.Model with value semantics.
type ReviewModel struct {
	styles *styles.Styles
	bar    progress.Model
	events <-chan RuleEvent

	docID     string
	reviewID  string
	completed int
	total     int
	lines     []string

	done    bool
	aborted bool
	width   int
}

// Ensure ReviewModel implements tea.Model.
var _ tea.Model = ReviewModel{}

// NewReviewModel creates a progress model reading from events. The channel
// must be closed by the producer once the review returns.
func NewReviewModel(docID string, events <-chan RuleEvent) ReviewModel {
	theme := styles.DefaultTheme()
	bar := progress.New(
		progress.WithGradient(string(theme.Primary), string(theme.Secondary)),
		progress.WithWidth(40),
	)

	return ReviewModel{
		styles: styles.NewStyles(theme),
		bar:    bar,
		events: events,
		docID:  docID,
		width:  80,
	}
}

// Init starts listening for progress events.
func (m ReviewModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update handles progress events, terminal resizes and abort keys.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RuleEvent:
		m.reviewID = msg.ReviewID
		m.completed = msg.Completed
		m.total = msg.Total
		if msg.Message != "" {
			m.lines = append(m.lines, msg.Message)
		}
		return m, waitForEvent(m.events)

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 20
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth >= 10 {
			m.bar.Width = barWidth
		}
	}

	return m, nil
}

// View renders the header, progress bar and the most recent verdicts.
func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Reviewing %s", m.docID)))
	b.WriteString("\n\n")

	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" %d/%d rules", m.completed, m.total)))
	b.WriteString("\n\n")

	lines := m.lines
	if len(lines) > maxVisibleLines {
		hidden := len(lines) - maxVisibleLines
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  ... %d earlier results", hidden)))
		b.WriteString("\n")
		lines = lines[hidden:]
	}
	for _, line := range lines {
		b.WriteString("  ")
		b.WriteString(m.renderVerdict(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.styles.Help.Render("done"))
	} else {
		b.WriteString(m.styles.Help.Render("q to abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// Aborted reports whether the user quit before the review finished.
func (m ReviewModel) Aborted() bool {
	return m.aborted
}

// Done reports whether the event channel closed.
func (m ReviewModel) Done() bool {
	return m.done
}

// ReviewID returns the review ID once the first event arrived.
func (m ReviewModel) ReviewID() string {
	return m.reviewID
}

// percent converts the rule counter into a bar fraction.
func (m ReviewModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

// renderVerdict colours a progress line by its verdict suffix.
func (m ReviewModel) renderVerdict(line string) string {
	switch {
	case strings.HasSuffix(line, ": PASS"):
		return m.styles.Pass.Render(line)
	case strings.HasSuffix(line, ": RISK"):
		return m.styles.Risk.Render(line)
	case strings.HasSuffix(line, ": MISSING"):
		return m.styles.Muted.Render(line)
	case strings.HasSuffix(line, ": FAILED"):
		return m.styles.Failed.Render(line)
	default:
		return m.styles.Normal.Render(line)
	}
}

// waitForEvent blocks on the next progress event. A closed channel turns
// into doneMsg so the program quits cleanly.
func waitForEvent(events <-chan RuleEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
