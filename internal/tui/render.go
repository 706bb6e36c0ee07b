package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/navigator"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chosenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	paletteStyles = map[navigator.Status]lipgloss.Style{
		navigator.StatusNotVisited:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		navigator.StatusNotAnswered:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		navigator.StatusAnswered:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		navigator.StatusReview:         lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		navigator.StatusAnsweredReview: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
)

// View renders the active screen.
func (m Model) View() string {
	switch m.screen {
	case screenLobby:
		return m.viewLobby()
	case screenExam:
		return m.viewExam()
	case screenConfirm:
		return m.viewConfirm()
	case screenResult:
		return m.viewResult()
	case screenError:
		return alertStyle.Render("error: "+m.err.Error()) + "\n" + dimStyle.Render("q to quit")
	}
	return ""
}

func (m Model) viewLobby() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Available tests") + "\n\n")

	if len(m.tests) == 0 {
		b.WriteString(dimStyle.Render("no active tests") + "\n")
	}
	for i, t := range m.tests {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%s (%d min)", marker, t.Title, t.DurationMinutes)
		if t.Finalized && t.TotalScore != nil {
			line += dimStyle.Render(fmt.Sprintf("  submitted, score %d", *t.TotalScore))
		} else if t.HasResult {
			line += dimStyle.Render("  in progress")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("↑/↓ select · enter start · q quit"))
	if m.status != "" {
		b.WriteString("\n" + alertStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) viewExam() string {
	pos := m.nav.Current()
	question := m.questions[pos]

	header := titleStyle.Render(m.paper.Title) +
		"  " + dimStyle.Render(string(pos.Subject)) +
		"  " + renderClock(m.countdown.Remaining())

	body := ""
	if question != nil {
		body = m.renderQuestion(pos, question)
	}

	footer := dimStyle.Render("s save&next · m save&review · r review · c clear · ←/→ move · tab subject · enter submit")
	if m.saving {
		footer = dimStyle.Render("saving...")
	}
	if m.status != "" {
		footer += "\n" + alertStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		body,
		"",
		m.renderPalette(),
		"",
		footer,
	)
}

func (m Model) renderQuestion(pos navigator.Position, q *model.QuestionForCandidate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Q%d. %s\n", pos.Index+1, q.QuestionText))

	switch q.QuestionType {
	case model.QuestionTypeMCQ:
		selected, _ := m.nav.Response().OptionID()
		for i, opt := range q.Options {
			line := fmt.Sprintf("  %d) %s", i+1, opt.Text)
			if opt.ID == selected {
				line = chosenStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	case model.QuestionTypeNumerical:
		buf := m.numBuffer[pos]
		b.WriteString("  answer: " + chosenStyle.Render(buf+"_") + "\n")
	}
	return b.String()
}

// renderPalette draws one status-colored cell per question, grouped by
// subject.
func (m Model) renderPalette() string {
	var rows []string
	for _, subject := range m.nav.Subjects() {
		var cells []string
		for i := 0; i < m.nav.SubjectCount(subject); i++ {
			pos := navigator.Position{Subject: subject, Index: i}
			style := paletteStyles[m.nav.Status(pos)]
			cell := fmt.Sprintf("%2d", i+1)
			if pos == m.nav.Current() {
				cell = "[" + cell + "]"
			} else {
				cell = " " + cell + " "
			}
			cells = append(cells, style.Render(cell))
		}
		rows = append(rows, dimStyle.Render(fmt.Sprintf("%-12s", subject))+strings.Join(cells, ""))
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewConfirm() string {
	c := m.nav.Counts()
	lines := []string{
		titleStyle.Render("Submit test?"),
		"",
		fmt.Sprintf("answered: %d", c.Answered+c.AnsweredReview),
		fmt.Sprintf("unanswered: %d", c.NotVisited+c.NotAnswered),
		fmt.Sprintf("marked for review: %d", c.Review+c.AnsweredReview),
		"",
		renderClock(m.countdown.Remaining()),
		"",
		dimStyle.Render("y submit · n go back"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewResult() string {
	if m.result == nil {
		return dimStyle.Render("no result")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Result") + "\n\n")
	b.WriteString(fmt.Sprintf("total score: %d\n", m.result.TotalScore))
	b.WriteString(fmt.Sprintf("attempted: %d  correct: %d  incorrect: %d\n\n",
		m.result.Attempted, m.result.Correct, m.result.Incorrect))

	for _, subject := range model.Subjects {
		s := m.result.SubjectScores[subject]
		b.WriteString(fmt.Sprintf("%-12s total %2d  correct %2d  incorrect %2d  score %3d\n",
			subject, s.Total, s.Correct, s.Incorrect, s.Score))
	}

	b.WriteString("\n" + dimStyle.Render("q to quit"))
	return b.String()
}

func renderClock(remaining time.Duration) string {
	total := int(remaining.Seconds())
	clock := fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	if remaining < 5*time.Minute {
		return alertStyle.Render(clock)
	}
	return titleStyle.Render(clock)
}
