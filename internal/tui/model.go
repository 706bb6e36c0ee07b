package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/navigator"
	"github.com/prepnova/mocktest-backend/internal/scoring"
)

type screen int

const (
	screenLobby screen = iota
	screenExam
	screenConfirm
	screenResult
	screenError
)

// Model is the Bubble Tea model for the terminal exam runner.
type Model struct {
	client *Client

	screen screen
	width  int

	// Lobby.
	tests  []model.LobbyTest
	cursor int

	// Exam.
	testID    uuid.UUID
	paper     *model.TestPayload
	questions map[navigator.Position]*model.QuestionForCandidate
	nav       *navigator.Navigator
	countdown *navigator.Countdown
	numBuffer map[navigator.Position]string
	saving    bool
	status    string

	// Result.
	result *model.Result

	err error
}

// NewModel constructs the exam runner over an authenticated client.
func NewModel(client *Client) Model {
	return Model{
		client:    client,
		screen:    screenLobby,
		numBuffer: make(map[navigator.Position]string),
	}
}

// ─── Messages ───────────────────────────────────────────────────────

type lobbyMsg struct {
	tests []model.LobbyTest
	err   error
}

type paperMsg struct {
	paper *Paper
	err   error
}

type saveMsg struct {
	result *model.Result
	marked bool
	err    error
}

type submitMsg struct {
	result *model.Result
	err    error
}

type tickMsg time.Time

// ─── Commands ───────────────────────────────────────────────────────

func (m Model) loadLobbyCmd() tea.Cmd {
	return func() tea.Msg {
		tests, err := m.client.Lobby(context.Background())
		return lobbyMsg{tests: tests, err: err}
	}
}

func (m Model) loadPaperCmd(testID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		paper, err := m.client.Questions(context.Background(), testID)
		return paperMsg{paper: paper, err: err}
	}
}

func (m Model) saveCmd(action model.AnswerAction, marked bool) tea.Cmd {
	pos := m.nav.Current()
	question := m.questions[pos]
	resp := m.nav.Response()

	req := &model.SubmitAnswerRequest{
		QuestionID:      question.ID.String(),
		Action:          action,
		MarkedForReview: &marked,
	}
	if id, ok := resp.OptionID(); ok {
		s := id.String()
		req.SelectedOptionID = &s
	}
	if v, ok := resp.Value(); ok {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		req.NumericalValue = &s
	}

	return func() tea.Msg {
		result, err := m.client.SubmitAnswer(context.Background(), m.testID, req)
		return saveMsg{result: result, marked: marked, err: err}
	}
}

func (m Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.Submit(context.Background(), m.testID)
		return submitMsg{result: result, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ─── Lifecycle ──────────────────────────────────────────────────────

// Init loads the lobby.
func (m Model) Init() tea.Cmd {
	return m.loadLobbyCmd()
}

// Update routes messages per screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		return m, nil

	case lobbyMsg:
		if typed.err != nil {
			m.err = typed.err
			m.screen = screenError
			return m, nil
		}
		m.tests = typed.tests
		return m, nil

	case paperMsg:
		if typed.err != nil {
			m.err = typed.err
			m.screen = screenError
			return m, nil
		}
		m = m.enterExam(typed.paper)
		return m, tick()

	case saveMsg:
		m.saving = false
		if typed.err != nil {
			// A failed save must not advance the palette.
			m.status = "save failed: " + typed.err.Error()
			return m, nil
		}
		if typed.marked {
			m.nav.SaveAndMarkForReview()
		} else {
			m.nav.SaveAndNext()
		}
		m.status = ""
		return m, nil

	case submitMsg:
		if typed.err != nil {
			m.err = typed.err
			m.screen = screenError
			return m, nil
		}
		m.result = typed.result
		m.screen = screenResult
		return m, nil

	case tickMsg:
		if m.screen != screenExam && m.screen != screenConfirm {
			return m, nil
		}
		if m.countdown.Tick(time.Second) {
			// Time up. Unsaved selections are lost by design.
			m.status = "time is up, submitting"
			return m, m.submitCmd()
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenLobby:
		return m.handleLobbyKey(key)
	case screenExam:
		return m.handleExamKey(key)
	case screenConfirm:
		return m.handleConfirmKey(key)
	case screenResult, screenError:
		if key.String() == "q" || key.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleLobbyKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tests)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor >= len(m.tests) {
			return m, nil
		}
		t := m.tests[m.cursor]
		if t.Finalized {
			m.status = "already submitted"
			return m, nil
		}
		m.testID = t.ID
		return m, m.loadPaperCmd(t.ID)
	}
	return m, nil
}

func (m Model) handleExamKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	pos := m.nav.Current()
	question := m.questions[pos]

	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "s":
		if m.saving {
			return m, nil
		}
		m.saving = true
		return m, m.saveCmd(model.AnswerActionSaveAndNext, false)

	case "m":
		if m.saving {
			return m, nil
		}
		m.saving = true
		return m, m.saveCmd(model.AnswerActionMarkForReview, true)

	case "r":
		// Local review flag only, no save round trip.
		m.nav.MarkForReviewAndNext()
		return m, nil

	case "c":
		m.nav.ClearResponse()
		delete(m.numBuffer, pos)
		return m, nil

	case "left", "p":
		m.nav.JumpTo(navigator.Position{Subject: pos.Subject, Index: pos.Index - 1})
		return m, nil

	case "right", "n":
		m.nav.JumpTo(navigator.Position{Subject: pos.Subject, Index: pos.Index + 1})
		return m, nil

	case "tab":
		m.nav.SwitchSubject(m.nextSubject())
		return m, nil

	case "enter":
		m.screen = screenConfirm
		return m, nil
	}

	if question == nil {
		return m, nil
	}
	switch question.QuestionType {
	case model.QuestionTypeMCQ:
		if idx := optionIndexForKey(key.String()); idx >= 0 && idx < len(question.Options) {
			m.nav.SetResponse(scoring.SelectedOption(question.Options[idx].ID))
		}
	case model.QuestionTypeNumerical:
		m = m.editNumerical(pos, key)
	}
	return m, nil
}

func (m Model) handleConfirmKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "y":
		return m, m.submitCmd()
	case "n", "esc":
		m.screen = screenExam
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// ─── Helpers ────────────────────────────────────────────────────────

// enterExam builds the navigator from the paper and restores any
// previously saved answers.
func (m Model) enterExam(paper *Paper) Model {
	m.paper = paper.Paper
	m.questions = make(map[navigator.Position]*model.QuestionForCandidate)

	counts := make(map[model.Subject]int)
	byID := make(map[uuid.UUID]navigator.Position)
	for i := range m.paper.Questions {
		q := &m.paper.Questions[i]
		pos := navigator.Position{Subject: q.Subject, Index: counts[q.Subject]}
		m.questions[pos] = q
		byID[q.ID] = pos
		counts[q.Subject]++
	}

	m.nav = navigator.New(model.Subjects, counts)
	for i := range paper.Answers {
		entry := &paper.Answers[i]
		pos, ok := byID[entry.QuestionID]
		if !ok {
			continue
		}
		resp := scoring.None()
		if entry.SelectedOptionID != nil {
			resp = scoring.SelectedOption(*entry.SelectedOptionID)
		} else if entry.NumericalValue != nil {
			resp = scoring.NumericalValue(*entry.NumericalValue)
			m.numBuffer[pos] = strconv.FormatFloat(*entry.NumericalValue, 'f', -1, 64)
		}
		m.nav.Restore(pos, resp, entry.MarkedForReview)
	}

	total := time.Duration(m.paper.DurationMinutes) * time.Minute
	m.countdown = navigator.NewCountdown(total)
	// The attempt may be a resume; trust the server's start time.
	elapsed := time.Since(paper.StartedAt)
	m.countdown.Sync(total - elapsed)

	m.screen = screenExam
	return m
}

func (m Model) nextSubject() model.Subject {
	subjects := m.nav.Subjects()
	current := m.nav.Current().Subject
	for i, s := range subjects {
		if s == current {
			return subjects[(i+1)%len(subjects)]
		}
	}
	return current
}

// editNumerical appends to or trims the numeric input buffer and keeps
// the navigator's response in sync with the parseable prefix.
func (m Model) editNumerical(pos navigator.Position, key tea.KeyMsg) Model {
	buf := m.numBuffer[pos]
	switch key.Type {
	case tea.KeyBackspace:
		if len(buf) > 0 {
			buf = buf[:len(buf)-1]
		}
	case tea.KeyRunes:
		s := key.String()
		if len(s) == 1 && strings.ContainsAny(s, "0123456789.-") {
			buf += s
		}
	default:
		return m
	}
	m.numBuffer[pos] = buf

	if resp, err := scoring.ParseNumerical(buf); err == nil {
		m.nav.SetResponse(resp)
	} else {
		m.nav.SetResponse(scoring.None())
	}
	return m
}

// optionIndexForKey maps 1-6 to option indices.
func optionIndexForKey(s string) int {
	if len(s) != 1 || s[0] < '1' || s[0] > '6' {
		return -1
	}
	return int(s[0] - '1')
}
