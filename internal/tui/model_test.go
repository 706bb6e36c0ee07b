package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/navigator"
	"github.com/prepnova/mocktest-backend/internal/scoring"
)

// newExamModel enters the exam screen over a two-question paper.
func newExamModel(t *testing.T) Model {
	t.Helper()

	mcq := model.QuestionForCandidate{
		ID:           uuid.New(),
		Subject:      model.SubjectPhysics,
		QuestionType: model.QuestionTypeMCQ,
		QuestionText: "pick one",
		Options: []model.OptionForCandidate{
			{ID: uuid.New(), Text: "a"},
			{ID: uuid.New(), Text: "b"},
		},
	}
	numerical := model.QuestionForCandidate{
		ID:           uuid.New(),
		Subject:      model.SubjectPhysics,
		QuestionType: model.QuestionTypeNumerical,
		QuestionText: "type one",
	}

	m := NewModel(NewClient("http://localhost:0"))
	m = m.enterExam(&Paper{
		Paper: &model.TestPayload{
			TestID:          uuid.New(),
			Title:           "paper",
			DurationMinutes: 60,
			Questions:       []model.QuestionForCandidate{mcq, numerical},
		},
		StartedAt: time.Now(),
	})
	if m.screen != screenExam {
		t.Fatalf("screen = %d, want exam", m.screen)
	}
	return m
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

func TestUpdateSaveOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		msg        saveMsg
		wantIndex  int
		wantStatus navigator.Status
	}{
		{
			name:       "failed save stays put",
			msg:        saveMsg{err: errors.New("boom")},
			wantIndex:  0,
			wantStatus: navigator.StatusNotAnswered,
		},
		{
			name:       "confirmed save advances",
			msg:        saveMsg{result: &model.Result{}},
			wantIndex:  1,
			wantStatus: navigator.StatusAnswered,
		},
		{
			name:       "confirmed save with review flag",
			msg:        saveMsg{result: &model.Result{}, marked: true},
			wantIndex:  1,
			wantStatus: navigator.StatusAnsweredReview,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newExamModel(t)
			start := m.nav.Current()
			question := m.questions[start]
			m.nav.SetResponse(scoring.SelectedOption(question.Options[0].ID))
			m.saving = true

			m, _ = applyMsg(t, m, tc.msg)

			if m.saving {
				t.Error("saving flag not cleared")
			}
			if got := m.nav.Current().Index; got != tc.wantIndex {
				t.Errorf("current index = %d, want %d", got, tc.wantIndex)
			}
			if got := m.nav.Status(start); got != tc.wantStatus {
				t.Errorf("palette status = %s, want %s", got, tc.wantStatus)
			}
			if tc.msg.err != nil && m.status == "" {
				t.Error("failed save must surface an error status")
			}
		})
	}
}

func TestUpdateSaveKeyIssuesOneRequestAtATime(t *testing.T) {
	m := newExamModel(t)
	key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}

	m, cmd := applyMsg(t, m, key)
	if cmd == nil {
		t.Fatal("save key should issue a save command")
	}
	if !m.saving {
		t.Fatal("save key should set the saving flag")
	}

	// A second press while the round trip is in flight is ignored.
	_, cmd = applyMsg(t, m, key)
	if cmd != nil {
		t.Error("second save key while saving must not issue another command")
	}
}

func TestUpdateTimeUpSubmits(t *testing.T) {
	m := newExamModel(t)
	m.countdown.Sync(500 * time.Millisecond)

	m, cmd := applyMsg(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expiring tick must issue the submit command")
	}
	if !m.countdown.Expired() {
		t.Error("countdown should report expired")
	}
}
