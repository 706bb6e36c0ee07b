package navigator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/scoring"
)

func newTestNavigator() *Navigator {
	return New(model.Subjects, map[model.Subject]int{
		model.SubjectPhysics:     3,
		model.SubjectChemistry:   2,
		model.SubjectMathematics: 2,
	})
}

func TestNewVisitsFirstQuestion(t *testing.T) {
	n := newTestNavigator()

	if got := n.Current(); got != (Position{Subject: model.SubjectPhysics, Index: 0}) {
		t.Fatalf("current = %+v, want physics/0", got)
	}
	if got := n.Status(n.Current()); got != StatusNotAnswered {
		t.Errorf("first question status = %s, want not-answered", got)
	}
	if got := n.Status(Position{Subject: model.SubjectPhysics, Index: 1}); got != StatusNotVisited {
		t.Errorf("unvisited question status = %s, want not-visited", got)
	}
}

func TestSaveAndNextWithResponse(t *testing.T) {
	n := newTestNavigator()
	first := n.Current()

	n.SetResponse(scoring.SelectedOption(uuid.New()))
	n.SaveAndNext()

	if got := n.Status(first); got != StatusAnswered {
		t.Errorf("saved question status = %s, want answered", got)
	}
	if got := n.Current(); got != (Position{Subject: model.SubjectPhysics, Index: 1}) {
		t.Errorf("current = %+v, want physics/1", got)
	}
}

func TestSaveAndNextWithoutResponse(t *testing.T) {
	n := newTestNavigator()
	first := n.Current()

	n.SaveAndNext()

	if got := n.Status(first); got != StatusNotAnswered {
		t.Errorf("status = %s, want not-answered", got)
	}
}

func TestSaveAndNextStopsAtLastQuestion(t *testing.T) {
	n := newTestNavigator()
	n.JumpTo(Position{Subject: model.SubjectPhysics, Index: 2})

	n.SaveAndNext()

	if got := n.Current(); got != (Position{Subject: model.SubjectPhysics, Index: 2}) {
		t.Errorf("current = %+v, want to stay at physics/2", got)
	}
}

func TestSaveAndMarkForReview(t *testing.T) {
	n := newTestNavigator()
	first := n.Current()

	n.SetResponse(scoring.NumericalValue(3.14))
	n.SaveAndMarkForReview()

	if got := n.Status(first); got != StatusAnsweredReview {
		t.Errorf("status = %s, want answered-review", got)
	}

	second := n.Current()
	n.SaveAndMarkForReview()
	if got := n.Status(second); got != StatusReview {
		t.Errorf("status without response = %s, want review", got)
	}
}

func TestMarkForReviewAndNextIgnoresResponse(t *testing.T) {
	n := newTestNavigator()
	first := n.Current()

	n.SetResponse(scoring.SelectedOption(uuid.New()))
	n.MarkForReviewAndNext()

	if got := n.Status(first); got != StatusReview {
		t.Errorf("status = %s, want review", got)
	}
}

func TestClearResponse(t *testing.T) {
	n := newTestNavigator()

	n.SetResponse(scoring.SelectedOption(uuid.New()))
	n.SaveAndNext()
	n.JumpTo(Position{Subject: model.SubjectPhysics, Index: 0})
	n.ClearResponse()

	if got := n.Status(n.Current()); got != StatusNotAnswered {
		t.Errorf("status = %s, want not-answered after clear", got)
	}
	if !n.Response().IsNone() {
		t.Error("response survived ClearResponse")
	}
}

func TestSwitchSubjectPreservesState(t *testing.T) {
	n := newTestNavigator()
	physicsFirst := n.Current()

	n.SetResponse(scoring.SelectedOption(uuid.New()))
	n.SaveAndNext()

	n.SwitchSubject(model.SubjectChemistry)
	if got := n.Current(); got != (Position{Subject: model.SubjectChemistry, Index: 0}) {
		t.Fatalf("current = %+v, want chemistry/0", got)
	}
	if !n.Response().IsNone() {
		t.Error("response bled across subjects")
	}

	n.SwitchSubject(model.SubjectPhysics)
	if got := n.Status(physicsFirst); got != StatusAnswered {
		t.Errorf("physics status lost on subject switch: %s", got)
	}
}

func TestJumpToOutOfRangeIsIgnored(t *testing.T) {
	n := newTestNavigator()
	before := n.Current()

	n.JumpTo(Position{Subject: model.SubjectPhysics, Index: 99})
	n.JumpTo(Position{Subject: "BIOLOGY", Index: 0})

	if got := n.Current(); got != before {
		t.Errorf("current moved to invalid position: %+v", got)
	}
}

func TestCounts(t *testing.T) {
	n := newTestNavigator()

	n.SetResponse(scoring.SelectedOption(uuid.New()))
	n.SaveAndNext()
	n.MarkForReviewAndNext()

	c := n.Counts()
	if c.Answered != 1 || c.Review != 1 {
		t.Errorf("counts = %+v, want 1 answered and 1 review", c)
	}
	if c.NotAnswered != 1 {
		t.Errorf("not-answered = %d, want 1 (the current question)", c.NotAnswered)
	}
	if c.NotVisited != 4 {
		t.Errorf("not-visited = %d, want 4", c.NotVisited)
	}
	total := c.NotVisited + c.NotAnswered + c.Answered + c.Review + c.AnsweredReview
	if total != 7 {
		t.Errorf("counts sum = %d, want 7", total)
	}
}

func TestCountdownTick(t *testing.T) {
	c := NewCountdown(3 * time.Second)

	if c.Tick(time.Second) {
		t.Error("expired after one tick of three")
	}
	if c.Tick(time.Second) {
		t.Error("expired after two ticks of three")
	}
	if !c.Tick(time.Second) {
		t.Error("did not report expiry on the crossing tick")
	}
	if c.Tick(time.Second) {
		t.Error("reported expiry twice")
	}
	if c.Remaining() != 0 {
		t.Errorf("remaining = %v, want 0", c.Remaining())
	}
}

func TestCountdownSync(t *testing.T) {
	c := NewCountdown(10 * time.Minute)

	c.Sync(30 * time.Second)
	if c.Remaining() != 30*time.Second {
		t.Errorf("remaining = %v, want 30s", c.Remaining())
	}

	c.Sync(0)
	if !c.Expired() {
		t.Error("sync to zero did not expire the countdown")
	}

	c.Sync(5 * time.Minute)
	if !c.Expired() {
		t.Error("expired countdown was revived by sync")
	}
}
