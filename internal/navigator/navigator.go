// Package navigator implements the client-side question palette state.
// Statuses are a display aid for the exam TUI; persisted correctness
// always comes from the server's scoring, never from these labels.
package navigator

import (
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/scoring"
)

// Status is the palette state of one question.
type Status int

const (
	StatusNotVisited Status = iota
	StatusNotAnswered
	StatusAnswered
	StatusReview
	StatusAnsweredReview
)

func (s Status) String() string {
	switch s {
	case StatusNotVisited:
		return "not-visited"
	case StatusNotAnswered:
		return "not-answered"
	case StatusAnswered:
		return "answered"
	case StatusReview:
		return "review"
	case StatusAnsweredReview:
		return "answered-review"
	default:
		return "unknown"
	}
}

// Position addresses one question: a subject and an index within that
// subject's question list. All state lives in maps keyed by Position, so
// adding a subject never duplicates logic.
type Position struct {
	Subject model.Subject
	Index   int
}

// StatusCounts summarizes the palette for the submit confirmation.
type StatusCounts struct {
	NotVisited     int
	NotAnswered    int
	Answered       int
	Review         int
	AnsweredReview int
}

// Navigator tracks visitation, responses, and the current position
// across the whole paper. Each subject's questions are independent;
// switching subjects preserves both maps.
type Navigator struct {
	subjects  []model.Subject
	counts    map[model.Subject]int
	statuses  map[Position]Status
	responses map[Position]scoring.Response
	current   Position
}

// New creates a Navigator over the given subjects in display order.
// counts gives the number of questions per subject. The first question
// of the first subject is visited immediately.
func New(subjects []model.Subject, counts map[model.Subject]int) *Navigator {
	n := &Navigator{
		subjects:  subjects,
		counts:    counts,
		statuses:  make(map[Position]Status),
		responses: make(map[Position]scoring.Response),
	}
	if len(subjects) > 0 {
		n.current = Position{Subject: subjects[0], Index: 0}
		n.visit(n.current)
	}
	return n
}

// Current returns the position being displayed.
func (n *Navigator) Current() Position {
	return n.current
}

// Status returns the palette status of a position.
func (n *Navigator) Status(pos Position) Status {
	return n.statuses[pos]
}

// Response returns the locally selected response for the current question.
func (n *Navigator) Response() scoring.Response {
	return n.responses[n.current]
}

// SetResponse records the candidate's in-progress selection for the
// current question. It does not change the palette status; that happens
// only when a save round trip succeeds.
func (n *Navigator) SetResponse(resp scoring.Response) {
	if resp.IsNone() {
		delete(n.responses, n.current)
		return
	}
	n.responses[n.current] = resp
}

// SaveAndNext applies a confirmed save: the current question becomes
// answered if a response is present, not-answered otherwise, then the
// view advances within the subject. Call only after the server accepted
// the save; a failed save must leave the palette untouched.
func (n *Navigator) SaveAndNext() {
	if n.Response().IsNone() {
		n.statuses[n.current] = StatusNotAnswered
	} else {
		n.statuses[n.current] = StatusAnswered
	}
	n.advance()
}

// SaveAndMarkForReview is SaveAndNext with the review variants of the
// target states.
func (n *Navigator) SaveAndMarkForReview() {
	if n.Response().IsNone() {
		n.statuses[n.current] = StatusReview
	} else {
		n.statuses[n.current] = StatusAnsweredReview
	}
	n.advance()
}

// MarkForReviewAndNext flags the current question for review without
// saving, regardless of response presence, then advances.
func (n *Navigator) MarkForReviewAndNext() {
	n.statuses[n.current] = StatusReview
	n.advance()
}

// ClearResponse drops the current question's local response and returns
// it to not-answered.
func (n *Navigator) ClearResponse() {
	delete(n.responses, n.current)
	n.statuses[n.current] = StatusNotAnswered
}

// JumpTo moves directly to a question via the palette. Out-of-range
// jumps are ignored.
func (n *Navigator) JumpTo(pos Position) {
	if !n.valid(pos) {
		return
	}
	n.current = pos
	n.visit(pos)
}

// SwitchSubject moves to the first question of another subject. The
// previous subject's statuses and responses are preserved.
func (n *Navigator) SwitchSubject(subject model.Subject) {
	if _, ok := n.counts[subject]; !ok {
		return
	}
	n.current = Position{Subject: subject, Index: 0}
	n.visit(n.current)
}

// Restore seeds one question's state from a previously saved entry, so
// a resumed session shows the palette the candidate left behind. The
// current position does not move.
func (n *Navigator) Restore(pos Position, resp scoring.Response, marked bool) {
	if !n.valid(pos) {
		return
	}
	if !resp.IsNone() {
		n.responses[pos] = resp
	}
	switch {
	case marked && !resp.IsNone():
		n.statuses[pos] = StatusAnsweredReview
	case marked:
		n.statuses[pos] = StatusReview
	case !resp.IsNone():
		n.statuses[pos] = StatusAnswered
	default:
		n.statuses[pos] = StatusNotAnswered
	}
}

// Counts tallies palette statuses across the whole paper.
func (n *Navigator) Counts() StatusCounts {
	var c StatusCounts
	for _, subject := range n.subjects {
		for i := 0; i < n.counts[subject]; i++ {
			switch n.statuses[Position{Subject: subject, Index: i}] {
			case StatusNotVisited:
				c.NotVisited++
			case StatusNotAnswered:
				c.NotAnswered++
			case StatusAnswered:
				c.Answered++
			case StatusReview:
				c.Review++
			case StatusAnsweredReview:
				c.AnsweredReview++
			}
		}
	}
	return c
}

// Subjects returns the subject display order.
func (n *Navigator) Subjects() []model.Subject {
	return n.subjects
}

// SubjectCount returns how many questions a subject has.
func (n *Navigator) SubjectCount(subject model.Subject) int {
	return n.counts[subject]
}

// advance moves to the next question within the current subject, or
// stays put on the last one.
func (n *Navigator) advance() {
	next := Position{Subject: n.current.Subject, Index: n.current.Index + 1}
	if !n.valid(next) {
		return
	}
	n.current = next
	n.visit(next)
}

// visit applies the not-visited → not-answered transition. Already
// visited questions keep their status.
func (n *Navigator) visit(pos Position) {
	if n.statuses[pos] == StatusNotVisited {
		n.statuses[pos] = StatusNotAnswered
	}
}

func (n *Navigator) valid(pos Position) bool {
	count, ok := n.counts[pos.Subject]
	return ok && pos.Index >= 0 && pos.Index < count
}
