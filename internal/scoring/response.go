package scoring

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ResponseKind tags the modality of a submitted response.
type ResponseKind int

const (
	// ResponseNone means no response is present (review-flag-only update).
	ResponseNone ResponseKind = iota
	// ResponseOption is a selected MCQ option.
	ResponseOption
	// ResponseNumerical is a numerical value.
	ResponseNumerical
)

// Response is a tagged union of the two answer modalities. The zero value is
// the absent response.
type Response struct {
	kind     ResponseKind
	optionID uuid.UUID
	value    float64
}

// None returns the absent response.
func None() Response {
	return Response{}
}

// SelectedOption builds an MCQ response.
func SelectedOption(id uuid.UUID) Response {
	return Response{kind: ResponseOption, optionID: id}
}

// NumericalValue builds a numerical response.
func NumericalValue(v float64) Response {
	return Response{kind: ResponseNumerical, value: v}
}

// ParseNumerical canonicalizes a textual numerical answer, so "12.50" and
// "12.5" compare equal to a key of 12.5.
func ParseNumerical(raw string) (Response, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Response{}, fmt.Errorf("parse numerical answer %q: %w", raw, err)
	}
	return NumericalValue(v), nil
}

// Kind returns the response modality.
func (r Response) Kind() ResponseKind {
	return r.kind
}

// IsNone reports whether no response is present.
func (r Response) IsNone() bool {
	return r.kind == ResponseNone
}

// OptionID returns the selected option id when the response is an MCQ pick.
func (r Response) OptionID() (uuid.UUID, bool) {
	return r.optionID, r.kind == ResponseOption
}

// Value returns the numerical value when the response is numerical.
func (r Response) Value() (float64, bool) {
	return r.value, r.kind == ResponseNumerical
}
