package model

// Subject identifies one of the fixed exam subjects.
type Subject string

const (
	SubjectPhysics     Subject = "PHYSICS"
	SubjectChemistry   Subject = "CHEMISTRY"
	SubjectMathematics Subject = "MATHEMATICS"
)

// Subjects lists every subject in paper order.
var Subjects = []Subject{SubjectPhysics, SubjectChemistry, SubjectMathematics}

// Valid reports whether s is a known subject.
func (s Subject) Valid() bool {
	switch s {
	case SubjectPhysics, SubjectChemistry, SubjectMathematics:
		return true
	}
	return false
}
