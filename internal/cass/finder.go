// ABOUTME: Missing CASS score detection over the student store
// ABOUTME: Scans students in store order and returns the first with an incomplete score pair

package cass

import (
	"context"
	"fmt"

	"github.com/2389/student-portal/internal/store"
	"github.com/2389/student-portal/internal/subjects"
)

// Lister is the read side of the store the finder needs.
type Lister interface {
	ListStudents(ctx context.Context) ([]*store.Student, error)
}

// MissingScores reports whether the student is missing a complete CASS
// score for any enrolled subject.
func MissingScores(st *store.Student) bool {
	if len(st.Scores) == 0 {
		return true
	}
	for _, name := range st.Subjects {
		if !subjectComplete(st, name) {
			return true
		}
	}
	return false
}

// MissingSubjects returns the enrolled subjects lacking a complete score
// pair, in enrollment order. A student with no scores at all lists every
// subject.
func MissingSubjects(st *store.Student) []string {
	var missing []string
	for _, name := range st.Subjects {
		if len(st.Scores) == 0 || !subjectComplete(st, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func subjectComplete(st *store.Student, name string) bool {
	score, ok := st.Scores[subjects.CodeFor(name)]
	return ok && score.Complete()
}

// FirstMissingScores returns the first student, in store order, that is
// missing CASS scores. It returns nil with no error when every student is
// complete.
func FirstMissingScores(ctx context.Context, l Lister) (*store.Student, error) {
	students, err := l.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	for _, st := range students {
		if MissingScores(st) {
			return st, nil
		}
	}
	return nil, nil
}
