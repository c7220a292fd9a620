// ABOUTME: Tests for the missing CASS score finder
// ABOUTME: Covers qualification rules, store order and the subject name fallback

package cass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/student-portal/internal/store"
)

func seed(t *testing.T, students ...*store.Student) *store.MockStore {
	t.Helper()
	m := store.NewMockStore()
	for _, st := range students {
		_, err := m.AddStudent(context.Background(), st)
		require.NoError(t, err)
	}
	return m
}

func TestMissingScores(t *testing.T) {
	tests := []struct {
		name    string
		student store.Student
		want    bool
	}{
		{
			name:    "no scores map",
			student: store.Student{Subjects: []string{"MATHEMATICS"}},
			want:    true,
		},
		{
			name:    "empty scores map",
			student: store.Student{Subjects: []string{"MATHEMATICS"}, Scores: map[string]store.Score{}},
			want:    true,
		},
		{
			name:    "empty scores and no subjects",
			student: store.Student{Scores: map[string]store.Score{}},
			want:    true,
		},
		{
			name: "year2 not entered",
			student: store.Student{
				Subjects: []string{"MATHEMATICS"},
				Scores:   map[string]store.Score{"030": {Year1: "75", Year2: "000"}},
			},
			want: true,
		},
		{
			name: "year1 missing",
			student: store.Student{
				Subjects: []string{"MATHEMATICS"},
				Scores:   map[string]store.Score{"030": {Year2: "75"}},
			},
			want: true,
		},
		{
			name: "complete",
			student: store.Student{
				Subjects: []string{"COMPUTING"},
				Scores:   map[string]store.Score{"051": {Year1: "80", Year2: "82"}},
			},
			want: false,
		},
		{
			name: "second subject has no entry",
			student: store.Student{
				Subjects: []string{"COMPUTING", "SCIENCE"},
				Scores:   map[string]store.Score{"051": {Year1: "80", Year2: "82"}},
			},
			want: true,
		},
		{
			name: "score keyed by name rather than code",
			student: store.Student{
				Subjects: []string{"COMPUTING"},
				Scores:   map[string]store.Score{"COMPUTING": {Year1: "80", Year2: "82"}},
			},
			want: true,
		},
		{
			name: "unmapped subject falls back to its name",
			student: store.Student{
				Subjects: []string{"FRENCH"},
				Scores:   map[string]store.Score{"FRENCH": {Year1: "60", Year2: "70"}},
			},
			want: false,
		},
		{
			name: "scores for subjects not enrolled are ignored",
			student: store.Student{
				Subjects: []string{"FANTE"},
				Scores: map[string]store.Score{
					"050": {Year1: "60", Year2: "70"},
					"001": {Year1: "000", Year2: "000"},
				},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissingScores(&tt.student))
		})
	}
}

func TestMissingSubjects(t *testing.T) {
	st := &store.Student{
		Subjects: []string{"ENGLISH LANGUAGE", "MATHEMATICS", "SCIENCE"},
		Scores: map[string]store.Score{
			"001": {Year1: "70", Year2: "71"},
			"030": {Year1: "75", Year2: "000"},
		},
	}
	assert.Equal(t, []string{"MATHEMATICS", "SCIENCE"}, MissingSubjects(st))

	none := &store.Student{Subjects: []string{"FANTE", "COMPUTING"}}
	assert.Equal(t, []string{"FANTE", "COMPUTING"}, MissingSubjects(none))

	complete := &store.Student{
		Subjects: []string{"FANTE"},
		Scores:   map[string]store.Score{"050": {Year1: "1", Year2: "2"}},
	}
	assert.Empty(t, MissingSubjects(complete))
}

func TestFirstMissingScores_EmptyStore(t *testing.T) {
	st, err := FirstMissingScores(context.Background(), store.NewMockStore())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestFirstMissingScores_PreservesOrder(t *testing.T) {
	m := seed(t,
		&store.Student{
			Subjects: []string{"COMPUTING"},
			Scores:   map[string]store.Score{"051": {Year1: "80", Year2: "82"}},
		},
		&store.Student{
			Subjects: []string{"MATHEMATICS"},
			Scores:   map[string]store.Score{"030": {Year1: "75", Year2: "000"}},
		},
		&store.Student{Scores: map[string]store.Score{}},
	)

	st, err := FirstMissingScores(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(2), st.ID)
}

func TestFirstMissingScores_EmptyScoresFirst(t *testing.T) {
	m := seed(t,
		&store.Student{Scores: map[string]store.Score{}},
		&store.Student{Subjects: []string{"FANTE"}},
	)

	st, err := FirstMissingScores(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(1), st.ID)
}

func TestFirstMissingScores_AllComplete(t *testing.T) {
	m := seed(t, &store.Student{
		Subjects: []string{"COMPUTING"},
		Scores:   map[string]store.Score{"051": {Year1: "80", Year2: "82"}},
	})

	st, err := FirstMissingScores(context.Background(), m)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestFirstMissingScores_ReadError(t *testing.T) {
	m := store.NewMockStore()
	m.ReadErr = errors.New("io")

	_, err := FirstMissingScores(context.Background(), m)
	assert.ErrorIs(t, err, store.ErrRead)
}
