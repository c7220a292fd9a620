package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/student-portal/internal/store"
)

func TestRoster(t *testing.T) {
	m := store.NewMockStore()
	ctx := context.Background()

	_, err := m.AddStudent(ctx, &store.Student{
		StudentCode: "56X00111111",
		Subjects:    []string{"COMPUTING"},
		Scores:      map[string]store.Score{"051": {Year1: "80", Year2: "82"}},
	})
	require.NoError(t, err)
	_, err = m.AddStudent(ctx, &store.Student{
		StudentCode: "56X00222222",
		Subjects:    []string{"MATHEMATICS", "FANTE"},
		Scores:      map[string]store.Score{"030": {Year1: "75", Year2: "000"}, "050": {Year1: "1", Year2: "2"}},
	})
	require.NoError(t, err)
	_, err = m.AddStudent(ctx, &store.Student{StudentCode: "A|B"})
	require.NoError(t, err)

	md, err := Roster(ctx, m)
	require.NoError(t, err)

	assert.Contains(t, md, "| 1 | 56X00111111 |")
	assert.Contains(t, md, "| complete |")
	assert.Contains(t, md, "| missing: MATHEMATICS |")
	assert.Contains(t, md, `| 3 | A\|B |`)
	assert.Contains(t, md, "| no scores |")
	assert.Contains(t, md, "2 of 3 students missing CASS scores.")
}

func TestRoster_Empty(t *testing.T) {
	md, err := Roster(context.Background(), store.NewMockStore())
	require.NoError(t, err)
	assert.Contains(t, md, "No students enrolled.")
}

func TestRosterHTML(t *testing.T) {
	m := store.NewMockStore()
	_, err := m.AddStudent(context.Background(), &store.Student{Subjects: []string{"SCIENCE"}})
	require.NoError(t, err)

	html, err := RosterHTML(context.Background(), m)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Student roster</h1>")
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "missing: SCIENCE")
}

func TestRoster_ReadError(t *testing.T) {
	m := store.NewMockStore()
	m.ReadErr = errors.New("io")

	_, err := RosterHTML(context.Background(), m)
	assert.ErrorIs(t, err, store.ErrRead)
}
