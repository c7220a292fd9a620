package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/student-portal/internal/config"
	"github.com/2389/student-portal/internal/store"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("STUDENT_PORTAL_CONFIG", "/etc/portal.yaml")
	assert.Equal(t, "/etc/portal.yaml", getConfigPath())

	t.Setenv("STUDENT_PORTAL_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "student-portal", "config.yaml"), getConfigPath())
}

func TestGetDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, filepath.Join("/data", "student-portal"), getDataPath())
}

func TestSetupLogger(t *testing.T) {
	logger := setupLogger(config.LoggingConfig{Level: "warn"})
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"MATHEMATICS", "SOCIAL STUDIES"}, splitList(" MATHEMATICS, SOCIAL STUDIES ,"))
}

func TestParseAddArgs(t *testing.T) {
	st, err := parseAddArgs([]string{"--subjects", "FANTE,COMPUTING", "--extra", `{"firstName":"Ama"}`})
	require.NoError(t, err)
	assert.Equal(t, []string{"FANTE", "COMPUTING"}, st.Subjects)
	assert.Equal(t, "Ama", st.Extra["firstName"])
	assert.Empty(t, st.StudentCode)

	_, err = parseAddArgs([]string{"--extra", "[1,2]"})
	assert.Error(t, err)
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg("get", []string{"5"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	_, err = parseIDArg("get", nil)
	assert.Error(t, err)
}

func TestCommandsAgainstTempStore(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Write(configPath))
	t.Setenv("STUDENT_PORTAL_CONFIG", configPath)

	ctx := t.Context()
	var out bytes.Buffer

	require.NoError(t, runAdd(ctx, &out, []string{"--code", "56X00111111", "--subjects", "MATHEMATICS"}))
	assert.Contains(t, out.String(), "Added student 1 (56X00111111)")

	out.Reset()
	require.NoError(t, runList(ctx, &out))
	assert.Contains(t, out.String(), "56X00111111")
	assert.Contains(t, out.String(), "MATHEMATICS")

	out.Reset()
	require.NoError(t, runNextCASS(ctx, &out))
	assert.Equal(t, "/CassScoreEntry.html?id=1\n", out.String())

	out.Reset()
	require.NoError(t, runGet(ctx, &out, []string{"1"}))
	assert.Contains(t, out.String(), `"studentCode": "56X00111111"`)

	out.Reset()
	require.NoError(t, runReport(ctx, &out))
	assert.Contains(t, out.String(), "missing: MATHEMATICS")

	out.Reset()
	require.NoError(t, runDelete(ctx, &out, []string{"1"}))
	assert.Contains(t, out.String(), "Deleted student 1.")

	out.Reset()
	require.NoError(t, runNextCASS(ctx, &out))
	assert.Contains(t, out.String(), "No students with missing CASS scores found.")

	_, err := os.Stat(filepath.Join(dir, "students.db"))
	assert.NoError(t, err)
}

func TestRenderStudents(t *testing.T) {
	var out bytes.Buffer
	renderStudents(&out, []*store.Student{
		{ID: 1, StudentCode: "A", Subjects: []string{"FANTE"}, Scores: map[string]store.Score{"050": {Year1: "1", Year2: "2"}}},
		{ID: 2, StudentCode: "B", Subjects: []string{"FANTE", "SCIENCE"}},
	})
	assert.Contains(t, out.String(), "complete")
	assert.Contains(t, out.String(), "missing (2)")
}
