// ABOUTME: Student roster report with CASS completeness per student
// ABOUTME: Builds a markdown table and renders it to HTML with goldmark

package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/student-portal/internal/cass"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Roster renders the student list as markdown.
func Roster(ctx context.Context, l cass.Lister) (string, error) {
	students, err := l.ListStudents(ctx)
	if err != nil {
		return "", fmt.Errorf("listing students: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Student roster\n\n")

	if len(students) == 0 {
		b.WriteString("No students enrolled.\n")
		return b.String(), nil
	}

	incomplete := 0
	b.WriteString("| ID | Code | Enrolled | Subjects | CASS |\n")
	b.WriteString("|---:|---|---|---|---|\n")
	for _, st := range students {
		status := "complete"
		if cass.MissingScores(st) {
			incomplete++
			missing := cass.MissingSubjects(st)
			if len(missing) == 0 {
				status = "no scores"
			} else {
				status = "missing: " + strings.Join(missing, ", ")
			}
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			st.ID,
			cell(st.StudentCode),
			cell(st.DateEnrolled),
			cell(strings.Join(st.Subjects, ", ")),
			cell(status),
		)
	}

	fmt.Fprintf(&b, "\n%d of %d students missing CASS scores.\n", incomplete, len(students))
	return b.String(), nil
}

// RosterHTML renders the roster as an HTML fragment.
func RosterHTML(ctx context.Context, l cass.Lister) ([]byte, error) {
	md, err := Roster(ctx, l)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// cell escapes characters that would break a markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
