// ABOUTME: Operator commands for student records
// ABOUTME: add, list, get and delete against the local store

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/2389/student-portal/internal/cass"
	"github.com/2389/student-portal/internal/config"
	"github.com/2389/student-portal/internal/store"
)

// parseAddArgs builds a student from add's flags.
func parseAddArgs(args []string) (*store.Student, error) {
	flags := flag.NewFlagSet("add", flag.ContinueOnError)
	code := flags.String("code", "", "student code (generated when empty)")
	subjectList := flags.String("subjects", "", "comma-separated subject names")
	extra := flags.String("extra", "", `additional fields as a JSON object, e.g. '{"firstName":"Ama"}'`)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	st := &store.Student{
		StudentCode: *code,
		Subjects:    splitList(*subjectList),
		Scores:      map[string]store.Score{},
	}
	if *extra != "" {
		if err := json.Unmarshal([]byte(*extra), &st.Extra); err != nil {
			return nil, fmt.Errorf("parsing --extra: %w", err)
		}
	}
	return st, nil
}

func runAdd(ctx context.Context, w io.Writer, args []string) error {
	st, err := parseAddArgs(args)
	if err != nil {
		return err
	}

	return withStore(func(s store.Store, _ *config.Config) error {
		id, err := s.AddStudent(ctx, st)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(w, "Added student %d (%s)\n", id, st.StudentCode)
		return nil
	})
}

func runList(ctx context.Context, w io.Writer) error {
	return withStore(func(s store.Store, _ *config.Config) error {
		students, err := s.ListStudents(ctx)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			fmt.Fprintln(w, "No students found.")
			return nil
		}
		renderStudents(w, students)
		return nil
	})
}

// renderStudents writes a table of students with their CASS status.
func renderStudents(w io.Writer, students []*store.Student) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Code", "Enrolled", "Subjects", "CASS"})

	for _, st := range students {
		status := "complete"
		if cass.MissingScores(st) {
			status = "missing"
			if missing := cass.MissingSubjects(st); len(missing) > 0 {
				status += " (" + strconv.Itoa(len(missing)) + ")"
			}
		}
		table.Append([]string{
			strconv.FormatInt(st.ID, 10),
			st.StudentCode,
			st.DateEnrolled,
			strings.Join(st.Subjects, ", "),
			status,
		})
	}

	table.Render()
}

func parseIDArg(cmd string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: student-portal %s <id>", cmd)
	}
	return store.ParseID(args[0])
}

func runGet(ctx context.Context, w io.Writer, args []string) error {
	id, err := parseIDArg("get", args)
	if err != nil {
		return err
	}

	return withStore(func(s store.Store, _ *config.Config) error {
		st, err := s.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			color.New(color.FgYellow).Fprintf(w, "No student with id %d.\n", id)
			return nil
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	})
}

func runDelete(ctx context.Context, w io.Writer, args []string) error {
	id, err := parseIDArg("delete", args)
	if err != nil {
		return err
	}

	return withStore(func(s store.Store, _ *config.Config) error {
		if err := s.DeleteStudent(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted student %d.\n", id)
		return nil
	})
}
