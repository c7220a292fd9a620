// ABOUTME: Store interface and data types for student-portal persistence
// ABOUTME: Defines Student, Score, the error taxonomy and enrollment stamping

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Persisted-state contract shared with other parts of the school system.
const (
	DatabaseName   = "StudentPortalDB"
	CollectionName = "students"
	SchemaVersion  = 1
)

const (
	// DefaultCodePrefix is prepended to generated student codes.
	DefaultCodePrefix = "56X00"

	// DefaultDateLayout renders dateEnrolled like an en-US locale timestamp.
	DefaultDateLayout = "1/2/2006, 3:04:05 PM"

	// ScoreNotEntered marks a CASS score that has not been entered yet.
	ScoreNotEntered = "000"
)

var (
	// ErrStoreUnavailable is returned when the database cannot be opened
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRead is returned when fetching students fails
	ErrRead = errors.New("read failed")

	// ErrWrite is returned when adding, updating or deleting a student fails
	ErrWrite = errors.New("write failed")
)

// Score is a two-term continuous assessment score for one subject.
type Score struct {
	Year1 string `json:"year1"`
	Year2 string `json:"year2"`
}

// Complete reports whether both terms hold an entered score.
func (s Score) Complete() bool {
	return s.Year1 != "" && s.Year2 != "" &&
		s.Year1 != ScoreNotEntered && s.Year2 != ScoreNotEntered
}

// Student is the stored record. Fields the portal does not know about are
// kept in Extra and written back unchanged.
type Student struct {
	ID           int64
	StudentCode  string
	DateEnrolled string
	Subjects     []string
	Scores       map[string]Score // keyed by subject code
	Extra        map[string]any
}

var knownFields = map[string]bool{
	"id":           true,
	"studentCode":  true,
	"dateEnrolled": true,
	"subjects":     true,
	"scores":       true,
}

// MarshalJSON flattens Extra alongside the known fields.
func (s Student) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Extra)+len(knownFields))
	for k, v := range s.Extra {
		if !knownFields[k] {
			doc[k] = v
		}
	}
	if s.ID != 0 {
		doc["id"] = s.ID
	}
	if s.StudentCode != "" {
		doc["studentCode"] = s.StudentCode
	}
	if s.DateEnrolled != "" {
		doc["dateEnrolled"] = s.DateEnrolled
	}
	doc["subjects"] = s.Subjects
	doc["scores"] = s.Scores
	return json.Marshal(doc)
}

// UnmarshalJSON reads known fields and collects the rest into Extra.
func (s *Student) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Student
	for k, v := range raw {
		var err error
		switch k {
		case "id":
			out.ID, err = decodeID(v)
		case "studentCode":
			err = json.Unmarshal(v, &out.StudentCode)
		case "dateEnrolled":
			err = json.Unmarshal(v, &out.DateEnrolled)
		case "subjects":
			err = json.Unmarshal(v, &out.Subjects)
		case "scores":
			err = json.Unmarshal(v, &out.Scores)
		default:
			var val any
			err = json.Unmarshal(v, &val)
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[k] = val
		}
		if err != nil {
			return fmt.Errorf("decoding %s: %w", k, err)
		}
	}

	*s = out
	return nil
}

// decodeID accepts both numeric and quoted ids, the way form-driven front
// ends tend to send them.
func decodeID(v json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.Int64()
	}
	var str string
	if err := json.Unmarshal(v, &str); err != nil {
		return 0, err
	}
	if str == "" {
		return 0, nil
	}
	return ParseID(str)
}

// ParseID coerces a textual key into a student id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid student id %q", s)
	}
	return id, nil
}

// Clone returns a deep copy of the student.
func (s *Student) Clone() *Student {
	c := *s
	if s.Subjects != nil {
		c.Subjects = append([]string{}, s.Subjects...)
	}
	if s.Scores != nil {
		c.Scores = make(map[string]Score, len(s.Scores))
		for k, v := range s.Scores {
			c.Scores[k] = v
		}
	}
	if s.Extra != nil {
		c.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Store defines the interface for student persistence
type Store interface {
	// AddStudent stamps dateEnrolled, fills in a missing studentCode, stores
	// the record and sets its assigned ID.
	AddStudent(ctx context.Context, student *Student) (int64, error)

	// GetStudent returns nil and no error when no student has the id.
	GetStudent(ctx context.Context, id int64) (*Student, error)

	// ListStudents returns every student in ascending id order.
	ListStudents(ctx context.Context) ([]*Student, error)

	// UpdateStudent replaces the whole record stored under student.ID.
	UpdateStudent(ctx context.Context, student *Student) error

	// DeleteStudent removes a student. Deleting a missing id is not an error.
	DeleteStudent(ctx context.Context, id int64) error

	// Close releases any resources held by the store
	Close() error
}

// Enrollment holds the rules applied to new students on add.
type Enrollment struct {
	CodePrefix string
	DateLayout string
	Now        func() time.Time
	// Intn returns a value in [0, n).
	Intn func(n int) int
}

// DefaultEnrollment uses the wall clock and math/rand.
func DefaultEnrollment() Enrollment {
	return Enrollment{
		CodePrefix: DefaultCodePrefix,
		DateLayout: DefaultDateLayout,
		Now:        time.Now,
		Intn:       rand.IntN,
	}
}

// Stamp sets dateEnrolled to now and generates a studentCode when empty.
func (e Enrollment) Stamp(s *Student) {
	e = e.withDefaults()
	s.DateEnrolled = e.Now().Format(e.DateLayout)
	if s.StudentCode == "" {
		s.StudentCode = e.GenerateCode()
	}
}

// GenerateCode returns the prefix followed by 6 digits in [100000, 999999].
// There is no collision check.
func (e Enrollment) GenerateCode() string {
	e = e.withDefaults()
	return e.CodePrefix + strconv.Itoa(100000+e.Intn(900000))
}

func (e Enrollment) withDefaults() Enrollment {
	def := DefaultEnrollment()
	if e.CodePrefix == "" {
		e.CodePrefix = def.CodePrefix
	}
	if e.DateLayout == "" {
		e.DateLayout = def.DateLayout
	}
	if e.Now == nil {
		e.Now = def.Now
	}
	if e.Intn == nil {
		e.Intn = def.Intn
	}
	return e
}
