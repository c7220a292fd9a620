// ABOUTME: In-memory Store implementation for testing
// ABOUTME: Follows the SQLite store's stamping and ordering rules without a database

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MockStore)(nil)
)

// MockStore is an in-memory Store implementation for testing.
// Setting ReadErr or WriteErr makes the matching operations fail with it,
// wrapped in ErrRead or ErrWrite.
type MockStore struct {
	mu         sync.RWMutex
	students   map[int64]*Student
	nextID     int64
	enrollment Enrollment

	ReadErr  error
	WriteErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		students:   make(map[int64]*Student),
		nextID:     1,
		enrollment: DefaultEnrollment(),
	}
}

// SetEnrollment overrides the stamping rules.
func (m *MockStore) SetEnrollment(e Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollment = e
}

// AddStudent stores a copy of student under the next id.
func (m *MockStore) AddStudent(ctx context.Context, student *Student) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return 0, fmt.Errorf("%w: error adding student: %w", ErrWrite, m.WriteErr)
	}

	rec := student.Clone()
	m.enrollment.Stamp(rec)

	if rec.ID > 0 {
		if _, exists := m.students[rec.ID]; exists {
			return 0, fmt.Errorf("%w: error adding student: student %d already exists", ErrWrite, rec.ID)
		}
	} else {
		rec.ID = m.nextID
	}
	if rec.ID >= m.nextID {
		m.nextID = rec.ID + 1
	}
	m.students[rec.ID] = rec

	student.ID = rec.ID
	student.DateEnrolled = rec.DateEnrolled
	student.StudentCode = rec.StudentCode
	return rec.ID, nil
}

// GetStudent returns a copy of the student, or nil if absent.
func (m *MockStore) GetStudent(ctx context.Context, id int64) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, fmt.Errorf("%w: error fetching student: %w", ErrRead, m.ReadErr)
	}

	st, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

// ListStudents returns copies of all students ordered by id.
func (m *MockStore) ListStudents(ctx context.Context) ([]*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, fmt.Errorf("%w: error fetching students: %w", ErrRead, m.ReadErr)
	}

	students := make([]*Student, 0, len(m.students))
	for _, st := range m.students {
		students = append(students, st.Clone())
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].ID < students[j].ID
	})
	return students, nil
}

// UpdateStudent replaces the record stored under student.ID.
func (m *MockStore) UpdateStudent(ctx context.Context, student *Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if student.ID <= 0 {
		return fmt.Errorf("%w: error updating student: student id is required", ErrWrite)
	}
	if m.WriteErr != nil {
		return fmt.Errorf("%w: error updating student: %w", ErrWrite, m.WriteErr)
	}

	m.students[student.ID] = student.Clone()
	if student.ID >= m.nextID {
		m.nextID = student.ID + 1
	}
	return nil
}

// DeleteStudent removes a student if present.
func (m *MockStore) DeleteStudent(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return fmt.Errorf("%w: error deleting student: %w", ErrWrite, m.WriteErr)
	}

	delete(m.students, id)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
