// ABOUTME: JSON handlers for student record operations
// ABOUTME: Maps add, get, list, update and delete onto the store

package portal

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2389/student-portal/internal/store"
)

// maxBodyBytes bounds student request bodies.
const maxBodyBytes = 1 << 20

// AddStudentResponse is returned by POST /api/students.
type AddStudentResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) decodeStudent(w http.ResponseWriter, r *http.Request) (*store.Student, bool) {
	var st store.Student
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&st); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return &st, true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := store.ParseID(r.PathValue("id"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// handleAddStudent enrolls a new student. A request repeating an earlier
// Idempotency-Key gets the earlier id back with 200 instead of a second
// record.
func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodeStudent(w, r)
	if !ok {
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" {
		s.submitMu.Lock()
		defer s.submitMu.Unlock()

		if id, seen := s.submissions.Lookup(key); seen {
			s.logger.Info("repeated add submission", "idempotency_key", key, "id", id)
			w.Header().Set("Location", studentPath(id))
			s.sendJSON(w, http.StatusOK, AddStudentResponse{ID: id})
			return
		}
	}

	id, err := s.store.AddStudent(r.Context(), st)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	if key != "" {
		s.submissions.Remember(key, id)
	}

	w.Header().Set("Location", studentPath(id))
	s.sendJSON(w, http.StatusCreated, AddStudentResponse{ID: id})
}

func studentPath(id int64) string {
	return "/api/students/" + strconv.FormatInt(id, 10)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	st, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	if st == nil {
		s.sendJSONError(w, http.StatusNotFound, "student not found")
		return
	}
	s.sendJSON(w, http.StatusOK, st)
}

// handleUpdateStudent replaces the record. The id in the path wins over any
// id in the body.
func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	st, ok := s.decodeStudent(w, r)
	if !ok {
		return
	}
	st.ID = id

	if err := s.store.UpdateStudent(r.Context(), st); err != nil {
		s.sendStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteStudent(r.Context(), id); err != nil {
		s.sendStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
