// ABOUTME: HTTP trigger that redirects to the CASS score-entry page
// ABOUTME: Picks the first student missing scores; logs and returns 204 when there is none

package cass

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2389/student-portal/internal/store"
)

// DefaultEntryPage is the score-entry view the trigger navigates to.
const DefaultEntryPage = "/CassScoreEntry.html"

// EntryURL returns the score-entry page for a student id.
func EntryURL(page string, id int64) string {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	return page + "?" + q.Encode()
}

// Trigger sends the browser to the score-entry page of the first student
// with missing CASS scores.
type Trigger struct {
	lister    Lister
	entryPage string
	logger    *slog.Logger
}

// NewTrigger creates a Trigger. An empty entryPage uses DefaultEntryPage.
func NewTrigger(lister Lister, entryPage string, logger *slog.Logger) *Trigger {
	if entryPage == "" {
		entryPage = DefaultEntryPage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		lister:    lister,
		entryPage: entryPage,
		logger:    logger.With("component", "cass"),
	}
}

// ServeHTTP redirects with 303 See Other when a student qualifies and
// answers 204 No Content otherwise.
func (t *Trigger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st, err := FirstMissingScores(r.Context(), t.lister)
	if err != nil {
		t.logger.Error("failed to find students with missing CASS scores", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "could not look up students", status)
		return
	}

	if st == nil {
		t.logger.Info("no students with missing CASS scores found")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	target := EntryURL(t.entryPage, st.ID)
	t.logger.Debug("navigating to CASS score entry", "id", st.ID, "target", target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
