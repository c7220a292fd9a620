// Package cass finds students whose continuous assessment (CASS) scores are
// incomplete and sends the front end to the score-entry page for them.
//
// A student qualifies when it has no scores at all, or when any subject it
// is enrolled in has no score entry, or an entry whose year1 or year2 is
// empty or the "000" not-entered marker. Subject names are resolved to
// codes through the subjects table; a name the table does not know is used
// as the code as-is.
//
// Students are scanned in store order and the first qualifying one wins.
// Finding nobody is a normal outcome, not an error.
package cass
