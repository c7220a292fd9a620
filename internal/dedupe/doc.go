// Package dedupe remembers recent add-student submissions so a repeated
// submission (a double click, a retried request) resolves to the record it
// already created instead of enrolling the student twice.
//
// Submissions are keyed by the client-supplied Idempotency-Key header. Keys
// expire after a TTL and the cache is bounded; the oldest key is evicted
// first when it is full.
package dedupe
