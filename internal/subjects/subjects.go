// ABOUTME: Fixed subject code table shared by the portal and CASS score entry
// ABOUTME: Maps 3-digit subject codes to canonical subject names and back

package subjects

import "sort"

// table is the versioned code -> name contract. Other parts of the school
// system key scores by these exact codes.
var table = map[string]string{
	"001": "ENGLISH LANGUAGE",
	"020": "SOCIAL STUDIES",
	"022": "RELIGIOUS AND MORAL EDUCATION",
	"030": "MATHEMATICS",
	"034": "SCIENCE",
	"040": "CAREER TECHNOLOGY",
	"041": "CREATIVE ART AND DESIGN",
	"050": "FANTE",
	"051": "COMPUTING",
}

// byName is the reverse of table, built once at init.
var byName = func() map[string]string {
	m := make(map[string]string, len(table))
	for code, name := range table {
		m[name] = code
	}
	return m
}()

// Name returns the canonical subject name for a code.
func Name(code string) (string, bool) {
	name, ok := table[code]
	return name, ok
}

// Code returns the code registered for a canonical subject name.
func Code(name string) (string, bool) {
	code, ok := byName[name]
	return code, ok
}

// CodeFor resolves a subject name to its code, falling back to the name
// itself when the table has no entry for it. Scores recorded under
// subject codes newer than this table are still found that way.
func CodeFor(name string) string {
	if code, ok := byName[name]; ok {
		return code
	}
	return name
}

// Codes returns all known codes in ascending order.
func Codes() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
