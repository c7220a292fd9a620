// Package config handles configuration loading for student-portal.
//
// # Overview
//
// Configuration is loaded from a YAML file (or TOML, when the file name ends
// in .toml) with environment variable expansion. Empty fields get defaults,
// then the result is validated.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from STUDENT_PORTAL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/student-portal/config.yaml
//  3. ~/.config/student-portal/config.yaml
//
// # Environment Variable Expansion
//
//	database:
//	  path: "${STUDENT_PORTAL_DATA}/students.db"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  shutdown_timeout: "5s"
//	  idempotency_ttl: "10m"
//
//	database:
//	  path: "~/.local/share/student-portal/students.db"
//	  driver: "sqlite"            # sqlite (pure Go) or sqlite3 (cgo)
//
//	enrollment:
//	  code_prefix: "56X00"
//	  date_layout: "1/2/2006, 3:04:05 PM"
//
//	cass:
//	  entry_page: "/CassScoreEntry.html"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The same keys are used in TOML:
//
//	[database]
//	path = "/var/lib/student-portal/students.db"
package config
