// Package changelog models Debian changelog entries for debbump.
//
// This package implements:
//   - Entry rendering in debian/changelog syntax
//   - Parsing of entry header lines (source, version, distributions, urgency)
//   - Atomic prepending of a new entry to an existing changelog file
package changelog
