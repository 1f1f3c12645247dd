package changelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ValidationError represents a changelog validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// headerPattern follows the entry header grammar of deb-changelog(5).
var headerPattern = regexp.MustCompile(`^(\w[-+0-9a-z.]*) \(([^ ()]+)\)((?:\s+[-+0-9a-zA-Z.]+)+);(.*)$`)

// ParseHeader parses an entry header line such as
// "linux (5.4.0-2) unstable; urgency=medium".
func ParseHeader(line string) (Header, error) {
	m := headerPattern.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return Header{}, &ValidationError{
			Field:   "header",
			Message: fmt.Sprintf("malformed changelog header %q", line),
		}
	}

	h := Header{
		Source:        m[1],
		Version:       m[2],
		Distributions: strings.Fields(m[3]),
		Metadata:      make(map[string]string),
	}

	for _, kv := range strings.Split(m[4], ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return Header{}, &ValidationError{
				Field:   "header",
				Message: fmt.Sprintf("malformed metadata %q in changelog header", kv),
			}
		}
		h.Metadata[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	return h, nil
}

// ReadHeader parses the header of the first entry in r. Leading blank lines
// are skipped.
func ReadHeader(r io.Reader) (Header, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		return ParseHeader(line)
	}
	if err := scanner.Err(); err != nil {
		return Header{}, fmt.Errorf("reading changelog: %w", err)
	}
	return Header{}, &ValidationError{Message: "changelog is empty"}
}

// ReadHeaderFile parses the header of the first entry of the changelog at path.
func ReadHeaderFile(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening changelog file: %w", err)
	}
	defer f.Close()

	return ReadHeader(f)
}

// Validate checks that an Entry can be rendered into a parseable changelog.
func Validate(e *Entry) error {
	required := []struct {
		field, value string
	}{
		{"source", e.Source},
		{"version", e.Version},
		{"maintainer.name", e.Maintainer.Name},
		{"maintainer.email", e.Maintainer.Email},
		{"date", e.Date},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "required field is empty"}
		}
	}

	if strings.ContainsAny(e.Version, " ()") {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("version %q must not contain spaces or parentheses", e.Version),
		}
	}

	for i, change := range e.Changes {
		if strings.Contains(change, "\n") {
			return &ValidationError{
				Field:   fmt.Sprintf("changes[%d]", i),
				Message: "entry must be a single line",
			}
		}
	}

	return nil
}
