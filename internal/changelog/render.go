package changelog

import (
	"fmt"
	"io"
	"strings"
)

// Render writes e in debian/changelog syntax:
//
//	<source> (<version>) <distribution>; urgency=<urgency>
//
//	  * <summary>
//	    - <change>
//
//	 -- <name> <email>  <date>
//
// The output ends with the trailer's newline; callers separate entries.
func Render(e *Entry, w io.Writer) error {
	if err := Validate(e); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(formatHeader(e))
	b.WriteString("\n\n")

	b.WriteString("  * ")
	b.WriteString(e.Summary)
	b.WriteString("\n")
	for _, change := range e.Changes {
		b.WriteString("    - ")
		b.WriteString(change)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatTrailer(e))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderString is a convenience function that renders to a string.
func RenderString(e *Entry) (string, error) {
	var b strings.Builder
	if err := Render(e, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatHeader(e *Entry) string {
	dist := e.Distribution
	if dist == "" {
		dist = DefaultDistribution
	}
	urgency := e.Urgency
	if urgency == "" {
		urgency = DefaultUrgency
	}
	return fmt.Sprintf("%s (%s) %s; urgency=%s", e.Source, e.Version, dist, urgency)
}

// formatTrailer uses two spaces between the address and the date, as
// required by the Debian policy manual.
func formatTrailer(e *Entry) string {
	return fmt.Sprintf(" -- %s <%s>  %s", e.Maintainer.Name, e.Maintainer.Email, e.Date)
}
