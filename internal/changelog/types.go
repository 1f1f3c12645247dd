package changelog

// Defaults for fields debbump never varies per entry.
const (
	DefaultDistribution = "UNRELEASED"
	DefaultUrgency      = "medium"
)

// Identity is the person a changelog trailer credits.
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// IsZero reports whether no identity is set.
func (i Identity) IsZero() bool {
	return i.Name == "" && i.Email == ""
}

// Entry is one version block of a Debian changelog.
type Entry struct {
	Source       string `json:"source" yaml:"source"`
	Version      string `json:"version" yaml:"version"`
	Distribution string `json:"distribution" yaml:"distribution"`
	Urgency      string `json:"urgency" yaml:"urgency"`
	// Summary is the text of the top-level "*" bullet.
	Summary string `json:"summary" yaml:"summary"`
	// Changes are the nested "-" bullets, in the order they are written.
	Changes    []string `json:"changes" yaml:"changes"`
	Maintainer Identity `json:"maintainer" yaml:"maintainer"`
	// Date is RFC-2822 formatted.
	Date string `json:"date" yaml:"date"`
}

// Header is the parsed first line of a changelog entry.
type Header struct {
	Source        string
	Version       string
	Distributions []string
	// Metadata holds the key=value pairs after the semicolon, keys lowercased.
	Metadata map[string]string
}

// Urgency returns the urgency metadata value, if present.
func (h Header) Urgency() string {
	return h.Metadata["urgency"]
}
