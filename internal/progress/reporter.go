package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerDelay = 100 * time.Millisecond

// Reporter prints one line per finished step. On a TTY a spinner shows the
// running step; elsewhere only the result lines are written.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
	current string
	started time.Time
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, caps TerminalCapabilities) *Reporter {
	return &Reporter{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start marks name as the running step, finishing any step still running.
func (r *Reporter) Start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != "" {
		r.finishLocked(r.symbols.Checkmark, color.FgGreen, "")
	}
	r.current = name
	r.started = time.Now()

	if !r.caps.IsTTY {
		return
	}
	r.spin = spinner.New(spinner.CharSets[r.symbols.SpinnerSet], spinnerDelay, spinner.WithWriter(r.out))
	r.spin.Suffix = " " + name
	r.spin.Start()
}

// Done marks the running step as successful.
func (r *Reporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(r.symbols.Checkmark, color.FgGreen, "")
}

// Warn marks the running step as finished with a note.
func (r *Reporter) Warn(note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(r.symbols.Checkmark, color.FgYellow, note)
}

// Fail marks the running step as failed.
func (r *Reporter) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked(r.symbols.Failure, color.FgRed, "")
}

// Skip reports a step that was not run.
func (r *Reporter) Skip(name, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != "" {
		r.finishLocked(r.symbols.Checkmark, color.FgGreen, "")
	}
	fmt.Fprintf(r.out, "%s %s (skipped: %s)\n", r.paint("-", color.FgHiBlack), name, reason)
}

func (r *Reporter) finishLocked(symbol string, attr color.Attribute, note string) {
	if r.current == "" {
		return
	}
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}

	line := fmt.Sprintf("%s %s", r.paint(symbol, attr), r.current)
	if note != "" {
		line += " (" + note + ")"
	}
	if r.caps.IsTTY {
		line += r.paint(fmt.Sprintf(" [%s]", time.Since(r.started).Round(time.Millisecond)), color.FgHiBlack)
	}
	fmt.Fprintln(r.out, line)
	r.current = ""
}

func (r *Reporter) paint(s string, attr color.Attribute) string {
	if !r.caps.SupportsColor {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
