package reconcile

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Report accumulates per-record lines and named counters for one pass run.
// Passes never print directly; the runner renders the report when the pass
// finishes.
type Report struct {
	Pass   string
	counts map[string]int
	lines  []string
}

func NewReport(pass string) *Report {
	return &Report{
		Pass:   pass,
		counts: map[string]int{},
	}
}

// Add increments a named counter.
func (r *Report) Add(counter string, n int) {
	if n == 0 {
		return
	}
	r.counts[counter] += n
}

// Count returns the current value of a named counter.
func (r *Report) Count(counter string) int {
	return r.counts[counter]
}

// Linef appends a formatted per-record line.
func (r *Report) Linef(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated per-record lines.
func (r *Report) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Mutations sums the counters that represent record writes or deletes.
func (r *Report) Mutations() int {
	total := 0
	for name, n := range r.counts {
		if strings.HasSuffix(name, "_updated") ||
			strings.HasSuffix(name, "_created") ||
			strings.HasSuffix(name, "_deleted") ||
			strings.HasSuffix(name, "_marked") ||
			strings.HasSuffix(name, "_cleared") {
			total += n
		}
	}
	return total
}

// Render writes the per-record lines followed by a counter summary.
func (r *Report) Render(w io.Writer) {
	for _, line := range r.lines {
		fmt.Fprintln(w, line)
	}
	names := make([]string, 0, len(r.counts))
	for name := range r.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "== %s ==\n", r.Pass)
	if len(names) == 0 {
		fmt.Fprintln(w, "nothing to do")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "%s: %d\n", name, r.counts[name])
	}
}

// Summary renders the counter block as a string for logging.
func (r *Report) Summary() string {
	var sb strings.Builder
	r.Render(&sb)
	return sb.String()
}
