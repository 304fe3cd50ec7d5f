// Package ui provides stderr-based user-facing output for critpath.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/critpath/internal/ansi"
	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/impact"
	"github.com/papapumpkin/critpath/internal/schedule"
	"github.com/papapumpkin/critpath/internal/store"
)

// Printer writes user-facing output to stderr.
type Printer struct{}

// New returns a Printer.
func New() *Printer {
	return &Printer{}
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// ValidateResult reports whether a project passed validation. A cycle is
// printed as the chain of task IDs that form it.
func (p *Printer) ValidateResult(name string, tasks, deps int, err error) {
	if err == nil {
		fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ project %q"+ansi.Reset+" — %d task(s), %d dependency link(s), no errors\n",
			name, tasks, deps)
		return
	}
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ project %q"+ansi.Reset+"\n", name)
	var cyc *dag.CycleError
	if errors.As(err, &cyc) {
		p.Cycle(cyc)
		return
	}
	fmt.Fprintf(os.Stderr, "  "+ansi.Red+"• "+ansi.Reset+"%s\n", err.Error())
}

// Cycle prints a dependency cycle.
func (p *Printer) Cycle(cyc *dag.CycleError) {
	fmt.Fprintf(os.Stderr, "  "+ansi.Red+"↻ circular dependency:"+ansi.Reset+" %s\n", strings.Join(cyc.Cycle, " → "))
}

// ScheduleSummary prints the headline numbers of a schedule.
func (p *Printer) ScheduleSummary(name string, s *schedule.Schedule) {
	critical := s.CriticalTasks()
	fmt.Fprintf(os.Stderr, ansi.Bold+ansi.Cyan+"◆ %s"+ansi.Reset+" %s → %s "+ansi.Dim+"(%d working days, %d task(s), %d critical)"+ansi.Reset+"\n",
		name, s.ProjectStart(), s.ProjectFinish(), s.DurationDays(), s.Len(), len(critical))
}

// Impact prints the downstream effect of a slip.
func (p *Printer) Impact(im *impact.Impact) {
	fmt.Fprintf(os.Stderr, "\n"+ansi.Bold+"delay impact: %s +%d working day(s)"+ansi.Reset+"\n", im.SourceTaskID, im.DelayDays)
	if len(im.Affected) == 0 {
		fmt.Fprintln(os.Stderr, ansi.Green+"  absorbed by float"+ansi.Reset+" — no downstream task moves")
	}
	for _, id := range im.Affected {
		fmt.Fprintf(os.Stderr, "  "+ansi.Yellow+"~ %-20s"+ansi.Reset+" +%d\n", id, im.TaskDelays[id])
	}
	if im.ThreatensFinish() {
		fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"✗ project finish slips %d working day(s)"+ansi.Reset+" (%s → %s)\n",
			im.ProjectDelayDays, im.OriginalFinish, im.ProjectedFinish)
		return
	}
	fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ project finish holds"+ansi.Reset+" (%s)\n", im.OriginalFinish)
}

// Reloaded announces a watch-mode re-run.
func (p *Printer) Reloaded(path string) {
	fmt.Fprintf(os.Stderr, "\n"+ansi.Magenta+ansi.Bold+"── %s changed, rescheduling ──"+ansi.Reset+"\n", path)
}

// Imported confirms a project was stored.
func (p *Printer) Imported(id, name string, tasks int) {
	fmt.Fprintf(os.Stderr, ansi.Green+ansi.Bold+"✓ imported %q"+ansi.Reset+" as %s "+ansi.Dim+"(%d task(s))"+ansi.Reset+"\n", name, id, tasks)
}

// ProjectList prints stored projects.
func (p *Printer) ProjectList(list []store.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, ansi.Dim+"  (no stored projects)"+ansi.Reset)
		return
	}
	for _, s := range list {
		fmt.Fprintf(os.Stderr, "  "+ansi.Cyan+"%-20s"+ansi.Reset+" %-30s %3d task(s) %3d link(s) "+ansi.Dim+"%s"+ansi.Reset+"\n",
			s.ID, s.Name, s.Tasks, s.Dependencies, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}
