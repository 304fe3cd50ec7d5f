// Package report renders schedules for people and tools. Each Strategy
// produces a distinct view of the same schedule so callers pick the format
// that suits them.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// ErrUnknownFormat is returned by ForFormat for unrecognized names.
var ErrUnknownFormat = errors.New("unknown report format")

// Strategy renders a schedule as text.
type Strategy interface {
	Render(s *schedule.Schedule) string
}

var strategies = map[string]Strategy{
	"table":      TableStrategy{},
	"critical":   CriticalPathStrategy{},
	"gantt":      GanttStrategy{},
	"components": ComponentStrategy{},
	"json":       JSONStrategy{Indent: true},
}

// Formats lists the names accepted by ForFormat.
func Formats() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the strategy registered under name.
func ForFormat(name string) (Strategy, error) {
	st, ok := strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return st, nil
}

const emptySchedule = "No tasks in schedule.\n"

func header(b *strings.Builder, title string, s *schedule.Schedule) {
	fmt.Fprintf(b, "# %s\n\n", title)
	fmt.Fprintf(b, "Start %s, finish %s (%d working days)\n\n",
		s.ProjectStart(), s.ProjectFinish(), s.DurationDays())
}
