package report

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// DefaultPathLimit caps how many tied critical paths CriticalPathStrategy
// lists.
const DefaultPathLimit = 10

// CriticalPathStrategy renders the chains of zero-float tasks that fix the
// project finish. Ties are listed separately.
type CriticalPathStrategy struct {
	// Limit caps the number of paths shown; zero means DefaultPathLimit.
	Limit int
}

// Render produces a critical path report.
func (st CriticalPathStrategy) Render(s *schedule.Schedule) string {
	if s.Len() == 0 {
		return emptySchedule
	}
	limit := st.Limit
	if limit <= 0 {
		limit = DefaultPathLimit
	}

	var b strings.Builder
	header(&b, "Critical Path", s)

	critical := s.CriticalTasks()
	fmt.Fprintf(&b, "Critical tasks: %d of %d (%.0f%%)\n\n",
		len(critical), s.Len(), 100*float64(len(critical))/float64(s.Len()))

	paths := s.CriticalPaths(limit + 1)
	truncated := len(paths) > limit
	if truncated {
		paths = paths[:limit]
	}
	for n, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(&b, "## Path %d\n", n+1)
		}
		for step, id := range path {
			r, _ := s.Result(id)
			arrow := ""
			if step < len(path)-1 {
				arrow = " →"
			}
			fmt.Fprintf(&b, "%d. %s  %s..%s (%d days)%s\n",
				step+1, label(r), r.EarlyStart, r.EarlyFinish, r.Duration, arrow)
		}
		b.WriteByte('\n')
	}
	if truncated {
		fmt.Fprintf(&b, "(more than %d tied paths; showing the first %d)\n", limit, limit)
	}
	return b.String()
}
