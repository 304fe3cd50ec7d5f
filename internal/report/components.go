package report

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// ComponentStrategy renders the independent workstreams of a schedule:
// groups of tasks with no dependency path between groups. Each group is
// listed with its own finish date and critical tasks.
type ComponentStrategy struct{}

// Render produces a workstream-by-workstream report.
func (ComponentStrategy) Render(s *schedule.Schedule) string {
	if s.Len() == 0 {
		return emptySchedule
	}
	comps, err := s.Graph().Components()
	if err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}

	var b strings.Builder
	header(&b, "Workstreams", s)
	fmt.Fprintf(&b, "Total workstreams: %d\n\n", len(comps))
	for _, c := range comps {
		var finish civil.Date
		critical := 0
		for k, id := range c.TaskIDs {
			r, _ := s.Result(id)
			if k == 0 || r.EarlyFinish.After(finish) {
				finish = r.EarlyFinish
			}
			if r.Critical {
				critical++
			}
		}
		fmt.Fprintf(&b, "## Workstream %d (%d tasks, finishes %s, %d critical)\n",
			c.ID+1, len(c.TaskIDs), finish, critical)
		for _, id := range c.TaskIDs {
			r, _ := s.Result(id)
			marker := ""
			if r.Critical {
				marker = " *"
			}
			fmt.Fprintf(&b, "  - %s %s..%s float %d%s\n",
				label(r), r.EarlyStart, r.EarlyFinish, r.TotalFloat, marker)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
