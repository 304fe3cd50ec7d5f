package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/schedule"
)

// TableStrategy renders every task in topological order with its four
// dates, floats and predecessors. The output doubles as an execution plan.
type TableStrategy struct{}

// Render produces the schedule table.
func (TableStrategy) Render(s *schedule.Schedule) string {
	if s.Len() == 0 {
		return emptySchedule
	}

	preds := make(map[string][]string)
	for _, l := range s.Links() {
		ref := l.From
		if l.Type != dag.FinishToStart || l.Lag != 0 {
			ref = fmt.Sprintf("%s %s%+d", l.From, l.Type, l.Lag)
		}
		preds[l.To] = append(preds[l.To], ref)
	}

	var b strings.Builder
	header(&b, "Schedule", s)

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTask\tDays\tES\tEF\tLS\tLF\tTF\tFF\t\tAfter")
	for i, r := range s.Results() {
		crit := ""
		if r.Critical {
			crit = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			i+1, label(r), r.Duration,
			r.EarlyStart, r.EarlyFinish, r.LateStart, r.LateFinish,
			r.TotalFloat, r.FreeFloat, crit, strings.Join(preds[r.TaskID], ", "))
	}
	w.Flush()

	b.WriteString("\n* critical\n")
	return b.String()
}

func label(r schedule.Result) string {
	if r.Name == "" || r.Name == r.TaskID {
		return r.TaskID
	}
	return r.TaskID + " (" + r.Name + ")"
}
