package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// DefaultGanttDays is the widest chart GanttStrategy draws by default.
const DefaultGanttDays = 120

// Gantt cell glyphs.
const (
	glyphCritical = '█'
	glyphWork     = '▓'
	glyphFloat    = '░'
	glyphOff      = '·'
	glyphEmpty    = ' '
)

// GanttStrategy draws one bar per task, one column per calendar day from
// the project start. Non-working days inside a bar are dotted and float is
// shaded up to the late finish.
type GanttStrategy struct {
	// MaxDays caps the chart width; zero means DefaultGanttDays.
	MaxDays int
}

// Render produces the chart.
func (st GanttStrategy) Render(s *schedule.Schedule) string {
	if s.Len() == 0 {
		return emptySchedule
	}
	maxDays := st.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultGanttDays
	}

	results := s.Results()
	start := s.ProjectStart()
	last := s.ProjectFinish()
	width := 0
	for _, r := range results {
		if r.LateFinish.After(last) {
			last = r.LateFinish
		}
		if n := utf8.RuneCountInString(r.TaskID); n > width {
			width = n
		}
	}
	days := last.DaysSince(start) + 1
	clipped := days > maxDays
	if clipped {
		days = maxDays
	}

	cal := s.Calendar()
	var b strings.Builder
	header(&b, "Gantt", s)

	fmt.Fprintf(&b, "%-*s  %s\n", width, "", ruler(start, days))
	for _, r := range results {
		row := make([]rune, days)
		for c := range row {
			d := start.AddDays(c)
			switch {
			case within(d, r.EarlyStart, r.EarlyFinish):
				switch {
				case !cal.IsWorkingDay(d):
					row[c] = glyphOff
				case r.Critical:
					row[c] = glyphCritical
				default:
					row[c] = glyphWork
				}
			case d.After(r.EarlyFinish) && !d.After(r.LateFinish) && cal.IsWorkingDay(d):
				row[c] = glyphFloat
			default:
				row[c] = glyphEmpty
			}
		}
		fmt.Fprintf(&b, "%-*s  %s\n", width, r.TaskID, strings.TrimRight(string(row), " "))
	}

	fmt.Fprintf(&b, "\n%c critical  %c work  %c float  %c non-working\n",
		glyphCritical, glyphWork, glyphFloat, glyphOff)
	if clipped {
		fmt.Fprintf(&b, "(chart clipped to %d days)\n", maxDays)
	}
	return b.String()
}

func within(d, from, to civil.Date) bool {
	return !d.Before(from) && !d.After(to)
}

// ruler marks the first day of each week (Mondays) and the project start
// with the day of month.
func ruler(start civil.Date, days int) string {
	cells := make([]byte, days)
	for i := range cells {
		cells[i] = ' '
	}
	for c := 0; c < days; c++ {
		d := start.AddDays(c)
		if c != 0 && d.In(time.UTC).Weekday() != time.Monday {
			continue
		}
		mark := fmt.Sprintf("%d", d.Day)
		if c+len(mark) > days {
			break
		}
		copy(cells[c:], mark)
		c += len(mark) - 1
	}
	return strings.TrimRight(string(cells), " ")
}
