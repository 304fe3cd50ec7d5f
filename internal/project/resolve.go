package project

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/calendar"
	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/schedule"
)

// Defaults fill in what a project file leaves unsaid.
type Defaults struct {
	ExcludeWeekends bool
	MaxHorizonDays  int
}

// Project is a resolved project: typed dates, derived durations and parsed
// dependency types, ready to be built into a graph.
type Project struct {
	Name         string
	Settings     calendar.Settings
	Tasks        []dag.Task
	Dependencies []dag.Dependency
}

// Resolve converts raw file records into engine inputs. A task without an
// explicit duration gets the number of working days in [start, end] under
// the project's own calendar.
func (f *File) Resolve(d Defaults) (*Project, error) {
	settings, err := f.settings(d)
	if err != nil {
		return nil, err
	}
	cal := calendar.New(settings)

	p := &Project{
		Name:         f.Name,
		Settings:     settings,
		Tasks:        make([]dag.Task, 0, len(f.Tasks)),
		Dependencies: make([]dag.Dependency, 0, len(f.Dependencies)),
	}
	for _, ts := range f.Tasks {
		t, err := resolveTask(ts, cal)
		if err != nil {
			return nil, err
		}
		p.Tasks = append(p.Tasks, t)
	}
	for _, ds := range f.Dependencies {
		typ, err := dag.ParseDependencyType(ds.Type)
		if err != nil {
			return nil, fmt.Errorf("dependency %s → %s: %w", ds.From, ds.To, err)
		}
		p.Dependencies = append(p.Dependencies, dag.Dependency{
			From: ds.From,
			To:   ds.To,
			Type: typ,
			Lag:  ds.Lag,
		})
	}
	return p, nil
}

func (f *File) settings(d Defaults) (calendar.Settings, error) {
	s := calendar.Settings{
		ExcludeWeekends: d.ExcludeWeekends,
		ExcludeHolidays: f.Calendar.ExcludeHolidays,
		MaxHorizonDays:  d.MaxHorizonDays,
	}
	if f.Calendar.ExcludeWeekends != nil {
		s.ExcludeWeekends = *f.Calendar.ExcludeWeekends
	}
	for _, h := range f.Calendar.Holidays {
		day, err := parseDate(h)
		if err != nil {
			return calendar.Settings{}, fmt.Errorf("calendar holiday: %w", err)
		}
		s.CustomHolidays = append(s.CustomHolidays, day)
	}
	return s, nil
}

func resolveTask(ts TaskSpec, cal *calendar.Calendar) (dag.Task, error) {
	if ts.Start == "" {
		return dag.Task{}, fmt.Errorf("task %q: %w: start", ts.ID, ErrMissingField)
	}
	start, err := parseDate(ts.Start)
	if err != nil {
		return dag.Task{}, fmt.Errorf("task %q start: %w", ts.ID, err)
	}
	t := dag.Task{ID: ts.ID, Name: ts.Name, Start: start, Duration: ts.Duration}

	if ts.End != "" {
		if t.End, err = parseDate(ts.End); err != nil {
			return dag.Task{}, fmt.Errorf("task %q end: %w", ts.ID, err)
		}
	}
	if t.Duration != 0 {
		return t, nil
	}
	if ts.End == "" {
		return dag.Task{}, fmt.Errorf("task %q: %w: end or duration", ts.ID, ErrMissingField)
	}
	if t.Duration, err = cal.WorkingDaysIn(t.Start, t.End); err != nil {
		return dag.Task{}, fmt.Errorf("task %q duration: %w", ts.ID, err)
	}
	return t, nil
}

func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Calendar returns a calendar for the project's settings.
func (p *Project) Calendar() *calendar.Calendar {
	return calendar.New(p.Settings)
}

// Graph builds the project's dependency graph.
func (p *Project) Graph() (*dag.Graph, error) {
	return dag.Build(p.Tasks, p.Dependencies)
}

// Schedule builds the graph and runs the scheduler over it.
func (p *Project) Schedule() (*schedule.Schedule, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	return schedule.New(p.Calendar()).Run(g)
}

// File converts p back to its on-disk shape. Durations are always written
// explicitly.
func (p *Project) File() *File {
	weekends := p.Settings.ExcludeWeekends
	f := &File{
		Name: p.Name,
		Calendar: CalendarSpec{
			ExcludeWeekends: &weekends,
			ExcludeHolidays: p.Settings.ExcludeHolidays,
		},
	}
	for _, h := range p.Settings.CustomHolidays {
		f.Calendar.Holidays = append(f.Calendar.Holidays, h.String())
	}
	for _, t := range p.Tasks {
		ts := TaskSpec{ID: t.ID, Name: t.Name, Start: t.Start.String(), Duration: t.Duration}
		if t.End != (civil.Date{}) {
			ts.End = t.End.String()
		}
		f.Tasks = append(f.Tasks, ts)
	}
	for _, d := range p.Dependencies {
		f.Dependencies = append(f.Dependencies, DependencySpec{
			From: d.From,
			To:   d.To,
			Type: d.Type.String(),
			Lag:  d.Lag,
		})
	}
	return f
}
