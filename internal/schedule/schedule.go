// Package schedule runs the Critical Path Method over a dependency graph.
//
// A run is a pure pipeline: cycle check, forward pass (earliest dates),
// backward pass (latest dates), then float and critical-path derivation.
// All date arithmetic is delegated to a calendar.Calendar, so weekends and
// holidays are honored everywhere.
package schedule

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/calendar"
	"github.com/papapumpkin/critpath/internal/dag"
)

// ErrNilGraph is returned when Run is called without a graph.
var ErrNilGraph = errors.New("nil graph")

// Scheduler computes schedules against one calendar. It holds no state
// between runs and is safe for concurrent use.
type Scheduler struct {
	cal *calendar.Calendar
}

// New creates a Scheduler. A nil calendar treats every day as a working day.
func New(cal *calendar.Calendar) *Scheduler {
	if cal == nil {
		cal = calendar.New(calendar.Settings{})
	}
	return &Scheduler{cal: cal}
}

// Run schedules every task in g. It fails without producing any result if
// the graph is cyclic (*dag.CycleError) or the calendar cannot satisfy a
// date query (calendar.ErrCalendarExhausted).
func (s *Scheduler) Run(g *dag.Graph) (*Schedule, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if cyc := g.DetectCycle(); cyc != nil {
		return nil, cyc
	}
	order, err := g.TopologicalIndices()
	if err != nil {
		return nil, err
	}

	r := &run{
		cal:     s.cal,
		g:       g,
		order:   order,
		results: make([]Result, g.Len()),
		targets: make(map[dag.Edge]civil.Date),
	}
	if err := r.forward(); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	if err := r.backward(); err != nil {
		return nil, fmt.Errorf("backward pass: %w", err)
	}
	return r.finish(), nil
}

// run carries the working state of one scheduling pass.
type run struct {
	cal     *calendar.Calendar
	g       *dag.Graph
	order   []int
	results []Result
	// targets holds, per edge, the date the predecessor forces on the
	// successor's start (FS, SS) or finish (FF, SF) in the forward pass.
	targets map[dag.Edge]civil.Date
	start   civil.Date
	end     civil.Date
}

// forward computes ES and EF in topological order.
func (r *run) forward() error {
	for _, i := range r.order {
		t := r.g.TaskAt(i)
		res := &r.results[i]
		res.TaskID = t.ID
		res.Name = t.Name
		res.Duration = t.Duration

		incoming := r.g.Incoming(i)
		if len(incoming) == 0 {
			es, err := r.cal.RollForward(t.Start)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
			res.EarlyStart = es
		}
		for k, e := range incoming {
			es, err := r.earlyStartFrom(e, t.Duration)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
			if k == 0 || es.After(res.EarlyStart) {
				res.EarlyStart = es
			}
		}

		ef, err := r.cal.AddWorkingDays(res.EarlyStart, t.Duration-1)
		if err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
		res.EarlyFinish = ef
	}
	return nil
}

// earlyStartFrom returns the earliest start edge e allows for a successor of
// the given duration, and records the edge's forward target.
//
//	FS: ES >= add(pred.EF, 1+lag)
//	SS: ES >= add(pred.ES, lag)
//	FF: EF >= add(pred.EF, lag)
//	SF: EF >= add(pred.ES, lag)
func (r *run) earlyStartFrom(e dag.Edge, duration int) (civil.Date, error) {
	pred := r.results[e.From]
	base := pred.EarlyFinish
	if e.Type.FromStart() {
		base = pred.EarlyStart
	}
	offset := e.Lag
	if e.Type == dag.FinishToStart {
		offset++
	}
	target, err := r.cal.AddWorkingDays(base, offset)
	if err != nil {
		return civil.Date{}, err
	}
	r.targets[e] = target
	if !e.Type.ToFinish() {
		return target, nil
	}
	return r.cal.AddWorkingDays(target, -(duration - 1))
}

// backward computes LF and LS in reverse topological order. Sinks are
// pinned to the project finish, the latest EF among sinks.
func (r *run) backward() error {
	first := true
	for i := range r.results {
		if !r.g.IsSink(i) {
			continue
		}
		if ef := r.results[i].EarlyFinish; first || ef.After(r.end) {
			r.end = ef
			first = false
		}
	}
	for k, i := range r.order {
		if es := r.results[i].EarlyStart; k == 0 || es.Before(r.start) {
			r.start = es
		}
	}

	for k := len(r.order) - 1; k >= 0; k-- {
		i := r.order[k]
		res := &r.results[i]

		outgoing := r.g.Outgoing(i)
		if len(outgoing) == 0 {
			res.LateFinish = r.end
		}
		for n, e := range outgoing {
			lf, err := r.lateFinishFrom(e, res.Duration)
			if err != nil {
				return fmt.Errorf("task %s: %w", res.TaskID, err)
			}
			if n == 0 || lf.Before(res.LateFinish) {
				res.LateFinish = lf
			}
		}

		ls, err := r.cal.AddWorkingDays(res.LateFinish, -(res.Duration - 1))
		if err != nil {
			return fmt.Errorf("task %s: %w", res.TaskID, err)
		}
		res.LateStart = ls
	}
	return nil
}

// lateFinishFrom mirrors earlyStartFrom: the latest finish edge e allows
// for a predecessor of the given duration.
//
//	FS: LF <= add(succ.LS, -(1+lag))
//	SS: LS <= add(succ.LS, -lag)
//	FF: LF <= add(succ.LF, -lag)
//	SF: LS <= add(succ.LF, -lag)
func (r *run) lateFinishFrom(e dag.Edge, duration int) (civil.Date, error) {
	succ := r.results[e.To]
	base := succ.LateStart
	if e.Type.ToFinish() {
		base = succ.LateFinish
	}
	offset := -e.Lag
	if e.Type == dag.FinishToStart {
		offset--
	}
	bound, err := r.cal.AddWorkingDays(base, offset)
	if err != nil {
		return civil.Date{}, err
	}
	if !e.Type.FromStart() {
		return bound, nil
	}
	return r.cal.AddWorkingDays(bound, duration-1)
}

// finish derives floats and criticality and freezes the run into a
// Schedule.
func (r *run) finish() *Schedule {
	links := make(map[dag.Edge]int, len(r.targets))
	for e, target := range r.targets {
		succ := r.results[e.To]
		actual := succ.EarlyStart
		if e.Type.ToFinish() {
			actual = succ.EarlyFinish
		}
		links[e] = r.cal.WorkingDaysBetween(target, actual)
	}

	for i := range r.results {
		res := &r.results[i]
		res.TotalFloat = r.cal.WorkingDaysBetween(res.EarlyStart, res.LateStart)
		res.Critical = res.TotalFloat == 0

		outgoing := r.g.Outgoing(i)
		if len(outgoing) == 0 {
			res.FreeFloat = r.cal.WorkingDaysBetween(res.EarlyFinish, r.end)
			continue
		}
		for n, e := range outgoing {
			if ff := links[e]; n == 0 || ff < res.FreeFloat {
				res.FreeFloat = ff
			}
		}
	}

	return &Schedule{
		graph:     r.g,
		cal:       r.cal,
		order:     r.order,
		results:   r.results,
		edgeFloat: links,
		start:     r.start,
		finish:    r.end,
	}
}
