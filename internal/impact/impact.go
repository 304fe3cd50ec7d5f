// Package impact answers "if this task slips, what moves downstream?"
// against an existing schedule, without re-running the scheduler.
package impact

import (
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/schedule"
)

// ErrNegativeDelay is returned for a delay below zero.
var ErrNegativeDelay = errors.New("negative delay")

// ErrNilSchedule is returned when no schedule is supplied.
var ErrNilSchedule = errors.New("nil schedule")

// Impact describes the downstream effect of one task slipping.
type Impact struct {
	SourceTaskID string
	DelayDays    int

	// Affected lists the downstream tasks that move, sorted by ID. The
	// source task itself is not included.
	Affected []string

	// TaskDelays maps every moved task, including the source, to its slip
	// in working days.
	TaskDelays map[string]int

	// ProjectDelayDays is how far the project finish slips.
	ProjectDelayDays int

	OriginalFinish  civil.Date
	ProjectedFinish civil.Date
}

// ThreatensFinish reports whether the slip moves the project finish date.
func (im *Impact) ThreatensFinish() bool {
	return im.ProjectDelayDays > 0
}

// Analyze propagates a slip of days working days on taskID through s.
//
// Reachable tasks are discovered with a breadth-first search over forward
// edges (each task visited once), then delays are pushed along those edges
// in topological order so a task reached by several paths receives the
// largest incoming delay. Each edge absorbs up to its free float; a task
// whose delay is fully absorbed is not affected and pushes nothing further.
// The schedule is not modified.
func Analyze(s *schedule.Schedule, taskID string, days int) (*Impact, error) {
	if s == nil {
		return nil, ErrNilSchedule
	}
	if days < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDelay, days)
	}
	g := s.Graph()
	src, ok := g.Index(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dag.ErrUnknownTask, taskID)
	}

	im := &Impact{
		SourceTaskID:    taskID,
		DelayDays:       days,
		TaskDelays:      make(map[string]int),
		OriginalFinish:  s.ProjectFinish(),
		ProjectedFinish: s.ProjectFinish(),
	}
	if days == 0 {
		return im, nil
	}

	inScope := make(map[int]bool)
	inScope[src] = true
	for _, i := range g.Reachable(src) {
		inScope[i] = true
	}

	delays := make(map[int]int, len(inScope))
	delays[src] = days
	for _, i := range s.OrderIndices() {
		d := delays[i]
		if !inScope[i] || d <= 0 {
			continue
		}
		for _, e := range g.Outgoing(i) {
			slack, ok := s.EdgeFreeFloat(e)
			if !ok {
				return nil, fmt.Errorf("impact: schedule has no float for %s → %s", g.TaskAt(e.From).ID, g.TaskAt(e.To).ID)
			}
			if pushed := d - slack; pushed > delays[e.To] {
				delays[e.To] = pushed
			}
		}
	}

	for i, d := range delays {
		if d <= 0 {
			continue
		}
		id := g.TaskAt(i).ID
		im.TaskDelays[id] = d
		if i != src {
			im.Affected = append(im.Affected, id)
		}
		if g.IsSink(i) {
			if over := d - s.ResultAt(i).TotalFloat; over > im.ProjectDelayDays {
				im.ProjectDelayDays = over
			}
		}
	}
	sort.Strings(im.Affected)

	if im.ProjectDelayDays > 0 {
		finish, err := s.Calendar().AddWorkingDays(im.OriginalFinish, im.ProjectDelayDays)
		if err != nil {
			return nil, fmt.Errorf("impact: projected finish: %w", err)
		}
		im.ProjectedFinish = finish
	}
	return im, nil
}
