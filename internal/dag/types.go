package dag

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// DependencyType selects which endpoint of the predecessor drives which
// endpoint of the successor.
type DependencyType int

// Dependency types. The zero value is FinishToStart, the most common link.
const (
	FinishToStart  DependencyType = iota // successor starts after predecessor finishes
	StartToStart                         // successor starts after predecessor starts
	FinishToFinish                       // successor finishes after predecessor finishes
	StartToFinish                        // successor finishes after predecessor starts
)

var typeCodes = [...]string{"FS", "SS", "FF", "SF"}

// ParseDependencyType maps a two-letter code (FS, SS, FF, SF) to a
// DependencyType. Matching is case-insensitive; an empty code means FS.
func ParseDependencyType(code string) (DependencyType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return FinishToStart, nil
	}
	for i, c := range typeCodes {
		if c == code {
			return DependencyType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDependencyType, code)
}

// String returns the two-letter code.
func (t DependencyType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DependencyType(%d)", int(t))
	}
	return typeCodes[t]
}

// Valid reports whether t is one of the four defined types.
func (t DependencyType) Valid() bool {
	return t >= FinishToStart && t <= StartToFinish
}

// FromStart reports whether the constraint is measured from the
// predecessor's start (SS, SF) rather than its finish.
func (t DependencyType) FromStart() bool {
	return t == StartToStart || t == StartToFinish
}

// ToFinish reports whether the constraint bounds the successor's finish
// (FF, SF) rather than its start.
func (t DependencyType) ToFinish() bool {
	return t == FinishToFinish || t == StartToFinish
}

// Task is a unit of work with a fixed duration in working days.
type Task struct {
	ID       string
	Name     string
	Start    civil.Date // declared start, used when the task has no predecessors
	End      civil.Date // declared end, informational once Duration is set
	Duration int        // working days, must be positive
}

// Dependency links a predecessor (From) to a successor (To). Lag is in
// working days; negative values are leads.
type Dependency struct {
	From string
	To   string
	Type DependencyType
	Lag  int
}

// Edge is a Dependency resolved to task indices within a Graph.
type Edge struct {
	From int
	To   int
	Type DependencyType
	Lag  int
}
