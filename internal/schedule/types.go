package schedule

import (
	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/dag"
)

// Result holds the computed schedule of a single task. Floats are in
// working days.
type Result struct {
	TaskID   string
	Name     string
	Duration int

	EarlyStart  civil.Date
	EarlyFinish civil.Date
	LateStart   civil.Date
	LateFinish  civil.Date

	TotalFloat int
	FreeFloat  int
	Critical   bool
}

// Link is a dependency annotated with its schedule slack. FreeFloat is how
// many working days the predecessor can slip before this link pushes the
// successor. Binding links have zero slack between two critical tasks.
type Link struct {
	dag.Dependency
	FreeFloat int
	Binding   bool
}
