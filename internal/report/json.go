package report

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/schedule"
)

// Document is the JSON shape of a schedule.
type Document struct {
	ProjectStart  civil.Date   `json:"project_start"`
	ProjectFinish civil.Date   `json:"project_finish"`
	DurationDays  int          `json:"duration_days"`
	Tasks         []TaskRecord `json:"tasks"`
	Links         []LinkRecord `json:"links"`
	CriticalPaths [][]string   `json:"critical_paths"`
}

// TaskRecord is one task's schedule.
type TaskRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Duration    int        `json:"duration"`
	EarlyStart  civil.Date `json:"early_start"`
	EarlyFinish civil.Date `json:"early_finish"`
	LateStart   civil.Date `json:"late_start"`
	LateFinish  civil.Date `json:"late_finish"`
	TotalFloat  int        `json:"total_float"`
	FreeFloat   int        `json:"free_float"`
	Critical    bool       `json:"critical"`
}

// LinkRecord is one dependency with its slack.
type LinkRecord struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Type      string `json:"type"`
	Lag       int    `json:"lag"`
	FreeFloat int    `json:"free_float"`
	Binding   bool   `json:"binding"`
}

// NewDocument converts a schedule to its JSON shape. Tasks appear in
// topological order.
func NewDocument(s *schedule.Schedule) Document {
	doc := Document{
		ProjectStart:  s.ProjectStart(),
		ProjectFinish: s.ProjectFinish(),
		DurationDays:  s.DurationDays(),
		Tasks:         make([]TaskRecord, 0, s.Len()),
		Links:         []LinkRecord{},
		CriticalPaths: s.CriticalPaths(0),
	}
	if doc.CriticalPaths == nil {
		doc.CriticalPaths = [][]string{}
	}
	for _, r := range s.Results() {
		doc.Tasks = append(doc.Tasks, TaskRecord{
			ID:          r.TaskID,
			Name:        r.Name,
			Duration:    r.Duration,
			EarlyStart:  r.EarlyStart,
			EarlyFinish: r.EarlyFinish,
			LateStart:   r.LateStart,
			LateFinish:  r.LateFinish,
			TotalFloat:  r.TotalFloat,
			FreeFloat:   r.FreeFloat,
			Critical:    r.Critical,
		})
	}
	for _, l := range s.Links() {
		doc.Links = append(doc.Links, LinkRecord{
			From:      l.From,
			To:        l.To,
			Type:      l.Type.String(),
			Lag:       l.Lag,
			FreeFloat: l.FreeFloat,
			Binding:   l.Binding,
		})
	}
	return doc
}

// JSONStrategy renders a Document.
type JSONStrategy struct {
	Indent bool
}

// Render produces JSON followed by a newline.
func (st JSONStrategy) Render(s *schedule.Schedule) string {
	var (
		data []byte
		err  error
	)
	doc := NewDocument(s)
	if st.Indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`+"\n", err.Error())
	}
	return string(data) + "\n"
}
