package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/critpath/internal/impact"
	"github.com/papapumpkin/critpath/internal/schedule"
)

// AppModel is the root BubbleTea model: a task table over a schedule, a
// detail panel for the selected task, and a what-if slip applied to it.
type AppModel struct {
	Name     string
	Schedule *schedule.Schedule
	Keys     KeyMap
	Detail   DetailPanel
	Footer   Footer
	Width    int
	Height   int

	// CriticalOnly hides tasks with positive total float.
	CriticalOnly bool
	// Slip is the what-if delay, in working days, on the selected task.
	Slip int
	// Impact is the analysis of Slip, nil when Slip is zero.
	Impact *impact.Impact
	// Err is the last reload error; the previous schedule stays on screen.
	Err     error
	Reloads int

	rows   []int // arena indices in topological order, after filtering
	cursor int
}

// NewAppModel creates a root model over s.
func NewAppModel(name string, s *schedule.Schedule) AppModel {
	km := DefaultKeyMap()
	m := AppModel{
		Name:     name,
		Schedule: s,
		Keys:     km,
		Detail:   NewDetailPanel(80, detailHeight),
		Footer:   Footer{Bindings: FooterBindings(km)},
	}
	m.rebuildRows("")
	m.refreshDetail()
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return nil
}

// Update handles all messages.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Footer.Width = msg.Width
		m.Detail.SetSize(msg.Width-4, detailHeight)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgScheduleLoaded:
		m.Reloads++
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		selected := m.SelectedID()
		m.Err = nil
		m.Schedule = msg.Schedule
		m.rebuildRows(selected)
		m.analyze()
		m.refreshDetail()
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.Slip = 0
		}
	case key.Matches(msg, m.Keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.Slip = 0
		}
	case key.Matches(msg, m.Keys.Slip):
		m.Slip++
	case key.Matches(msg, m.Keys.Recover):
		if m.Slip > 0 {
			m.Slip--
		}
	case key.Matches(msg, m.Keys.Reset):
		m.Slip = 0
	case key.Matches(msg, m.Keys.Critical):
		selected := m.SelectedID()
		m.CriticalOnly = !m.CriticalOnly
		m.rebuildRows(selected)
		m.Slip = 0
	case key.Matches(msg, m.Keys.ScrollUp), key.Matches(msg, m.Keys.ScrollDn):
		m.Detail.Update(msg)
		return m, nil
	default:
		return m, nil
	}
	m.analyze()
	m.refreshDetail()
	return m, nil
}

// SelectedID returns the ID of the task under the cursor, or "" when the
// table is empty.
func (m AppModel) SelectedID() string {
	if m.Schedule == nil || len(m.rows) == 0 {
		return ""
	}
	return m.Schedule.ResultAt(m.rows[m.cursor]).TaskID
}

// rebuildRows recomputes the visible rows and puts the cursor back on
// keepID when it is still visible.
func (m *AppModel) rebuildRows(keepID string) {
	m.rows = nil
	m.cursor = 0
	if m.Schedule == nil {
		return
	}
	for _, i := range m.Schedule.OrderIndices() {
		r := m.Schedule.ResultAt(i)
		if m.CriticalOnly && !r.Critical {
			continue
		}
		if r.TaskID == keepID {
			m.cursor = len(m.rows)
		}
		m.rows = append(m.rows, i)
	}
}

// analyze recomputes Impact for the current slip.
func (m *AppModel) analyze() {
	m.Impact = nil
	id := m.SelectedID()
	if m.Slip <= 0 || id == "" {
		return
	}
	im, err := impact.Analyze(m.Schedule, id, m.Slip)
	if err != nil {
		m.Err = err
		return
	}
	m.Impact = im
}

func (m *AppModel) refreshDetail() {
	id := m.SelectedID()
	if id == "" {
		m.Detail.SetEmpty("no tasks")
		return
	}
	r, _ := m.Schedule.Result(id)

	var b strings.Builder
	fmt.Fprintf(&b, "early  %s → %s\n", r.EarlyStart, r.EarlyFinish)
	fmt.Fprintf(&b, "late   %s → %s\n", r.LateStart, r.LateFinish)
	fmt.Fprintf(&b, "float  total %d, free %d\n", r.TotalFloat, r.FreeFloat)
	if m.Impact != nil {
		b.WriteString("\n")
		b.WriteString(impactSummary(m.Impact))
	}

	title := id
	if r.Name != "" {
		title += "  " + r.Name
	}
	if r.Critical {
		title += "  " + iconCritical + " critical"
	}
	m.Detail.SetContent(title, b.String())
}

func impactSummary(im *impact.Impact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "slip +%d: ", im.DelayDays)
	if len(im.Affected) == 0 {
		b.WriteString("absorbed by float\n")
	} else {
		fmt.Fprintf(&b, "%d downstream task(s) move\n", len(im.Affected))
	}
	if im.ThreatensFinish() {
		b.WriteString(styleFinishSlips.Render(fmt.Sprintf("finish slips %d day(s) to %s", im.ProjectDelayDays, im.ProjectedFinish)))
	} else {
		b.WriteString(styleFinishHolds.Render("finish holds at " + im.OriginalFinish.String()))
	}
	return b.String()
}

// View renders the full screen.
func (m AppModel) View() string {
	if m.Schedule == nil {
		return styleError.Render("no schedule") + "\n"
	}
	sections := []string{m.statusView(), m.tableView(), m.Detail.View(), m.Footer.View()}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m AppModel) statusView() string {
	s := m.Schedule
	line := styleStatusLabel.Render(m.Name) + " " +
		styleStatusValue.Render(fmt.Sprintf("%s → %s  %d days  %d tasks  %d critical",
			s.ProjectStart(), s.ProjectFinish(), s.DurationDays(), s.Len(), len(s.CriticalTasks())))
	if m.CriticalOnly {
		line += "  " + styleStatusWarn.Render("[critical only]")
	}
	if m.Reloads > 0 {
		line += "  " + styleStatusWarn.Render(fmt.Sprintf("reloaded ×%d", m.Reloads))
	}
	if m.Err != nil {
		line += "  " + styleError.Render(m.Err.Error())
	}
	if m.Width > 0 {
		return styleStatusBar.Width(m.Width).Render(line)
	}
	return styleStatusBar.Render(line)
}

func (m AppModel) tableView() string {
	idWidth := 20
	if m.Width > 0 && m.Width < CompactWidth {
		idWidth = 12
	}

	var b strings.Builder
	b.WriteString(styleRowHeader.Render(fmt.Sprintf("   %-*s %-10s %-10s %4s %4s", idWidth, "TASK", "START", "FINISH", "TF", "FF")))

	height := 0
	if m.Height > 0 {
		height = m.Height - chromeHeight
		if height < 1 {
			height = 1
		}
	}
	from, to := visibleWindow(len(m.rows), m.cursor, height)
	for n := from; n < to; n++ {
		r := m.Schedule.ResultAt(m.rows[n])
		icon, style := iconFloat, styleRowNormal
		if r.Critical {
			icon, style = iconCritical, styleRowCritical
		}
		extra := ""
		if m.Impact != nil {
			if d, ok := m.Impact.TaskDelays[r.TaskID]; ok && r.TaskID != m.Impact.SourceTaskID {
				icon, style = iconSlipped, styleRowSlipped
				extra = fmt.Sprintf(" +%d", d)
			}
		}
		row := fmt.Sprintf("%s %-*s %-10s %-10s %4d %4d%s", icon, idWidth, TruncateWithEllipsis(r.TaskID, idWidth),
			r.EarlyStart, r.EarlyFinish, r.TotalFloat, r.FreeFloat, extra)

		b.WriteString("\n")
		if n == m.cursor {
			b.WriteString(styleSelectionIndicator.Render(selectionIndicator))
			b.WriteString(styleRowSelected.Render(row))
			continue
		}
		b.WriteString(" ")
		b.WriteString(style.Render(row))
	}
	return b.String()
}
