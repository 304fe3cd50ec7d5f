package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/project"
)

// SaveProject stores p under id, replacing any previous version in a single
// transaction.
func (s *Store) SaveProject(ctx context.Context, id string, p *project.Project) error {
	if id == "" {
		return fmt.Errorf("store: save project: empty id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const upsert = `
		INSERT INTO projects (id, name, exclude_weekends, exclude_holidays, max_horizon_days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			exclude_weekends = excluded.exclude_weekends,
			exclude_holidays = excluded.exclude_holidays,
			max_horizon_days = excluded.max_horizon_days,
			updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, s.rebind(upsert),
		id, p.Name, p.Settings.ExcludeWeekends, p.Settings.ExcludeHolidays,
		p.Settings.MaxHorizonDays, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("store: save project %q: %w", id, err)
	}

	if err := s.deleteChildren(ctx, tx, id); err != nil {
		return err
	}

	for _, t := range p.Tasks {
		end := ""
		if t.End != (civil.Date{}) {
			end = t.End.String()
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind("INSERT INTO tasks (project_id, id, name, start_date, end_date, duration) VALUES (?, ?, ?, ?, ?, ?)"),
			id, t.ID, t.Name, t.Start.String(), end, t.Duration,
		); err != nil {
			return fmt.Errorf("store: save task %q: %w", t.ID, err)
		}
	}
	seenDeps := make(map[dag.Dependency]bool, len(p.Dependencies))
	for _, d := range p.Dependencies {
		// Exact duplicates collapse into one edge, as in dag.Build.
		if seenDeps[d] {
			continue
		}
		seenDeps[d] = true
		if _, err := tx.ExecContext(ctx,
			s.rebind("INSERT INTO task_dependencies (project_id, from_task, to_task, dep_type, lag) VALUES (?, ?, ?, ?, ?)"),
			id, d.From, d.To, d.Type.String(), d.Lag,
		); err != nil {
			return fmt.Errorf("store: save dependency %s → %s: %w", d.From, d.To, err)
		}
	}
	seenHolidays := make(map[civil.Date]bool, len(p.Settings.CustomHolidays))
	for _, h := range p.Settings.CustomHolidays {
		if seenHolidays[h] {
			continue
		}
		seenHolidays[h] = true
		if _, err := tx.ExecContext(ctx,
			s.rebind("INSERT INTO calendar_holidays (project_id, holiday) VALUES (?, ?)"),
			id, h.String(),
		); err != nil {
			return fmt.Errorf("store: save holiday %s: %w", h, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit project %q: %w", id, err)
	}
	s.cache.Remove(id)
	return nil
}

// LoadProject returns the project stored under id. Results are cached until
// the project is saved or deleted; callers get their own copy.
func (s *Store) LoadProject(ctx context.Context, id string) (*project.Project, error) {
	if p, ok := s.cache.Get(id); ok {
		return clone(p), nil
	}

	p := &project.Project{
		Tasks:        make([]dag.Task, 0),
		Dependencies: make([]dag.Dependency, 0),
	}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT name, exclude_weekends, exclude_holidays, max_horizon_days FROM projects WHERE id = ?"), id,
	).Scan(&p.Name, &p.Settings.ExcludeWeekends, &p.Settings.ExcludeHolidays, &p.Settings.MaxHorizonDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load project %q: %w", id, err)
	}

	if err := s.loadTasks(ctx, id, p); err != nil {
		return nil, err
	}
	if err := s.loadDependencies(ctx, id, p); err != nil {
		return nil, err
	}
	if err := s.loadHolidays(ctx, id, p); err != nil {
		return nil, err
	}

	s.cache.Add(id, p)
	return clone(p), nil
}

func (s *Store) loadTasks(ctx context.Context, id string, p *project.Project) error {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT id, name, start_date, end_date, duration FROM tasks WHERE project_id = ? ORDER BY id"), id)
	if err != nil {
		return fmt.Errorf("store: load tasks for %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t          dag.Task
			start, end string
		)
		if err := rows.Scan(&t.ID, &t.Name, &start, &end, &t.Duration); err != nil {
			return fmt.Errorf("store: scan task: %w", err)
		}
		if t.Start, err = civil.ParseDate(start); err != nil {
			return fmt.Errorf("store: task %q start: %w", t.ID, err)
		}
		if end != "" {
			if t.End, err = civil.ParseDate(end); err != nil {
				return fmt.Errorf("store: task %q end: %w", t.ID, err)
			}
		}
		p.Tasks = append(p.Tasks, t)
	}
	return rows.Err()
}

func (s *Store) loadDependencies(ctx context.Context, id string, p *project.Project) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT from_task, to_task, dep_type, lag FROM task_dependencies
		WHERE project_id = ? ORDER BY from_task, to_task, dep_type, lag`), id)
	if err != nil {
		return fmt.Errorf("store: load dependencies for %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			d    dag.Dependency
			code string
		)
		if err := rows.Scan(&d.From, &d.To, &code, &d.Lag); err != nil {
			return fmt.Errorf("store: scan dependency: %w", err)
		}
		if d.Type, err = dag.ParseDependencyType(code); err != nil {
			return fmt.Errorf("store: dependency %s → %s: %w", d.From, d.To, err)
		}
		p.Dependencies = append(p.Dependencies, d)
	}
	return rows.Err()
}

func (s *Store) loadHolidays(ctx context.Context, id string, p *project.Project) error {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT holiday FROM calendar_holidays WHERE project_id = ? ORDER BY holiday"), id)
	if err != nil {
		return fmt.Errorf("store: load holidays for %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("store: scan holiday: %w", err)
		}
		d, err := civil.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("store: holiday %q: %w", raw, err)
		}
		p.Settings.CustomHolidays = append(p.Settings.CustomHolidays, d)
	}
	return rows.Err()
}

// ListProjects returns a summary of every stored project ordered by ID.
func (s *Store) ListProjects(ctx context.Context) ([]Summary, error) {
	const q = `
		SELECT p.id, p.name, p.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
			(SELECT COUNT(*) FROM task_dependencies d WHERE d.project_id = p.id)
		FROM projects p
		ORDER BY p.id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.UpdatedAt, &sum.Tasks, &sum.Dependencies); err != nil {
			return nil, fmt.Errorf("store: scan project summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteProject removes a project and everything stored with it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("store: delete project %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit delete %q: %w", id, err)
	}
	s.cache.Remove(id)
	return nil
}

func (s *Store) deleteChildren(ctx context.Context, tx *sql.Tx, id string) error {
	for _, table := range []string{"tasks", "task_dependencies", "calendar_holidays"} {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE project_id = ?"), id); err != nil {
			return fmt.Errorf("store: clear %s for %q: %w", table, id, err)
		}
	}
	return nil
}

func clone(p *project.Project) *project.Project {
	out := *p
	out.Tasks = append(make([]dag.Task, 0, len(p.Tasks)), p.Tasks...)
	out.Dependencies = append(make([]dag.Dependency, 0, len(p.Dependencies)), p.Dependencies...)
	if p.Settings.CustomHolidays != nil {
		out.Settings.CustomHolidays = append([]civil.Date(nil), p.Settings.CustomHolidays...)
	}
	return &out
}
