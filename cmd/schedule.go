package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/project"
	"github.com/papapumpkin/critpath/internal/report"
	"github.com/papapumpkin/critpath/internal/schedule"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [file]",
	Short: "Compute early/late dates, float and critical paths",
	Long: `Schedules a project file (or a stored project with --project) and renders
the result to stdout.

With --watch, the file is re-scheduled every time it changes until
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringP("format", "f", "table", "output format (table, critical, gantt, components, json)")
	scheduleCmd.Flags().String("project", "", "schedule a stored project by ID instead of a file")
	scheduleCmd.Flags().BoolP("watch", "w", false, "re-schedule whenever the file changes")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	projectFlag, _ := cmd.Flags().GetString("project")
	watch, _ := cmd.Flags().GetBool("watch")

	strategy, err := report.ForFormat(format)
	if err != nil {
		return err
	}
	if err := checkSource(args, projectFlag); err != nil {
		return err
	}
	if watch && projectFlag != "" {
		return errors.New("--watch needs a project file")
	}

	sess, err := newSession("schedule")
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	p, name, err := sess.resolveSource(ctx, args, projectFlag)
	if err != nil {
		return err
	}
	if _, err := sess.scheduleAndRender(cmd.OutOrStdout(), name, p, strategy); err != nil && !watch {
		return err
	}
	if !watch {
		return nil
	}
	return sess.watchSchedule(ctx, cmd.OutOrStdout(), args[0], strategy)
}

// checkSource enforces exactly one of a file argument or --project.
func checkSource(args []string, projectFlag string) error {
	switch {
	case len(args) == 0 && projectFlag == "":
		return errors.New("a project file or --project is required")
	case len(args) == 1 && projectFlag != "":
		return errors.New("give either a project file or --project, not both")
	}
	return nil
}

// resolveSource loads the project named by the arguments. The returned
// name is used in output and telemetry.
func (sess *session) resolveSource(ctx context.Context, args []string, projectFlag string) (*project.Project, string, error) {
	if projectFlag != "" {
		p, err := sess.loadStored(ctx, projectFlag)
		if err != nil {
			return nil, "", err
		}
		return p, projectFlag, nil
	}
	p, err := sess.loadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	name := p.Name
	if name == "" {
		name = projectID(args[0])
	}
	return p, name, nil
}

// runScheduler builds and schedules p, recording the outcome.
func (sess *session) runScheduler(name string, p *project.Project) (*schedule.Schedule, error) {
	started := time.Now()
	s, err := p.Schedule()
	var cyc *dag.CycleError
	if errors.As(err, &cyc) {
		sess.printer.Cycle(cyc)
		sess.record(telemetry.KindCycleRejected, name, "", map[string]any{"cycle": cyc.Cycle})
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling %s: %w", name, err)
	}

	critical := len(s.CriticalTasks())
	sess.log.WithFields(logrus.Fields{
		"project":  name,
		"tasks":    s.Len(),
		"links":    len(s.Graph().Edges()),
		"critical": critical,
		"duration": time.Since(started),
	}).Info("schedule computed")
	sess.record(telemetry.KindScheduleRun, name, "", map[string]any{
		"tasks":         s.Len(),
		"critical":      critical,
		"finish":        s.ProjectFinish().String(),
		"duration_days": s.DurationDays(),
	})
	return s, nil
}

func (sess *session) scheduleAndRender(w io.Writer, name string, p *project.Project, strategy report.Strategy) (*schedule.Schedule, error) {
	s, err := sess.runScheduler(name, p)
	if err != nil {
		sess.printer.Error(err.Error())
		return nil, err
	}
	sess.printer.ScheduleSummary(name, s)
	fmt.Fprint(w, strategy.Render(s))
	return s, nil
}

// watchSchedule re-schedules path on every debounced change until ctx is
// cancelled. Errors in the file are reported and watching continues.
func (sess *session) watchSchedule(ctx context.Context, w io.Writer, path string, strategy report.Strategy) error {
	watcher, err := project.NewWatcher(path, sess.cfg.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Stop()

	sess.printer.Info("watching " + path + " (Ctrl-C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-watcher.Changes:
			if !ok {
				return nil
			}
			sess.record(telemetry.KindWatchReload, projectID(path), "", map[string]any{"removed": change.Kind == project.ChangeRemoved})
			if change.Kind == project.ChangeRemoved {
				sess.printer.Info(path + " removed; waiting for it to reappear")
				continue
			}
			sess.printer.Reloaded(path)
			p, err := sess.loadFile(path)
			if err != nil {
				sess.printer.Error(err.Error())
				continue
			}
			name := p.Name
			if name == "" {
				name = projectID(path)
			}
			// Errors are already printed.
			_, _ = sess.scheduleAndRender(w, name, p, strategy)
		}
	}
}
