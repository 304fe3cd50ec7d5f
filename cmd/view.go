package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/project"
	"github.com/papapumpkin/critpath/internal/telemetry"
	"github.com/papapumpkin/critpath/internal/tui"
)

// viewCmd opens the interactive schedule explorer.
var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Browse a schedule interactively and preview slips",
	Long: `Opens a terminal UI over the schedule: move through tasks in
topological order, see their dates and float, and press + / - to preview
how slipping the selected task moves its successors and the finish date.

When a project file is given it is watched and the view refreshes on every
save (disable with --watch=false).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().String("project", "", "view a stored project by ID instead of a file")
	viewCmd.Flags().Bool("watch", true, "refresh when the project file changes")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	projectFlag, _ := cmd.Flags().GetString("project")
	watch, _ := cmd.Flags().GetBool("watch")
	if err := checkSource(args, projectFlag); err != nil {
		return err
	}
	if !isStderrTTY() {
		return errors.New("critpath view requires a TTY (terminal)")
	}

	sess, err := newSession("view")
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, name, err := sess.resolveSource(ctx, args, projectFlag)
	if err != nil {
		return err
	}
	s, err := sess.runScheduler(name, p)
	if err != nil {
		return err
	}

	prog := tui.NewProgram(name, s)
	if watch && projectFlag == "" {
		watcher, err := project.NewWatcher(args[0], sess.cfg.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("watch %s: %w", args[0], err)
		}
		defer watcher.Stop()
		go sess.forwardReloads(ctx, prog, watcher, name)
	}

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// forwardReloads re-schedules the watched file on every change and sends
// the result into the running program.
func (sess *session) forwardReloads(ctx context.Context, prog *tui.Program, w *project.Watcher, name string) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-w.Changes:
			if !ok {
				return
			}
			if change.Kind == project.ChangeRemoved {
				continue
			}
			sess.record(telemetry.KindWatchReload, name, "", nil)
			p, err := sess.loadFile(change.Path)
			if err != nil {
				prog.Send(tui.MsgScheduleLoaded{Err: err})
				continue
			}
			// Not runScheduler: the printer would write over the alt screen.
			s, err := p.Schedule()
			if err == nil {
				sess.record(telemetry.KindScheduleRun, name, "", map[string]any{"tasks": s.Len(), "finish": s.ProjectFinish().String()})
			}
			prog.Send(tui.MsgScheduleLoaded{Schedule: s, Err: err})
		}
	}
}

func isStderrTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
