package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/dag"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

// errValidation is returned when the project has errors. Details are
// already printed.
var errValidation = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a project for bad dates, unknown tasks and cycles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectFlag, _ := cmd.Flags().GetString("project")
		if err := checkSource(args, projectFlag); err != nil {
			return err
		}

		sess, err := newSession("validate")
		if err != nil {
			return err
		}
		defer sess.Close()

		name := projectFlag
		if name == "" {
			name = projectID(args[0])
		}
		p, resolvedName, err := sess.resolveSource(cmd.Context(), args, projectFlag)
		if err != nil {
			sess.printer.ValidateResult(name, 0, 0, err)
			return errValidation
		}

		_, err = p.Schedule()
		var cyc *dag.CycleError
		if errors.As(err, &cyc) {
			sess.record(telemetry.KindCycleRejected, resolvedName, "", map[string]any{"cycle": cyc.Cycle})
		}
		sess.printer.ValidateResult(resolvedName, len(p.Tasks), len(p.Dependencies), err)
		if err != nil {
			return errValidation
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().String("project", "", "validate a stored project by ID instead of a file")
	rootCmd.AddCommand(validateCmd)
}
