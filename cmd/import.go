package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/telemetry"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a project file in the project database",
	Long: `Validates the project file and saves it to the configured store
(store.driver / store.dsn). An existing project with the same ID is
replaced. The ID defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("id", "", "project ID (default: derived from the file name)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		id = projectID(args[0])
	}

	sess, err := newSession("import")
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := sess.loadFile(args[0])
	if err != nil {
		return err
	}
	// Reject projects that cannot be scheduled.
	if _, err := sess.runScheduler(id, p); err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := sess.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveProject(ctx, id, p); err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	sess.record(telemetry.KindProjectImported, id, "", map[string]any{
		"tasks": len(p.Tasks),
		"links": len(p.Dependencies),
	})
	sess.printer.Imported(id, p.Name, len(p.Tasks))
	return nil
}
