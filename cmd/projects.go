package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/project"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects in the project database",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess, err := newSession("projects")
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := sess.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		list, err := st.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		sess.printer.ProjectList(list)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("projects")
		if err != nil {
			return err
		}
		defer sess.Close()

		st, err := sess.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		sess.record(telemetry.KindProjectDeleted, args[0], "", nil)
		sess.printer.Info("deleted " + args[0])
		return nil
	},
}

var projectsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a stored project back out as a TOML project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		sess, err := newSession("projects")
		if err != nil {
			return err
		}
		defer sess.Close()

		p, err := sess.loadStored(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if out == "" {
			data, err := project.Marshal(p.File())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := project.Write(p.File(), out, force); err != nil {
			return fmt.Errorf("export %s: %w", args[0], err)
		}
		sess.printer.Info("wrote " + out)
		return nil
	},
}

func init() {
	projectsExportCmd.Flags().StringP("output", "o", "", "file to write (default: stdout)")
	projectsExportCmd.Flags().Bool("force", false, "overwrite an existing file")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	projectsCmd.AddCommand(projectsExportCmd)
	rootCmd.AddCommand(projectsCmd)
}
