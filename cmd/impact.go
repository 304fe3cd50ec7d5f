package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/critpath/internal/impact"
	"github.com/papapumpkin/critpath/internal/telemetry"
)

var impactCmd = &cobra.Command{
	Use:   "impact [file]",
	Short: "Show what moves downstream when a task slips",
	Long: `Schedules the project, then propagates a slip of --days working days on
--task through its successors. Each dependency link absorbs up to its free
float; the report lists every task that moves and whether the project
finish date slips.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringP("task", "t", "", "ID of the slipping task (required)")
	impactCmd.Flags().IntP("days", "d", 1, "slip in working days")
	impactCmd.Flags().String("project", "", "use a stored project by ID instead of a file")
	impactCmd.Flags().Bool("json", false, "print the impact as JSON on stdout")
	_ = impactCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	taskID, _ := cmd.Flags().GetString("task")
	days, _ := cmd.Flags().GetInt("days")
	projectFlag, _ := cmd.Flags().GetString("project")
	asJSON, _ := cmd.Flags().GetBool("json")

	if days < 0 {
		return fmt.Errorf("--days must be zero or more, got %d", days)
	}
	if err := checkSource(args, projectFlag); err != nil {
		return err
	}

	sess, err := newSession("impact")
	if err != nil {
		return err
	}
	defer sess.Close()

	p, name, err := sess.resolveSource(cmd.Context(), args, projectFlag)
	if err != nil {
		return err
	}
	s, err := sess.runScheduler(name, p)
	if err != nil {
		return err
	}

	im, err := impact.Analyze(s, taskID, days)
	if err != nil {
		return fmt.Errorf("impact: %w", err)
	}
	sess.log.WithField("task", taskID).WithField("affected", len(im.Affected)).Info("impact analyzed")
	sess.record(telemetry.KindImpactQuery, name, taskID, map[string]any{
		"days":               days,
		"affected":           len(im.Affected),
		"project_delay_days": im.ProjectDelayDays,
	})

	if asJSON {
		return writeImpactJSON(cmd.OutOrStdout(), im)
	}
	sess.printer.Impact(im)
	return nil
}

// impactDocument is the JSON form of an impact.
type impactDocument struct {
	Task             string         `json:"task"`
	DelayDays        int            `json:"delay_days"`
	Affected         []string       `json:"affected"`
	TaskDelays       map[string]int `json:"task_delays"`
	ProjectDelayDays int            `json:"project_delay_days"`
	OriginalFinish   string         `json:"original_finish"`
	ProjectedFinish  string         `json:"projected_finish"`
	ThreatensFinish  bool           `json:"threatens_finish"`
}

func writeImpactJSON(w io.Writer, im *impact.Impact) error {
	if im == nil {
		return errors.New("impact: nothing to write")
	}
	doc := impactDocument{
		Task:             im.SourceTaskID,
		DelayDays:        im.DelayDays,
		Affected:         im.Affected,
		TaskDelays:       im.TaskDelays,
		ProjectDelayDays: im.ProjectDelayDays,
		OriginalFinish:   im.OriginalFinish.String(),
		ProjectedFinish:  im.ProjectedFinish.String(),
		ThreatensFinish:  im.ThreatensFinish(),
	}
	if doc.Affected == nil {
		doc.Affected = []string{}
	}
	if doc.TaskDelays == nil {
		doc.TaskDelays = map[string]int{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
