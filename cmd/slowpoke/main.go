// Command slowpoke plans and runs Golden Gate assembly and colony PCR
// protocols on a liquid-handling robot.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "slowpoke",
		Short: "Plan and run cloning protocols on a liquid-handling robot",
		Long: `slowpoke turns a combinations file and plate maps into a sequenced
liquid-handling protocol, checks it against the deck, estimates tips and
drives the robot through it.

Examples:
  # Inspect the plan for a Golden Gate recipe
  slowpoke plan --workflow golden_gate --recipe combinations.csv --plate-map dna_plate.csv

  # Estimate tip racks for a colony PCR run
  slowpoke tips --workflow colony_pcr --recipe combinations.csv --plate-map colonies.csv

  # Execute without a robot, recording commands only
  slowpoke run --dry-run --workflow golden_gate --recipe combinations.csv --plate-map dna_plate.csv`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML configuration file")

	root.AddCommand(
		newPlanCmd(flags),
		newValidateCmd(flags),
		newTipsCmd(flags),
		newRunCmd(flags),
		newRunsCmd(flags),
		newWorkflowsCmd(flags),
	)
	return root
}
