package main

import (
	"fmt"
	"io"
	"os"
	"slowpoke/internal/artifacts"
	"slowpoke/internal/blob"
	"slowpoke/internal/core"
	"slowpoke/internal/robot"
	"slowpoke/pkg/domain"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	rf := &recipeFlags{}
	var dryRun bool
	var transcript string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan a recipe and execute it on the robot",
		Long: `Plan a recipe, journal the run, publish its artifacts and execute it.

Without --dry-run the robot command stream is written as JSON lines to the
transcript (stdout unless --transcript or robot.transcript is set) and every
checkpoint waits for Enter. Interrupting the command aborts the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, flags, func(a *app) error {
				rec, err := rf.load(a)
				if err != nil {
					return err
				}

				blobCfg := a.cfg.Blob
				if dryRun {
					blobCfg = blob.Config{Driver: blob.DriverMemory}
				}
				store, err := blob.Open(ctx, blobCfg)
				if err != nil {
					return fmt.Errorf("open artifact store: %w", err)
				}

				out := cmd.OutOrStdout()
				var (
					bot      robot.Robot
					recorder *robot.Recorder
				)
				if dryRun {
					recorder = robot.NewRecorder(robot.AutoResume{})
					bot = recorder
				} else {
					path := transcript
					if path == "" {
						path = a.cfg.Robot.Transcript
					}
					w, closeFn, err := openTranscript(path, out)
					if err != nil {
						return err
					}
					defer closeFn()
					bot = robot.NewTranscript(w, robot.NewConsolePauser(cmd.InOrStdin(), out))
				}

				executor := robot.NewExecutor(bot,
					robot.WithJournal(a.journal),
					robot.WithObserver(a.metrics),
					robot.WithLogger(a.logger.Named("robot")),
					robot.WithLockFile(a.cfg.Robot.LockPath),
				)
				svc := a.newService(a.service.Registry(), core.WithArtifacts(artifacts.NewPublisher(store)))

				run, runErr := svc.Run(ctx, rec, executor)
				if run.ID != "" {
					printRun(out, run)
					if recorder != nil {
						printField(out, "commands", len(recorder.Commands()))
					}
				}
				return runErr
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "record robot commands without a robot; checkpoints resume immediately")
	cmd.Flags().StringVar(&transcript, "transcript", "", "file receiving the robot command stream")
	return cmd
}

func openTranscript(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open transcript: %w", err)
	}
	return fh, func() { _ = fh.Close() }, nil
}

func printRun(w io.Writer, run domain.Run) {
	printTitle(w, "Run "+run.ID)
	printField(w, "workflow", run.Workflow)
	printField(w, "status", run.Status)
	printField(w, "executed", fmt.Sprintf("%d/%d", run.Executed, run.Operations))
	printField(w, "tips", run.Tips)
	if run.Error != "" {
		printField(w, "error", run.Error)
	}
}

func newRunsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List journaled runs, or the events of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, flags, func(a *app) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					run, ok, err := a.journal.GetRun(ctx, args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("run %q: %w", args[0], domain.ErrNotFound)
					}
					events, err := a.journal.ListEvents(ctx, run.ID)
					if err != nil {
						return err
					}
					printRun(out, run)
					fmt.Fprintln(out, renderTable([]string{"seq", "type", "kind", "stage", "message", "at"}, eventRows(events)))
					return nil
				}
				runs, err := a.service.Runs(ctx)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "no runs")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"id", "workflow", "status", "executed", "tips", "created"}, runRows(runs)))
				return nil
			})
		},
	}
}

func runRows(runs []domain.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Workflow,
			string(r.Status),
			fmt.Sprintf("%d/%d", r.Executed, r.Operations),
			fmt.Sprint(r.Tips),
			r.CreatedAt.Format(time.RFC3339),
		}
	}
	return rows
}

func eventRows(events []domain.RunEvent) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{fmt.Sprint(e.Seq), string(e.Type), string(e.Kind), e.Stage, e.Message, e.At.Format(time.RFC3339)}
	}
	return rows
}
