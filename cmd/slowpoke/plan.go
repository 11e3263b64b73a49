package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slowpoke/internal/artifacts"
	"slowpoke/internal/core"
	"slowpoke/internal/recipe"
	"slowpoke/pkg/domain"
	"sort"

	"github.com/spf13/cobra"
)

func newPlanCmd(flags *globalFlags) *cobra.Command {
	rf := &recipeFlags{}
	var asJSON bool
	var outputMap string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Validate a recipe and print its sequenced plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				rec, err := rf.load(a)
				if err != nil {
					return err
				}
				plan, err := a.service.Plan(cmd.Context(), rec)
				if err != nil {
					return err
				}
				if outputMap != "" {
					if err := writeOutputMap(outputMap, rec); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(plan)
				}
				printPlan(cmd, rec, plan)
				return nil
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	cmd.Flags().StringVar(&outputMap, "output-map", "", "write the output plate map CSV to this file")
	return cmd
}

func writeOutputMap(path string, rec domain.Recipe) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := recipe.WriteOutputMap(fh, core.RenderOutputMap(rec.Combinations)); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func printPlan(cmd *cobra.Command, rec domain.Recipe, plan domain.Plan) {
	out := cmd.OutOrStdout()
	printTitle(out, "Plan "+plan.Workflow)
	printField(out, "combinations", len(rec.Combinations))
	printField(out, "operations", len(plan.Operations))
	printField(out, "tips", fmt.Sprintf("%d (%d racks)", plan.Tips.Total, plan.Tips.Racks))
	printField(out, "checkpoints", len(plan.Checkpoints()))
	printField(out, "lot changes", len(plan.LotChanges()))
	fmt.Fprintln(out)

	printViolations(out, plan.Warnings)

	if header, rows := splitHeader(core.OutputTable(plan.Outputs)); len(rows) > 0 {
		printTitle(out, "Outputs")
		fmt.Fprintln(out, renderTable(header, rows))
	}
	if header, rows := splitHeader(artifacts.ReagentTable(plan.Reagents)); len(rows) > 0 {
		printTitle(out, "Reagents to prepare")
		fmt.Fprintln(out, renderTable(header, rows))
	}
	if grid := core.RenderOutputMap(rec.Combinations); len(grid) > 0 {
		printTitle(out, "Output map")
		fmt.Fprintln(out, renderGrid(grid))
	}
}

func newValidateCmd(flags *globalFlags) *cobra.Command {
	rf := &recipeFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a recipe against the workflow's deck and rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				rec, err := rf.load(a)
				if err != nil {
					return err
				}
				res, err := a.service.Validate(cmd.Context(), rec)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printViolations(out, res.Violations)
				if err := res.Err(); err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render("recipe is valid"))
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newTipsCmd(flags *globalFlags) *cobra.Command {
	rf := &recipeFlags{}
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Estimate the tips and tip racks a recipe consumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				rec, err := rf.load(a)
				if err != nil {
					return err
				}
				plan, err := a.service.Plan(cmd.Context(), rec)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printTitle(out, "Tips "+plan.Workflow)
				printField(out, "used", plan.Tips.Raw)
				printField(out, "with margin", plan.Tips.Total)
				printField(out, "racks", plan.Tips.Racks)
				fmt.Fprintln(out, renderTable([]string{"pipette", "tips"}, tipsByPipette(plan)))
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func tipsByPipette(plan domain.Plan) [][]string {
	counts := make(map[string]int)
	for _, op := range plan.Operations {
		if n := op.Tips(); n > 0 {
			counts[op.Pipette] += n
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, fmt.Sprint(counts[name])}
	}
	return rows
}
