package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWorkflowsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the configured workflows and their decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				var rows [][]string
				for _, w := range a.service.Registry().Workflows() {
					p := w.Profile()
					sources := make([]string, len(p.Deck.Sources))
					for i, s := range p.Deck.Sources {
						sources[i] = s.Name
					}
					rows = append(rows, []string{
						w.Name(),
						string(p.Kind),
						strings.Join(sources, ", "),
						fmt.Sprint(p.Deck.OutputCapacity()),
						p.Description,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"name", "kind", "plate maps", "capacity", "description"}, rows))
				return nil
			})
		},
	}
}
