package main

import (
	"fmt"
	"slowpoke/internal/recipe"
	"slowpoke/pkg/domain"

	"github.com/spf13/cobra"
)

// recipeFlags locate the recipe files of a command.
type recipeFlags struct {
	workflow  string
	recipe    string
	plateMaps []string
	delimiter string
}

func (f *recipeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.workflow, "workflow", "w", "", "workflow name (see 'slowpoke workflows')")
	cmd.Flags().StringVarP(&f.recipe, "recipe", "r", "", "combinations file: one name per row followed by its parts")
	cmd.Flags().StringArrayVarP(&f.plateMaps, "plate-map", "m", nil, "plate map file, bound to the workflow's source labware in order (repeatable)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "field delimiter of the recipe files (default: the workflow's)")
	_ = cmd.MarkFlagRequired("workflow")
	_ = cmd.MarkFlagRequired("recipe")
}

// load reads the recipe using the workflow's delimiter unless one was given.
func (f *recipeFlags) load(a *app) (domain.Recipe, error) {
	w, err := a.service.Registry().Lookup(f.workflow)
	if err != nil {
		return domain.Recipe{}, err
	}
	delim := f.delimiter
	if delim == "" {
		delim = w.Profile().Delimiter
	}
	r, err := recipe.ParseDelimiter(delim)
	if err != nil {
		return domain.Recipe{}, err
	}
	rec, err := recipe.Load(f.workflow, f.recipe, f.plateMaps, r)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("load recipe: %w", err)
	}
	return rec, nil
}
