// Package artifacts materialises the files an operator needs next to a run
// and writes them to the blob store.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slowpoke/internal/blob"
	"slowpoke/internal/core"
	"slowpoke/internal/recipe"
	"slowpoke/pkg/domain"
	"strconv"
)

// Artifact file names under runs/<id>/.
const (
	PlanFile     = "plan.json"
	OutputsFile  = "outputs.csv"
	ReagentsFile = "reagents.csv"
	AgarFile     = "Agar_plate.csv"
)

var _ core.ArtifactPublisher = (*Publisher)(nil)

// Publisher writes run artifacts to a blob store.
type Publisher struct {
	store blob.Store
}

// NewPublisher returns a publisher writing to store.
func NewPublisher(store blob.Store) *Publisher {
	return &Publisher{store: store}
}

type rendered struct {
	name        string
	contentType string
	payload     []byte
}

// Key returns the blob key of an artifact of the given run.
func Key(runID, name string) string {
	return path.Join("runs", runID, name)
}

// Publish stores every artifact of the run and returns their keys. Keys are
// create-only, so publishing the same run twice fails.
func (p *Publisher) Publish(ctx context.Context, runID string, rec domain.Recipe, plan domain.Plan) ([]string, error) {
	files, err := materialize(rec, plan)
	if err != nil {
		return nil, err
	}
	meta := map[string]string{
		"run":          runID,
		"workflow":     plan.Workflow,
		"combinations": strconv.Itoa(len(rec.Combinations)),
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := Key(runID, f.name)
		if _, err := p.store.Put(ctx, key, bytes.NewReader(f.payload), blob.PutOptions{ContentType: f.contentType, Metadata: meta}); err != nil {
			return keys, fmt.Errorf("store %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func materialize(rec domain.Recipe, plan domain.Plan) ([]rendered, error) {
	var out []rendered

	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	out = append(out, rendered{name: PlanFile, contentType: "application/json", payload: planJSON})

	var buf bytes.Buffer
	if err := recipe.WriteTable(&buf, core.OutputTable(plan.Outputs)); err != nil {
		return nil, fmt.Errorf("render outputs: %w", err)
	}
	out = append(out, rendered{name: OutputsFile, contentType: "text/csv", payload: bytes.Clone(buf.Bytes())})

	if len(plan.Reagents) > 0 {
		buf.Reset()
		if err := recipe.WriteTable(&buf, ReagentTable(plan.Reagents)); err != nil {
			return nil, fmt.Errorf("render reagents: %w", err)
		}
		out = append(out, rendered{name: ReagentsFile, contentType: "text/csv", payload: bytes.Clone(buf.Bytes())})
	}

	if plates(plan) {
		buf.Reset()
		if err := recipe.WriteOutputMap(&buf, core.RenderOutputMap(rec.Combinations)); err != nil {
			return nil, fmt.Errorf("render agar map: %w", err)
		}
		out = append(out, rendered{name: AgarFile, contentType: "text/csv", payload: bytes.Clone(buf.Bytes())})
	}
	return out, nil
}

// ReagentTable lists bulk reagents with their location and the volume to
// load, with a header row.
func ReagentTable(reagents []domain.ReagentRequirement) [][]string {
	rows := [][]string{{"reagent", "labware", "well", "volume_ul"}}
	for _, r := range reagents {
		rows = append(rows, []string{r.Name, r.Location.Labware, r.Location.Well, strconv.FormatFloat(r.Volume, 'f', -1, 64)})
	}
	return rows
}

func plates(plan domain.Plan) bool {
	for _, op := range plan.Operations {
		if op.Stage == core.StagePlating {
			return true
		}
	}
	return false
}
