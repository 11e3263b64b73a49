package core

import (
	"context"
	"fmt"
	"slowpoke/pkg/domain"
	"sort"
)

// Workflow turns a validated recipe into a sequenced plan and contributes
// the rules specific to its protocol.
type Workflow interface {
	Name() string
	Profile() Profile
	Rules() []Rule
	Sequence(ctx context.Context, view RecipeView) (domain.Plan, error)
}

// NewWorkflow constructs the workflow a profile's kind selects.
func NewWorkflow(profile Profile) (Workflow, error) {
	switch profile.Kind {
	case KindGoldenGate:
		return NewGoldenGate(profile), nil
	case KindColonyPCR:
		return NewColonyPCR(profile), nil
	default:
		return nil, domain.Configf("kind", "profile %q has unknown workflow kind %q", profile.Name, profile.Kind)
	}
}

// WorkflowRegistry holds the workflows available to the service.
type WorkflowRegistry struct {
	workflows map[string]Workflow
}

// NewWorkflowRegistry constructs an empty registry.
func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{workflows: make(map[string]Workflow)}
}

// NewRegistryFromProfiles builds a workflow per profile.
func NewRegistryFromProfiles(profiles ...Profile) (*WorkflowRegistry, error) {
	reg := NewWorkflowRegistry()
	for _, p := range profiles {
		w, err := NewWorkflow(p)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(w); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DefaultRegistry registers the built-in profiles.
func DefaultRegistry() *WorkflowRegistry {
	reg, err := NewRegistryFromProfiles(DefaultProfiles()...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Register adds a workflow. Names must be unique.
func (r *WorkflowRegistry) Register(w Workflow) error {
	if w == nil || w.Name() == "" {
		return fmt.Errorf("workflow name required")
	}
	if _, exists := r.workflows[w.Name()]; exists {
		return fmt.Errorf("workflow %s already registered", w.Name())
	}
	r.workflows[w.Name()] = w
	return nil
}

// Lookup returns the named workflow.
func (r *WorkflowRegistry) Lookup(name string) (Workflow, error) {
	w, ok := r.workflows[name]
	if !ok {
		return nil, domain.Configf("workflow", "unknown workflow %q (available: %v)", name, r.Names())
	}
	return w, nil
}

// Names returns the registered workflow names in sorted order.
func (r *WorkflowRegistry) Names() []string {
	out := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Workflows returns the registered workflows sorted by name.
func (r *WorkflowRegistry) Workflows() []Workflow {
	names := r.Names()
	out := make([]Workflow, len(names))
	for i, name := range names {
		out[i] = r.workflows[name]
	}
	return out
}
