package logging

import (
	"context"

	"go.uber.org/zap"
)

type runCtxKey struct{}
type workflowCtxKey struct{}

// WithRunID attaches a run identifier to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runCtxKey{}, id)
}

// RunIDFromContext returns the run identifier, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runCtxKey{}).(string)
	return id
}

// WithWorkflow attaches a workflow name to the context.
func WithWorkflow(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, workflowCtxKey{}, name)
}

// WorkflowFromContext returns the workflow name, or "".
func WorkflowFromContext(ctx context.Context) string {
	name, _ := ctx.Value(workflowCtxKey{}).(string)
	return name
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 2)
	if id := RunIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("run.id", id))
	}
	if name := WorkflowFromContext(ctx); name != "" {
		fields = append(fields, zap.String("workflow", name))
	}
	return fields
}
