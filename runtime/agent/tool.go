package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/crewforge/orchestrator/runtime/agent/toolerrors"
)

type (
	// Tool is a named, invocable function an Agent may call during its
	// execution loop. Schema, when non-nil, is validated against the
	// arguments the model supplies before Invoke runs.
	Tool struct {
		Name        string
		Description string
		Schema      map[string]any
		Invoke      func(ctx context.Context, input map[string]any) (string, error)

		// ResultAsAnswer short-circuits the loop straight to Final when this
		// tool produces a result, overriding the model's own answer.
		ResultAsAnswer bool

		compiled *jsonschema.Schema
	}

	// ToolRegistry resolves tool names to their definitions for a single
	// execution. Agents are configured with a list of tool names only; the
	// registry supplies the actual callables.
	ToolRegistry map[string]*Tool
)

// NewToolRegistry indexes tools by name, compiling any declared schema up
// front so invocation-time validation never pays the compile cost.
func NewToolRegistry(tools ...*Tool) (ToolRegistry, error) {
	reg := make(ToolRegistry, len(tools))
	for _, t := range tools {
		if t == nil || t.Name == "" {
			continue
		}
		if t.Schema != nil {
			schema, err := compileToolSchema(t.Name, t.Schema)
			if err != nil {
				return nil, err
			}
			t.compiled = schema
		}
		reg[t.Name] = t
	}
	return reg, nil
}

func compileToolSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("agent: marshal schema for tool %s: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("agent: decode schema for tool %s: %w", name, err)
	}
	resource := fmt.Sprintf("%s.json", name)
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("agent: add schema resource for tool %s: %w", name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("agent: compile schema for tool %s: %w", name, err)
	}
	return compiled, nil
}

// invoke validates input against the tool's schema (if any) then calls the
// tool's Invoke callback, recovering from panics so a misbehaving tool never takes
// the whole loop down with it.
func (t *Tool) invoke(ctx context.Context, input map[string]any) (out string, err error) {
	if t.compiled != nil {
		if verr := t.compiled.Validate(input); verr != nil {
			te := toolerrors.NewWithCause("invalid tool arguments", fmt.Errorf("%s: %w", t.Name, verr))
			te.Kind = toolerrors.KindInvalidArguments
			return "", te
		}
	}
	defer func() {
		if r := recover(); r != nil {
			err = toolerrors.NewKind(toolerrors.KindPanic, fmt.Sprintf("tool %s panicked: %v", t.Name, r))
		}
	}()
	return t.Invoke(ctx, input)
}

// Lookup resolves a tool by name, returning a KindUnavailable ToolError when
// it is not registered.
func (r ToolRegistry) Lookup(name string) (*Tool, error) {
	t, ok := r[name]
	if !ok {
		return nil, toolerrors.NewKind(toolerrors.KindUnavailable, fmt.Sprintf("tool %q is not available", name))
	}
	return t, nil
}
