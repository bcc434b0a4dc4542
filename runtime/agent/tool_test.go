package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() *Tool {
	return &Tool{
		Name:        "echo",
		Description: "echoes the input text back",
		Schema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"text": map[string]any{"type": "string"}},
			"required":             []any{"text"},
			"additionalProperties": false,
		},
		Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			return input["text"].(string), nil
		},
	}
}

func TestToolRegistryLookupResolvesByName(t *testing.T) {
	reg, err := NewToolRegistry(echoTool())
	require.NoError(t, err)
	tool, err := reg.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", tool.Name)
}

func TestToolRegistryLookupMissingToolErrors(t *testing.T) {
	reg, err := NewToolRegistry(echoTool())
	require.NoError(t, err)
	_, err = reg.Lookup("missing")
	assert.Error(t, err)
}

func TestToolInvokeValidatesAgainstSchema(t *testing.T) {
	reg, err := NewToolRegistry(echoTool())
	require.NoError(t, err)
	tool, err := reg.Lookup("echo")
	require.NoError(t, err)

	_, err = tool.invoke(context.Background(), map[string]any{})
	assert.Error(t, err, "missing required field should fail validation")

	out, err := tool.invoke(context.Background(), map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestToolInvokeRecoversFromPanic(t *testing.T) {
	tool := &Tool{
		Name: "boom",
		Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			panic("kaboom")
		},
	}
	_, err := tool.invoke(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
