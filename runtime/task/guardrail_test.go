package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLLMOutputGuardrailRewritesRawOnAcceptance(t *testing.T) {
	g := FromLLMOutputGuardrail(context.Background(), func(ctx context.Context, output string) (string, error) {
		return output + " (validated)", nil
	})
	out := &TaskOutput{Raw: "draft"}
	result, err := g(out)
	require.NoError(t, err)
	assert.Equal(t, "draft (validated)", result.Raw)
	assert.Equal(t, "draft", out.Raw, "original output must not be mutated")
}

func TestFromLLMOutputGuardrailPropagatesRejection(t *testing.T) {
	g := FromLLMOutputGuardrail(context.Background(), func(ctx context.Context, output string) (string, error) {
		return "", errors.New("fails the instruction")
	})
	_, err := g(&TaskOutput{Raw: "draft"})
	assert.Error(t, err)
}
