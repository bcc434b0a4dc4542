package fingerprint_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/fingerprint"
)

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := fingerprint.Generate("seed", nil)
	b := fingerprint.Generate("seed", nil)
	assert.Equal(t, a.UUIDStr, b.UUIDStr)
}

func TestGenerateRandomWithoutSeed(t *testing.T) {
	a := fingerprint.Generate("", nil)
	b := fingerprint.Generate("", nil)
	assert.NotEqual(t, a.UUIDStr, b.UUIDStr)
}

func TestValidateRejectsNestedObject(t *testing.T) {
	err := fingerprint.Validate(map[string]any{"k": map[string]any{"nested": true}})
	require.Error(t, err)
}

func TestValidateRejectsOversizedMetadata(t *testing.T) {
	big := make([]byte, 11*1024)
	for i := range big {
		big[i] = 'a'
	}
	err := fingerprint.Validate(map[string]any{"blob": string(big)})
	require.Error(t, err)
}

func TestValidateAcceptsExactlyAtLimit(t *testing.T) {
	// {"k":"..."} overhead is 8 bytes; pad the value so the whole object is
	// exactly 10KiB.
	const overhead = len(`{"k":""}`)
	pad := make([]byte, 10*1024-overhead)
	for i := range pad {
		pad[i] = 'x'
	}
	err := fingerprint.Validate(map[string]any{"k": string(pad)})
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	f := fingerprint.Generate("seed-2", map[string]any{"owner": "writer"})
	d := f.ToDict()
	back, err := fingerprint.FromDict(d)
	require.NoError(t, err)
	assert.Equal(t, f.UUIDStr, back.UUIDStr)
	assert.Equal(t, f.Metadata, back.Metadata)
	assert.WithinDuration(t, f.CreatedAt, back.CreatedAt, time.Second)
}
