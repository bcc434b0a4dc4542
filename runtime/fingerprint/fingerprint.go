// Package fingerprint implements the identity stamp attached to agents,
// tasks, and crews: a UUID, a creation timestamp, and a small metadata
// mapping.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxMetadataSize bounds the serialized size of Fingerprint.Metadata.
const maxMetadataSize = 10 * 1024

// namespace is the fixed UUID namespace used to derive deterministic (v5)
// fingerprints from a seed string.
var namespace = uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

// Fingerprint is an identity stamp: a UUID string (v4 random, or v5 derived
// from a seed under the fixed namespace), a creation timestamp, and a flat
// metadata mapping. Metadata serialized size must not exceed 10 KiB and
// values must not themselves be objects (depth limit of 1).
type Fingerprint struct {
	UUIDStr   string         `json:"uuid_str"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// Generate produces a new Fingerprint. When seed is non-empty the UUID is
// deterministic (uuid5 over the fixed namespace); otherwise it is random
// (uuid4). Panics if metadata fails validation — callers that need a
// recoverable path should call Validate themselves first.
func Generate(seed string, metadata map[string]any) Fingerprint {
	var id string
	if seed != "" {
		id = GenerateUUID(seed)
	} else {
		id = uuid.NewString()
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if err := Validate(metadata); err != nil {
		panic("invalid metadata: " + err.Error())
	}
	return Fingerprint{UUIDStr: id, CreatedAt: time.Now().UTC(), Metadata: metadata}
}

// GenerateUUID deterministically derives a uuid5 string from seed.
func GenerateUUID(seed string) string {
	return uuid.NewSHA1(namespace, []byte(seed)).String()
}

// Validate checks the metadata size and depth-1 constraints.
func Validate(metadata map[string]any) error {
	b, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	if len(b) > maxMetadataSize {
		return fmt.Errorf("metadata exceeds maximum size of %d bytes", maxMetadataSize)
	}
	for k, v := range metadata {
		if _, ok := v.(map[string]any); ok {
			return fmt.Errorf("metadata value for key %q exceeds depth limit of 1", k)
		}
	}
	return nil
}

// UUID parses UUIDStr into a uuid.UUID.
func (f Fingerprint) UUID() uuid.UUID {
	return uuid.MustParse(f.UUIDStr)
}

// String implements fmt.Stringer, returning the UUID string.
func (f Fingerprint) String() string { return f.UUIDStr }

// Equal reports whether two fingerprints are the same identity. Matching the
// original implementation, identity equality is keyed only on UUIDStr;
// callers that need a full structural comparison (e.g. round-trip tests)
// should compare fields directly instead.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.UUIDStr == other.UUIDStr
}

// dict is the wire shape used by FromDict/ToDict.
type dict struct {
	UUIDStr   string         `json:"uuid_str"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// ToDict serializes the fingerprint to a generic map, matching the source
// implementation's dictionary round-trip shape.
func (f Fingerprint) ToDict() map[string]any {
	return map[string]any{
		"uuid_str":   f.UUIDStr,
		"created_at": f.CreatedAt.Format(time.RFC3339),
		"metadata":   f.Metadata,
	}
}

// FromDict deserializes a fingerprint from the generic map produced by
// ToDict. A missing or unparsable created_at falls back to the current time,
// matching the source implementation's lenient recovery.
func FromDict(data map[string]any) (Fingerprint, error) {
	uuidStr, _ := data["uuid_str"].(string)
	if uuidStr == "" {
		return Fingerprint{}, fmt.Errorf("missing uuid_str")
	}
	createdAt := time.Now().UTC()
	if s, ok := data["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			createdAt = t
		}
	}
	metadata := map[string]any{}
	if m, ok := data["metadata"].(map[string]any); ok {
		metadata = m
	}
	return Fingerprint{UUIDStr: uuidStr, CreatedAt: createdAt, Metadata: metadata}, nil
}
