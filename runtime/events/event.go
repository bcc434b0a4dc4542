// Package events implements the typed publish/subscribe bus, its causal
// scope tracker, and the handler dependency graph. Every lifecycle
// transition in the runtime (agent, task, crew, LLM call, tool usage, and so
// on) is mirrored here as a typed event so external consumers can
// reconstruct a causal tree from a stream of otherwise-unordered emissions.
package events

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// HandlerId is an opaque, unique identifier for a registered handler: a
// human-readable name paired with a process-wide monotonic counter, used for
// deduplication and for declaring Depends(otherID).
type HandlerId struct {
	Name string
	ID   uint64
}

var handlerIDCounter uint64

// NewHandlerId allocates a fresh HandlerId for name.
func NewHandlerId(name string) HandlerId {
	return HandlerId{Name: name, ID: atomic.AddUint64(&handlerIDCounter, 1)}
}

// Depends declares that a handler must run only after the handler
// identified by HandlerID has completed, for the same event type.
type Depends struct {
	HandlerID HandlerId
}

// Header carries the fields every event shares: identity, timing, the type
// discriminator, causal chain fields, and optional source identifiers.
// Concrete event types embed Header and add domain-specific payload fields.
type Header struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`

	ParentEventID      *string `json:"parent_event_id,omitempty"`
	PreviousEventID    *string `json:"previous_event_id,omitempty"`
	TriggeredByEventID *string `json:"triggered_by_event_id,omitempty"`
	EmissionSequence   *int64  `json:"emission_sequence,omitempty"`

	SourceFingerprint *string `json:"source_fingerprint,omitempty"`
	SourceType        *string `json:"source_type,omitempty"` // agent | task | crew
	AgentID           *string `json:"agent_id,omitempty"`
	AgentRole         *string `json:"agent_role,omitempty"`
	TaskID            *string `json:"task_id,omitempty"`
	TaskName          *string `json:"task_name,omitempty"`
}

// NewHeader builds a Header with a fresh event_id, the current UTC
// timestamp, and the given type discriminator. Chain fields are populated by
// the bus during Emit, not here.
func NewHeader(eventType string) Header {
	return Header{EventID: uuid.NewString(), Timestamp: time.Now().UTC(), Type: eventType}
}

// Event is implemented by every concrete event struct via an embedded
// Header. The bus only needs this much to attach causal metadata and
// dispatch; handlers that need the domain payload type-switch on the
// concrete value.
type Event interface {
	EventType() string
	Header() *Header
}

// EventType returns the type discriminator.
func (h *Header) EventType() string { return h.Type }

// Header returns a pointer to itself so embedding types satisfy Event
// without redeclaring accessors.
func (h *Header) Header() *Header { return h }

// Projection is the immutable, flat serialized form of an event handed to
// handlers for dispatch: chain and source fields plus the type
// discriminator, safe to pass across goroutines without aliasing the
// original event's mutable Header.
type Projection struct {
	EventID            string    `json:"event_id"`
	Timestamp          time.Time `json:"timestamp"`
	Type               string    `json:"event_type"`
	SourceFingerprint  *string   `json:"source_fingerprint,omitempty"`
	SourceType         *string   `json:"source_type,omitempty"`
	TaskID             *string   `json:"task_id,omitempty"`
	TaskName           *string   `json:"task_name,omitempty"`
	AgentID            *string   `json:"agent_id,omitempty"`
	AgentRole          *string   `json:"agent_role,omitempty"`
	ParentEventID      *string   `json:"parent_event_id,omitempty"`
	PreviousEventID    *string   `json:"previous_event_id,omitempty"`
	TriggeredByEventID *string   `json:"triggered_by_event_id,omitempty"`
	EmissionSequence   *int64    `json:"emission_sequence,omitempty"`
}

// Serialize builds the immutable dispatch projection of e.
func Serialize(e Event) Projection {
	h := e.Header()
	return Projection{
		EventID:            h.EventID,
		Timestamp:          h.Timestamp,
		Type:               h.Type,
		SourceFingerprint:  h.SourceFingerprint,
		SourceType:         h.SourceType,
		TaskID:             h.TaskID,
		TaskName:           h.TaskName,
		AgentID:            h.AgentID,
		AgentRole:          h.AgentRole,
		ParentEventID:      h.ParentEventID,
		PreviousEventID:    h.PreviousEventID,
		TriggeredByEventID: h.TriggeredByEventID,
		EmissionSequence:   h.EmissionSequence,
	}
}

func strPtr(s string) *string { return &s }
