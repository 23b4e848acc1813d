package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Session lifecycle
	EventSessionReset  EventType = "session.reset"
	EventStageAdvanced EventType = "stage.advanced"

	// Turns (one request/response round trip)
	EventTurnStarted   EventType = "turn.started"
	EventTurnCompleted EventType = "turn.completed"
	EventTurnFailed    EventType = "turn.failed"
)

// EventSource identifies the component that emitted an event.
type EventSource string

const (
	SourceController EventSource = "controller"
	SourceWizard     EventSource = "wizard"
)

// Event represents an event in the system.
type Event struct {
	ID        string         `json:"id" yaml:"id"`
	SessionID string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Type      EventType      `json:"type" yaml:"type"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Source    EventSource    `json:"source" yaml:"source"`
	Payload   map[string]any `json:"payload" yaml:"payload"`
}

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

type SessionResetPayload struct {
	StageIndex int    `json:"stage_index"`
	Mode       string `json:"mode"`
}

func (SessionResetPayload) EventType() EventType { return EventSessionReset }

type StageAdvancedPayload struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Stage string `json:"stage"`
	Mode  string `json:"mode"`
}

func (StageAdvancedPayload) EventType() EventType { return EventStageAdvanced }

// =============================================================================
// TURN EVENTS
// =============================================================================

type TurnStartedPayload struct {
	StageIndex int    `json:"stage_index"`
	Mode       string `json:"mode"`
	Text       string `json:"text"`
}

func (TurnStartedPayload) EventType() EventType { return EventTurnStarted }

type TurnCompletedPayload struct {
	StageIndex int           `json:"stage_index"`
	Mode       string        `json:"mode"`
	Images     int           `json:"images,omitempty"`
	TextLength int           `json:"text_length,omitempty"`
	SaveError  string        `json:"save_error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (TurnCompletedPayload) EventType() EventType { return EventTurnCompleted }

type TurnFailedPayload struct {
	StageIndex int           `json:"stage_index"`
	Mode       string        `json:"mode"`
	Kind       string        `json:"kind"` // auth, validation, backend, cancelled, transport
	Error      string        `json:"error"`
	Duration   time.Duration `json:"duration"`
}

func (TurnFailedPayload) EventType() EventType { return EventTurnFailed }

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return NewEvent(payload.EventType(), source, toMap(payload))
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if e.Type != result.EventType() {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetStageAdvancedPayload(e Event) (StageAdvancedPayload, bool) {
	return ExtractPayload[StageAdvancedPayload](e)
}

func GetTurnCompletedPayload(e Event) (TurnCompletedPayload, bool) {
	return ExtractPayload[TurnCompletedPayload](e)
}

func GetTurnFailedPayload(e Event) (TurnFailedPayload, bool) {
	return ExtractPayload[TurnFailedPayload](e)
}
