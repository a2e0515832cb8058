package pipeline

import "github.com/plateful/recipescout/internal/recipe"

// State names the orchestrator's position in the fallback cascade.
type State string

const (
	StateDiscovering   State = "discovering"
	StateExtracting    State = "extracting"
	StateValidating    State = "validating"
	StateEscalating    State = "escalating"
	StateSufficient    State = "sufficient"
	StateCacheOnly     State = "cache-only"
	StateStaticDataset State = "static-dataset"
	StateSynthesized   State = "synthesized"
	StateDone          State = "done"
)

// ErrorRecord is one collected, non-fatal failure. Errors never halt a run;
// they are surfaced alongside partial results.
type ErrorRecord struct {
	Stage   State  `json:"stage"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// EventType discriminates progress events on the streaming variant.
type EventType string

const (
	EventStage    EventType = "stage"
	EventRecord   EventType = "record"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one ordered progress notification. A record event is never
// emitted before the extracting stage event that covers it; complete is
// always the last event on success.
type Event struct {
	Type        EventType      `json:"type"`
	Stage       State          `json:"stage,omitempty"`
	Processed   int            `json:"processed,omitempty"`
	Total       int            `json:"total,omitempty"`
	Errors      []ErrorRecord  `json:"errors,omitempty"`
	Record      *recipe.Recipe `json:"record,omitempty"`
	RecordCount int            `json:"recordCount,omitempty"`
	Message     string         `json:"message,omitempty"`
}
