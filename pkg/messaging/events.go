package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventCandidateCreated       = "candidate.created"
	EventCandidateUpdated       = "candidate.updated"
	EventResumeExtractionFailed = "resume.extraction_failed"
	EventResumeIngestRequested  = "resume.ingest.requested"
)

// ExchangeResumeEvents is the single topic exchange all resume traffic flows through
const ExchangeResumeEvents = "resume.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// CandidateChangedEvent is published after a resume was reconciled into the store.
// Type is either EventCandidateCreated or EventCandidateUpdated.
type CandidateChangedEvent struct {
	CandidateID    int64     `json:"candidate_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	SourceFilename string    `json:"source_filename"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExtractionFailedEvent is published when a vision extraction yields no usable record
type ExtractionFailedEvent struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// IngestRequestedEvent asks a worker to ingest an already stored upload
type IngestRequestedEvent struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}
