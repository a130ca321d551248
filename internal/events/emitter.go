package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types written during a scan.
const (
	RunStart           = "run-start"
	CheckFinished      = "check-finished"
	ArtifactWritten    = "artifact-written"
	ActivationSkipped  = "activation-skipped"
	ActivationFinished = "activation-finished"
	RunFinished        = "run-finished"
	ReportSummary      = "report-summary"
)

// Event is a single NDJSON progress record.
type Event struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"runId,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emitter writes NDJSON events to an io.Writer safely across goroutines.
// Every event carries the emitter's run id. A nil writer discards events.
type Emitter struct {
	writer io.Writer
	runID  string
	mu     sync.Mutex
}

// NewEmitter returns an emitter with a fresh run id.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: w, runID: uuid.NewString()}
}

// RunID identifies the run all events belong to.
func (e *Emitter) RunID() string {
	return e.runID
}

// Emit serializes the event to JSON and appends a newline.
func (e *Emitter) Emit(evt Event) error {
	if e == nil || e.writer == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.RunID == "" {
		evt.RunID = e.runID
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writer.Write(append(payload, '\n')); err != nil {
		return err
	}

	return nil
}

// Send is shorthand for Emit with a type, message and fields.
func (e *Emitter) Send(typ, message string, fields map[string]interface{}) error {
	return e.Emit(Event{Type: typ, Message: message, Fields: fields})
}
