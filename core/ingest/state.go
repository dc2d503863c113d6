package ingest

import "fmt"

// State is a step of one ingestion call.
type State string

const (
	StateReceived           State = "received"
	StateTextExtracted      State = "text_extracted"
	StateEntitiesRecognized State = "entities_recognized"
	StateRelationsExtracted State = "relations_extracted"
	StateNormalized         State = "normalized"
	StateSearchProjected    State = "search_projected"
	StateGraphProjected     State = "graph_projected"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// StageError reports a failed ingestion. State is the last state reached before
// the failure, so StateSearchProjected means the search write already happened.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion failed after %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
