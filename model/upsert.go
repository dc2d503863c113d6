package model

// UpsertOutcome is the result of an idempotent write.
type UpsertOutcome string

const (
	UpsertCreated   UpsertOutcome = "created"
	UpsertUnchanged UpsertOutcome = "unchanged"
	// UpsertReplaced is used by last-write-wins writes that overwrote an existing record.
	UpsertReplaced UpsertOutcome = "replaced"
)
