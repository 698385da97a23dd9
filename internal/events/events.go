package events

const (
	SyncCompletedTopic = "sync:completed"
	SourceDeletedTopic = "source:deleted"
)

// SyncCompleted is published by the orchestrator after every pipeline run.
type SyncCompleted struct {
	RunID       string
	JobsCreated int
	JobsUpdated int
	Errors      []string
}

// SourceDeleted is published by the registry so a run in progress can stop
// fetching a source that no longer exists.
type SourceDeleted struct {
	SourceKey string
}
