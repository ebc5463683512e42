package constants

// RunStatus is the canonical status for rows in transcription_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued       RunStatus = "QUEUED"       // queued for processing
	RunStatusRunning      RunStatus = "RUNNING"      // in progress
	RunStatusClassified   RunStatus = "CLASSIFIED"   // stage 1 completed (pages ranked)
	RunStatusExtractOK    RunStatus = "EXTRACT_OK"   // stage 2 completed (≥1 page extracted)
	RunStatusConsolidated RunStatus = "CONSOLIDATED" // stage 3 completed (statement produced)
	RunStatusFailed       RunStatus = "FAILED"       // terminal failure
)
