package ir

// Version constants for the table schema and engine.
const (
	// SchemaVersion is the rule table document schema version.
	SchemaVersion = "1"

	// EngineVersion is the fusion engine version.
	EngineVersion = "0.1.0"
)
