package ir

// Version constants for the wire format and the engine.
const (
	// IRVersion is the transaction/receipt schema version.
	IRVersion = "1"

	// EngineVersion is the memorychain engine version.
	EngineVersion = "0.1.0"
)
