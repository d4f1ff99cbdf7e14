package logger

import "go.uber.org/zap"

const (
	// FieldRunID is the structured log field key for a pipeline run identifier.
	FieldRunID = "run_id"
	// FieldRFPFile is the structured log field key for the RFP document being processed.
	FieldRFPFile = "rfp_file"
)

// RunFields returns the fields that tie log entries to one pipeline run.
func RunFields(runID, rfpFile string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldRFPFile, Value: rfpFile},
	)
}

// WithRunFields attaches the run fields to the provided logger.
func WithRunFields(logger *zap.Logger, runID, rfpFile string) *zap.Logger {
	return WithFields(logger, RunFields(runID, rfpFile)...)
}
