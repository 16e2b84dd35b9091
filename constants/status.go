package constants

// PipelineStatus is the canonical status for an invoice moving through the
// processing pipeline.
type PipelineStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending        PipelineStatus = "pending"         // created, nothing run yet
	StatusExtracted      PipelineStatus = "extracted"       // structured fields extracted
	StatusValidated      PipelineStatus = "validated"       // business rules passed
	StatusFailed         PipelineStatus = "failed"          // terminal failure
	StatusAnomalyFlagged PipelineStatus = "anomaly_flagged" // terminal, needs human review
	StatusCompleted      PipelineStatus = "completed"       // terminal, clean
)

var terminalStatuses = map[PipelineStatus]bool{
	StatusFailed:         true,
	StatusAnomalyFlagged: true,
	StatusCompleted:      true,
}

// IsTerminal reports whether no further pipeline transitions occur.
func (s PipelineStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s PipelineStatus) String() string {
	return string(s)
}
