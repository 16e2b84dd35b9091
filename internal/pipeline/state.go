package pipeline

import (
	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/entity"
)

// node identifies a stage in the pipeline state machine. The orchestrator
// loops a transition step over these until nodeDone.
type node int

const (
	nodeExtractText node = iota
	nodeExtractFields
	nodeValidate
	nodeAnomaly
	nodeFail
	nodeDone
)

func (n node) String() string {
	switch n {
	case nodeExtractText:
		return "extract_text"
	case nodeExtractFields:
		return "extract_fields"
	case nodeValidate:
		return "validate"
	case nodeAnomaly:
		return "anomaly"
	case nodeFail:
		return "fail"
	case nodeDone:
		return "done"
	default:
		return "unknown"
	}
}

// Decision is the retry controller's verdict after validation.
type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionRetry   Decision = "retry"
	DecisionFail    Decision = "fail"
)

// Decide routes a validated record: already failed -> fail; clean -> anomaly
// detection; errors with retries left -> another extraction attempt; else
// terminal failure. maxRetries bounds the loop: 1 initial attempt plus at
// most maxRetries re-runs of field extraction.
func Decide(rec entity.InvoiceRecord, maxRetries int) Decision {
	if rec.Status == constants.StatusFailed {
		return DecisionFail
	}
	if len(rec.ValidationErrors) == 0 {
		return DecisionProceed
	}
	if rec.RetryCount < maxRetries {
		return DecisionRetry
	}
	return DecisionFail
}

// prepareRetry readies a record for another extraction attempt: bump the
// counter and clear the previous defects so validation starts fresh.
func prepareRetry(rec entity.InvoiceRecord) entity.InvoiceRecord {
	out := rec.Clone()
	out.RetryCount++
	out.ValidationErrors = []string{}
	return out
}

// markFailed is the terminal failure transition. The final validation errors
// ride along as the failure reason.
func markFailed(rec entity.InvoiceRecord) entity.InvoiceRecord {
	out := rec.Clone()
	out.Status = constants.StatusFailed
	return out
}
