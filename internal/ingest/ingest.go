// Package ingest feeds invoice documents into the pipeline, either from a
// one-shot directory walk or a filesystem watch.
package ingest

import (
	"context"
	"time"
)

// Job is the smallest useful unit of intake work.
type Job struct {
	SourcePath      string
	IsTaxExempt     bool
	TaxExemptReason string
	SubmittedAt     time.Time
}

// Processor handles one staged document end to end.
type Processor func(ctx context.Context, job Job) error

// Queue accepts jobs for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// DirStats summarizes a directory intake.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}
