package model

import (
	"time"
)

// ExecutionState is the lifecycle state of one Athena query execution.
// QUEUED and RUNNING are non-terminal; SUCCEEDED, FAILED and CANCELLED are
// terminal and never change once observed.
type ExecutionState string

const (
	StateQueued    ExecutionState = "QUEUED"
	StateRunning   ExecutionState = "RUNNING"
	StateSucceeded ExecutionState = "SUCCEEDED"
	StateFailed    ExecutionState = "FAILED"
	StateCancelled ExecutionState = "CANCELLED"
)

// IsTerminal reports whether no further state transition can occur.
func (s ExecutionState) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// ExecutionStatus is a snapshot of an execution as reported by the engine.
// It is only ever produced by re-querying Athena, never mutated locally.
type ExecutionStatus struct {
	State             ExecutionState `json:"state"`
	StateChangeReason string         `json:"stateChangeReason,omitempty"`
	SubmittedAt       time.Time      `json:"submittedAt,omitempty"`
	CompletedAt       time.Time      `json:"completedAt,omitempty"`
	Stats             ExecutionStats `json:"statistics"`
}

// ExecutionStats carries the engine-reported execution counters.
type ExecutionStats struct {
	DataScannedBytes int64 `json:"dataScannedInBytes"`
	ExecutionMillis  int64 `json:"executionTimeInMillis"`
}

// ColumnInfo describes one column of a result set. Ordinal is the zero-based
// position in the raw result row; column order defines row field order.
type ColumnInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Ordinal int    `json:"ordinal"`
}

// ResultRow maps column names to JSON-safe scalar values (string, number,
// boolean or null).
type ResultRow map[string]interface{}

// QueryRequest represents a single query execution request.
type QueryRequest struct {
	Query          string `json:"query"`
	MaxWaitTime    int    `json:"maxWaitTime" validate:"omitempty,min=1,max=900"` // seconds
	OutputLocation string `json:"outputLocation" validate:"omitempty,startswith=s3://"`
	MaxRows        int    `json:"maxRows" validate:"omitempty,min=1,max=1000"`
}

// ApplyDefaults fills unset fields from process-wide configuration values.
func (qr *QueryRequest) ApplyDefaults(maxWaitTime int, outputLocation string, maxRows int) {
	if qr.MaxWaitTime == 0 {
		qr.MaxWaitTime = maxWaitTime
	}
	if qr.OutputLocation == "" {
		qr.OutputLocation = outputLocation
	}
	if qr.MaxRows == 0 {
		qr.MaxRows = maxRows
	}
}

// QueryOutcome is the unit returned to the caller for one execution: the
// handle, the final status, normalized rows and derived counters. Rows is
// empty whenever State is not SUCCEEDED.
type QueryOutcome struct {
	Message           string         `json:"message"`
	QueryType         string         `json:"queryType,omitempty"`
	Query             string         `json:"query,omitempty"`
	QueryExecutionID  string         `json:"queryExecutionId"`
	State             ExecutionState `json:"state"`
	StateChangeReason string         `json:"stateChangeReason,omitempty"`
	Rows              []ResultRow    `json:"rows"`
	Columns           []ColumnInfo   `json:"columnMetadata"`
	RowCount          int            `json:"rowCount"`
	DataScannedBytes  int64          `json:"dataScannedInBytes"`
	ExecutionMillis   int64          `json:"executionTimeInMillis"`
	Database          string         `json:"database"`
}

// BatchQueryItem is one entry of a batch request. Exactly one of Type
// (template name) or Query (raw SQL) should be set.
type BatchQueryItem struct {
	Type  string `json:"type,omitempty"`
	Query string `json:"query,omitempty"`
}

// BatchQueryRequest represents a batch of independent queries.
type BatchQueryRequest struct {
	Queries     []BatchQueryItem `json:"queries" validate:"required,min=1"`
	MaxWaitTime int              `json:"maxWaitTime" validate:"omitempty,min=1,max=900"`
}

// BatchItemResult is the per-item outcome of a batch execution. Index is
// one-based and follows the request ordering.
type BatchItemResult struct {
	Index   int           `json:"index"`
	Success bool          `json:"success"`
	Result  *QueryOutcome `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// BatchOutcome aggregates the per-item results of a batch. A failed item
// never fails the batch as a whole.
type BatchOutcome struct {
	Message           string            `json:"message"`
	Results           []BatchItemResult `json:"results"`
	TotalQueries      int               `json:"totalQueries"`
	SuccessfulQueries int               `json:"successfulQueries"`
}
