package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"athena-gateway/internal/athena"
	"athena-gateway/internal/middleware"
	"athena-gateway/internal/model"
	"athena-gateway/internal/security"
	"athena-gateway/internal/utils"
)

// QueryService orchestrates the execution lifecycle of ad-hoc and template
// queries: validate, submit, poll to terminal state, normalize results.
type QueryService interface {
	ExecuteQuery(ctx context.Context, req *model.QueryRequest) (*model.QueryOutcome, error)
	ExecuteTemplate(ctx context.Context, queryType string, req *model.QueryRequest) (*model.QueryOutcome, error)
	ExecuteBatch(ctx context.Context, req *model.BatchQueryRequest) (*model.BatchOutcome, error)
}

// Defaults are the process-wide fallbacks substituted into requests that do
// not set their own values.
type Defaults struct {
	Database       string
	OutputLocation string
	MaxWaitTime    int // seconds
	MaxRows        int
}

type queryService struct {
	engine       athena.Engine
	poller       *athena.Poller
	normalizer   *athena.Normalizer
	sqlValidator *security.SQLValidator
	catalog      *TemplateCatalog
	defaults     Defaults
}

// NewQueryService creates a new instance of QueryService. The engine, poller
// and normalizer are injected so tests can substitute fakes.
func NewQueryService(engine athena.Engine, poller *athena.Poller, normalizer *athena.Normalizer, catalog *TemplateCatalog, defaults Defaults) QueryService {
	if defaults.MaxRows <= 0 {
		defaults.MaxRows = athena.DefaultMaxRows
	}
	return &queryService{
		engine:       engine,
		poller:       poller,
		normalizer:   normalizer,
		sqlValidator: security.NewSQLValidator(),
		catalog:      catalog,
		defaults:     defaults,
	}
}

// ExecuteQuery runs one ad-hoc query to completion. Any stage's failure
// short-circuits the remaining stages; no stage is retried here beyond the
// poller's internal backoff.
func (qs *queryService) ExecuteQuery(ctx context.Context, req *model.QueryRequest) (*model.QueryOutcome, error) {
	outcome, err := qs.execute(ctx, "custom", req)
	if err != nil {
		return nil, err
	}

	outcome.Message = "Custom query executed successfully"
	outcome.Query = truncateQuery(req.Query, 500)
	return outcome, nil
}

// ExecuteTemplate runs a predefined query selected by catalog name.
func (qs *queryService) ExecuteTemplate(ctx context.Context, queryType string, req *model.QueryRequest) (*model.QueryOutcome, error) {
	queryText, ok := qs.catalog.Lookup(queryType)
	if !ok {
		return nil, utils.NewErrorBuilder(utils.ErrCodeNotFound).
			WithMessage(fmt.Sprintf("unknown query type: %s", queryType)).
			Build()
	}

	templateReq := *req
	templateReq.Query = queryText

	outcome, err := qs.execute(ctx, queryType, &templateReq)
	if err != nil {
		return nil, err
	}

	outcome.Message = fmt.Sprintf("Query type %q executed successfully", queryType)
	outcome.QueryType = queryType
	return outcome, nil
}

// ExecuteBatch runs each sub-query independently and concurrently. Results
// keep the original request ordering; a failed item is captured in place and
// never aborts the remaining items.
func (qs *queryService) ExecuteBatch(ctx context.Context, req *model.BatchQueryRequest) (*model.BatchOutcome, error) {
	results := make([]model.BatchItemResult, len(req.Queries))

	var wg sync.WaitGroup
	for i, item := range req.Queries {
		wg.Add(1)
		go func(index int, item model.BatchQueryItem) {
			defer wg.Done()
			results[index] = qs.runBatchItem(ctx, index, item, req.MaxWaitTime)
		}(i, item)
	}
	wg.Wait()

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	return &model.BatchOutcome{
		Message:           fmt.Sprintf("Batch query completed with %d/%d successful", successful, len(results)),
		Results:           results,
		TotalQueries:      len(results),
		SuccessfulQueries: successful,
	}, nil
}

func (qs *queryService) runBatchItem(ctx context.Context, index int, item model.BatchQueryItem, maxWaitTime int) model.BatchItemResult {
	result := model.BatchItemResult{Index: index + 1}

	req := &model.QueryRequest{MaxWaitTime: maxWaitTime}

	var outcome *model.QueryOutcome
	var err error
	switch {
	case item.Type != "":
		outcome, err = qs.ExecuteTemplate(ctx, item.Type, req)
	case item.Query != "":
		req.Query = item.Query
		outcome, err = qs.ExecuteQuery(ctx, req)
	default:
		err = utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).
			WithMessage(fmt.Sprintf("query %d missing type or query", index+1)).
			Build()
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Result = outcome
	return result
}

// execute is the shared validate → submit → poll → normalize pipeline.
func (qs *queryService) execute(ctx context.Context, queryType string, req *model.QueryRequest) (*model.QueryOutcome, error) {
	req.ApplyDefaults(qs.defaults.MaxWaitTime, qs.defaults.OutputLocation, qs.defaults.MaxRows)

	if req.MaxWaitTime < 1 || req.MaxWaitTime > 900 {
		return nil, utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).
			WithMessage(fmt.Sprintf("maxWaitTime must be between 1 and 900 seconds, got %d", req.MaxWaitTime)).
			Build()
	}

	if err := qs.sqlValidator.Validate(req.Query); err != nil {
		return nil, classifyValidationError(err)
	}

	startTime := time.Now()

	executionID, err := qs.engine.StartQuery(ctx, req.Query, qs.defaults.Database, req.OutputLocation)
	if err != nil {
		qs.recordMetrics(queryType, "error", startTime, nil)
		return nil, fmt.Errorf("failed to start query execution: %w", err)
	}
	log.Printf("Started query execution: %s", executionID)

	status, err := qs.poller.WaitForCompletion(ctx, executionID, time.Duration(req.MaxWaitTime)*time.Second)
	if err != nil {
		qs.recordMetrics(queryType, pollFailureStatus(err), startTime, nil)
		return nil, err
	}

	outcome := &model.QueryOutcome{
		QueryExecutionID:  executionID,
		State:             status.State,
		StateChangeReason: status.StateChangeReason,
		Rows:              []model.ResultRow{},
		Columns:           []model.ColumnInfo{},
		DataScannedBytes:  status.Stats.DataScannedBytes,
		ExecutionMillis:   status.Stats.ExecutionMillis,
		Database:          qs.defaults.Database,
	}

	switch status.State {
	case model.StateSucceeded:
		rows, columns, err := qs.normalizer.Normalize(ctx, executionID, req.MaxRows)
		if err != nil {
			qs.recordMetrics(queryType, "error", startTime, nil)
			return nil, err
		}
		outcome.Rows = rows
		outcome.Columns = columns
		outcome.RowCount = len(rows)

	case model.StateFailed:
		qs.recordMetrics(queryType, "failed", startTime, nil)
		log.Printf("Query failed: %s (%s)", executionID, status.StateChangeReason)
		return nil, utils.NewQueryFailedError(status.StateChangeReason)

	case model.StateCancelled:
		qs.recordMetrics(queryType, "cancelled", startTime, nil)
		log.Printf("Query was cancelled: %s", executionID)
		return nil, utils.NewQueryFailedError("Query was cancelled")
	}

	qs.recordMetrics(queryType, "success", startTime, outcome)
	log.Printf("Query completed successfully: %s (%d rows)", executionID, outcome.RowCount)
	return outcome, nil
}

func (qs *queryService) recordMetrics(queryType, status string, startTime time.Time, outcome *model.QueryOutcome) {
	var rows int64
	var bytesScanned int64
	if outcome != nil {
		rows = int64(outcome.RowCount)
		bytesScanned = outcome.DataScannedBytes
	}
	middleware.RecordQueryMetrics(queryType, status, time.Since(startTime), rows, bytesScanned)
}

// pollFailureStatus picks the metric label for a failed wait: deadline expiry
// is "timeout", everything else (engine errors surfaced through a status
// fetch, context cancellation) is "error".
func pollFailureStatus(err error) string {
	if utils.IsErrorType(err, utils.ErrCodeQueryTimeout) {
		return "timeout"
	}
	return "error"
}

// classifyValidationError wraps validator failures into the error taxonomy
// so the top-level handler maps them to 400.
func classifyValidationError(err error) *utils.AppError {
	var denied *security.DeniedPatternError
	if errors.As(err, &denied) {
		return utils.NewValidationError(denied.Error(), "")
	}
	return utils.NewValidationError(err.Error(), "")
}

func truncateQuery(query string, max int) string {
	if len(query) > max {
		return query[:max]
	}
	return query
}
