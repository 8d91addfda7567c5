package athena

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"athena-gateway/internal/model"
	"athena-gateway/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/smithy-go"
)

// Engine is the narrow interface the gateway needs from the external query
// engine: one non-idempotent submit plus handle-scoped idempotent reads.
// It exists so the poller, normalizer and orchestrator can be tested against
// a fake.
type Engine interface {
	// StartQuery submits a query exactly once and returns the opaque
	// execution handle. Errors propagate unretried: duplicate submissions
	// would be billed and duplicated.
	StartQuery(ctx context.Context, query, database, outputLocation string) (string, error)

	// QueryStatus fetches the current execution status by handle.
	QueryStatus(ctx context.Context, executionID string) (*model.ExecutionStatus, error)

	// FetchResults retrieves a single page of raw results, header row
	// included, capped at maxRows.
	FetchResults(ctx context.Context, executionID string, maxRows int32) (*ResultPage, error)
}

// ResultPage is one raw page of tabular output as returned by the engine.
// Rows are positional; the first row is the engine-produced header.
type ResultPage struct {
	Columns []model.ColumnInfo
	Rows    [][]interface{}
}

// athenaAPI is the subset of the AWS SDK client used by Client.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, params *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error)
}

// Client implements Engine on top of the Amazon Athena API.
type Client struct {
	api       athenaAPI
	workgroup string
}

// NewClient creates an Engine backed by the given AWS config.
func NewClient(cfg aws.Config, workgroup string) *Client {
	return &Client{
		api:       awsathena.NewFromConfig(cfg),
		workgroup: workgroup,
	}
}

// NewClientWithAPI creates a Client over an explicit API implementation.
func NewClientWithAPI(api athenaAPI, workgroup string) *Client {
	return &Client{api: api, workgroup: workgroup}
}

// StartQuery submits the query for execution.
func (c *Client) StartQuery(ctx context.Context, query, database, outputLocation string) (string, error) {
	input := &awsathena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(outputLocation),
		},
	}
	if c.workgroup != "" {
		input.WorkGroup = aws.String(c.workgroup)
	}

	out, err := c.api.StartQueryExecution(ctx, input)
	if err != nil {
		return "", classifyEngineError(err, "start query execution")
	}

	return aws.ToString(out.QueryExecutionId), nil
}

// QueryStatus fetches the execution status for one handle.
func (c *Client) QueryStatus(ctx context.Context, executionID string) (*model.ExecutionStatus, error) {
	out, err := c.api.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return nil, classifyEngineError(err, "get query execution")
	}

	execution := out.QueryExecution
	if execution == nil || execution.Status == nil {
		return nil, utils.NewErrorBuilder(utils.ErrCodeEngineUnavailable).
			WithMessage("engine returned an empty execution status").
			Build()
	}

	status := &model.ExecutionStatus{
		State:             model.ExecutionState(execution.Status.State),
		StateChangeReason: aws.ToString(execution.Status.StateChangeReason),
		SubmittedAt:       aws.ToTime(execution.Status.SubmissionDateTime),
		CompletedAt:       aws.ToTime(execution.Status.CompletionDateTime),
	}
	if stats := execution.Statistics; stats != nil {
		status.Stats = model.ExecutionStats{
			DataScannedBytes: aws.ToInt64(stats.DataScannedInBytes),
			ExecutionMillis:  aws.ToInt64(stats.TotalExecutionTimeInMillis),
		}
	}

	return status, nil
}

// FetchResults retrieves one page of raw results for a completed execution.
func (c *Client) FetchResults(ctx context.Context, executionID string, maxRows int32) (*ResultPage, error) {
	out, err := c.api.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
		QueryExecutionId: aws.String(executionID),
		MaxResults:       aws.Int32(maxRows),
	})
	if err != nil {
		return nil, classifyEngineError(err, "get query results")
	}

	page := &ResultPage{}
	if out.ResultSet == nil {
		return page, nil
	}

	if meta := out.ResultSet.ResultSetMetadata; meta != nil {
		page.Columns = make([]model.ColumnInfo, 0, len(meta.ColumnInfo))
		for i, col := range meta.ColumnInfo {
			name := aws.ToString(col.Name)
			if name == "" {
				name = fmt.Sprintf("col_%d", i)
			}
			colType := aws.ToString(col.Type)
			if colType == "" {
				colType = "unknown"
			}
			page.Columns = append(page.Columns, model.ColumnInfo{
				Name:    name,
				Type:    colType,
				Ordinal: i,
			})
		}
	}

	page.Rows = make([][]interface{}, 0, len(out.ResultSet.Rows))
	for _, row := range out.ResultSet.Rows {
		values := make([]interface{}, 0, len(row.Data))
		for _, datum := range row.Data {
			if datum.VarCharValue == nil {
				values = append(values, nil)
			} else {
				values = append(values, *datum.VarCharValue)
			}
		}
		page.Rows = append(page.Rows, values)
	}

	return page, nil
}

// classifyEngineError maps AWS API failures onto the gateway error taxonomy
// once, at the engine boundary. The classification is preserved up to the
// top-level handler.
func classifyEngineError(err error, op string) *utils.AppError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case strings.Contains(code, "AccessDenied"):
			return utils.NewErrorBuilder(utils.ErrCodeAccessDenied).
				WithDetails(apiErr.ErrorMessage()).
				WithCause(err).
				Build()
		case code == "ThrottlingException" || code == "TooManyRequestsException":
			return utils.NewErrorBuilder(utils.ErrCodeRateLimitExceeded).
				WithDetails(apiErr.ErrorMessage()).
				WithCause(err).
				Build()
		case code == "InvalidRequestException":
			return utils.NewErrorBuilder(utils.ErrCodeValidationFailed).
				WithMessage(fmt.Sprintf("engine rejected %s", op)).
				WithDetails(apiErr.ErrorMessage()).
				WithCause(err).
				Build()
		case apiErr.ErrorFault() == smithy.FaultServer:
			return utils.NewErrorBuilder(utils.ErrCodeEngineUnavailable).
				WithDetails(apiErr.ErrorMessage()).
				WithCause(err).
				Build()
		default:
			return utils.NewInternalError(fmt.Errorf("%s: %w", op, err))
		}
	}

	// Transport-level failure, no engine response at all.
	return utils.NewErrorBuilder(utils.ErrCodeEngineUnavailable).
		WithMessage("query engine unreachable").
		WithDetails(fmt.Sprintf("%s: %v", op, err)).
		WithCause(err).
		Build()
}
