package athena

import (
	"context"
	"errors"
	"testing"
	"time"

	"athena-gateway/internal/model"
	"athena-gateway/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/smithy-go"
)

type fakeAthenaAPI struct {
	startInput *awsathena.StartQueryExecutionInput
	startOut   *awsathena.StartQueryExecutionOutput
	execOut    *awsathena.GetQueryExecutionOutput
	resultsOut *awsathena.GetQueryResultsOutput
	startErr   error
	execErr    error
	resultsErr error
}

func (f *fakeAthenaAPI) StartQueryExecution(ctx context.Context, params *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {
	f.startInput = params
	return f.startOut, f.startErr
}

func (f *fakeAthenaAPI) GetQueryExecution(ctx context.Context, params *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {
	return f.execOut, f.execErr
}

func (f *fakeAthenaAPI) GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {
	return f.resultsOut, f.resultsErr
}

func TestStartQueryBuildsInput(t *testing.T) {
	api := &fakeAthenaAPI{startOut: &awsathena.StartQueryExecutionOutput{
		QueryExecutionId: aws.String("exec-1"),
	}}
	client := NewClientWithAPI(api, "primary")

	id, err := client.StartQuery(context.Background(), "SELECT 1", "student_lake", "s3://results-bucket/athena-results/")
	if err != nil {
		t.Fatalf("StartQuery failed: %v", err)
	}
	if id != "exec-1" {
		t.Errorf("Expected execution id exec-1, got %s", id)
	}

	in := api.startInput
	if aws.ToString(in.QueryString) != "SELECT 1" {
		t.Errorf("Unexpected query string: %s", aws.ToString(in.QueryString))
	}
	if aws.ToString(in.QueryExecutionContext.Database) != "student_lake" {
		t.Errorf("Unexpected database: %s", aws.ToString(in.QueryExecutionContext.Database))
	}
	if aws.ToString(in.ResultConfiguration.OutputLocation) != "s3://results-bucket/athena-results/" {
		t.Errorf("Unexpected output location: %s", aws.ToString(in.ResultConfiguration.OutputLocation))
	}
	if aws.ToString(in.WorkGroup) != "primary" {
		t.Errorf("Expected workgroup primary, got %s", aws.ToString(in.WorkGroup))
	}
}

func TestStartQueryOmitsEmptyWorkgroup(t *testing.T) {
	api := &fakeAthenaAPI{startOut: &awsathena.StartQueryExecutionOutput{
		QueryExecutionId: aws.String("exec-1"),
	}}
	client := NewClientWithAPI(api, "")

	if _, err := client.StartQuery(context.Background(), "SELECT 1", "db", "s3://b/"); err != nil {
		t.Fatalf("StartQuery failed: %v", err)
	}
	if api.startInput.WorkGroup != nil {
		t.Errorf("Expected no workgroup in input, got %s", aws.ToString(api.startInput.WorkGroup))
	}
}

func TestQueryStatusMapsExecution(t *testing.T) {
	submitted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	api := &fakeAthenaAPI{execOut: &awsathena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			Status: &types.QueryExecutionStatus{
				State:              types.QueryExecutionStateSucceeded,
				StateChangeReason:  aws.String(""),
				SubmissionDateTime: aws.Time(submitted),
			},
			Statistics: &types.QueryExecutionStatistics{
				DataScannedInBytes:         aws.Int64(4096),
				TotalExecutionTimeInMillis: aws.Int64(1500),
			},
		},
	}}
	client := NewClientWithAPI(api, "")

	status, err := client.QueryStatus(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("QueryStatus failed: %v", err)
	}
	if status.State != model.StateSucceeded {
		t.Errorf("Expected SUCCEEDED, got %s", status.State)
	}
	if status.Stats.DataScannedBytes != 4096 {
		t.Errorf("Expected 4096 bytes scanned, got %d", status.Stats.DataScannedBytes)
	}
	if status.Stats.ExecutionMillis != 1500 {
		t.Errorf("Expected 1500ms, got %d", status.Stats.ExecutionMillis)
	}
	if !status.SubmittedAt.Equal(submitted) {
		t.Errorf("Expected submission time %v, got %v", submitted, status.SubmittedAt)
	}
}

func TestFetchResultsMapsPage(t *testing.T) {
	api := &fakeAthenaAPI{resultsOut: &awsathena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			ResultSetMetadata: &types.ResultSetMetadata{
				ColumnInfo: []types.ColumnInfo{
					{Name: aws.String("student_id"), Type: aws.String("varchar")},
					{Name: aws.String(""), Type: nil},
				},
			},
			Rows: []types.Row{
				{Data: []types.Datum{{VarCharValue: aws.String("student_id")}, {VarCharValue: aws.String("col")}}},
				{Data: []types.Datum{{VarCharValue: aws.String("s-100")}, {VarCharValue: nil}}},
			},
		},
	}}
	client := NewClientWithAPI(api, "")

	page, err := client.FetchResults(context.Background(), "exec-1", 100)
	if err != nil {
		t.Fatalf("FetchResults failed: %v", err)
	}
	if len(page.Columns) != 2 {
		t.Fatalf("Expected 2 columns, got %d", len(page.Columns))
	}
	if page.Columns[1].Name != "col_1" {
		t.Errorf("Expected fallback name col_1, got %s", page.Columns[1].Name)
	}
	if page.Columns[1].Type != "unknown" {
		t.Errorf("Expected fallback type unknown, got %s", page.Columns[1].Type)
	}
	if len(page.Rows) != 2 {
		t.Fatalf("Expected 2 raw rows (header included), got %d", len(page.Rows))
	}
	if page.Rows[1][0] != "s-100" {
		t.Errorf("Expected s-100, got %v", page.Rows[1][0])
	}
	if page.Rows[1][1] != nil {
		t.Errorf("Expected nil for missing datum, got %v", page.Rows[1][1])
	}
}

func TestClassifyEngineError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no"}, utils.ErrCodeAccessDenied},
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}, utils.ErrCodeRateLimitExceeded},
		{"too many requests", &smithy.GenericAPIError{Code: "TooManyRequestsException", Message: "slow down"}, utils.ErrCodeRateLimitExceeded},
		{"invalid request", &smithy.GenericAPIError{Code: "InvalidRequestException", Message: "bad"}, utils.ErrCodeValidationFailed},
		{"server fault", &smithy.GenericAPIError{Code: "InternalServerException", Message: "oops", Fault: smithy.FaultServer}, utils.ErrCodeEngineUnavailable},
		{"unknown api error", &smithy.GenericAPIError{Code: "SomethingElse", Message: "?"}, utils.ErrCodeInternalError},
		{"transport failure", errors.New("dial tcp: connection refused"), utils.ErrCodeEngineUnavailable},
	}

	for _, tc := range cases {
		appErr := classifyEngineError(tc.err, "start query execution")
		if appErr.Code != tc.code {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.code, appErr.Code)
		}
	}
}
