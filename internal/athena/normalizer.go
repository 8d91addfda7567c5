package athena

import (
	"context"
	"fmt"
	"strings"
	"time"

	"athena-gateway/internal/model"
)

// DefaultMaxRows is the default and hard upper bound for a single result
// page; the engine caps one fetch at 1000 rows.
const DefaultMaxRows = 1000

// Normalizer turns the raw result page of a succeeded execution into
// JSON-safe row maps keyed by column name.
type Normalizer struct {
	engine Engine
}

// NewNormalizer creates a normalizer over the given engine.
func NewNormalizer(engine Engine) *Normalizer {
	return &Normalizer{engine: engine}
}

// Normalize fetches one page of results for a SUCCEEDED execution and maps
// positional values to column names. The engine returns the header as the
// first data row; it is discarded. A row shorter than the column list is
// filled with trailing nulls rather than rejected.
func (n *Normalizer) Normalize(ctx context.Context, executionID string, maxRows int) ([]model.ResultRow, []model.ColumnInfo, error) {
	if maxRows <= 0 || maxRows > DefaultMaxRows {
		maxRows = DefaultMaxRows
	}

	page, err := n.engine.FetchResults(ctx, executionID, int32(maxRows))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch query results: %w", err)
	}

	rows := page.Rows
	if len(rows) > 0 {
		rows = rows[1:] // header row
	}

	normalized := make([]model.ResultRow, 0, len(rows))
	for _, raw := range rows {
		row := make(model.ResultRow, len(page.Columns))
		for _, col := range page.Columns {
			if col.Ordinal < len(raw) {
				row[col.Name] = coerceValue(raw[col.Ordinal])
			} else {
				row[col.Name] = nil
			}
		}
		normalized = append(normalized, row)
	}

	return normalized, page.Columns, nil
}

// coerceValue maps a raw value onto a JSON-safe scalar: null and
// boolean/numeric values pass through, strings are trimmed of surrounding
// whitespace (empty string preserved), timestamps and anything else become
// their canonical textual form.
func coerceValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v
	case float32, float64:
		return v
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
