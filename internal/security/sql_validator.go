package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxQueryBytes is the largest query Athena accepts.
const MaxQueryBytes = 262144

var (
	ErrEmptyQuery   = errors.New("query must be a non-empty string")
	ErrQueryTooLong = errors.New("query exceeds maximum length")
)

// DeniedPatternError reports which denylist pattern matched the query.
type DeniedPatternError struct {
	Pattern string
}

func (e *DeniedPatternError) Error() string {
	return fmt.Sprintf("query contains disallowed pattern: %s", e.Pattern)
}

// deniedPatterns is the fixed denylist: statement-chaining comment injection
// plus destructive DDL/DCL verbs. Matching is case-insensitive substring/regex,
// deliberately not a SQL parser.
var deniedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);.*--`),
	regexp.MustCompile(`(?i)DROP\s+DATABASE`),
	regexp.MustCompile(`(?i)DROP\s+TABLE.*CASCADE`),
	regexp.MustCompile(`(?i)TRUNCATE\s+`),
	regexp.MustCompile(`(?i)GRANT\s+`),
	regexp.MustCompile(`(?i)REVOKE\s+`),
	regexp.MustCompile(`(?i)ALTER\s+SYSTEM`),
	regexp.MustCompile(`(?i)CREATE\s+ROLE`),
	regexp.MustCompile(`(?i)EXECUTE\s+AS`),
	regexp.MustCompile(`(?i)EXEC\s+`),
}

// SQLValidator rejects malformed or disallowed query text before submission.
//
// Known limitation: the denylist is a heuristic filter, not a security
// boundary. The engine only runs read-style analytic queries against trusted
// infrastructure; the filter is incomplete by construction and must not be
// relied on for SQL-injection protection.
type SQLValidator struct {
	maxQueryBytes int
}

// NewSQLValidator creates a new SQLValidator instance
func NewSQLValidator() *SQLValidator {
	return &SQLValidator{
		maxQueryBytes: MaxQueryBytes,
	}
}

// Validate checks query text against size limits and the denylist.
// It has no side effects; a non-nil return means the query must not be
// submitted.
func (sv *SQLValidator) Validate(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	if len(trimmed) > sv.maxQueryBytes {
		return fmt.Errorf("%w: query size (%d bytes) exceeds maximum of %d bytes",
			ErrQueryTooLong, len(trimmed), sv.maxQueryBytes)
	}

	for _, pattern := range deniedPatterns {
		if pattern.MatchString(trimmed) {
			return &DeniedPatternError{Pattern: pattern.String()}
		}
	}

	return nil
}
