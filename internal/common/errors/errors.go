// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/maturity"
	"assessment-workers/internal/assessment/scoring"
	"assessment-workers/internal/assessment/validator"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Assessment domain errors. These are never retried.
const (
	ErrCodeUnknownSector            ErrorCode = "UNKNOWN_SECTOR"
	ErrCodeResponseValidationFailed ErrorCode = "RESPONSE_VALIDATION_FAILED"
	ErrCodeIncompleteDimension      ErrorCode = "INCOMPLETE_DIMENSION"
	ErrCodeInvalidScore             ErrorCode = "INVALID_SCORE"
	ErrCodeNoBenchmarkData          ErrorCode = "NO_BENCHMARK_DATA"
	ErrCodeAssessmentNotFound       ErrorCode = "ASSESSMENT_NOT_FOUND"
	ErrCodeProgressNotFound         ErrorCode = "PROGRESS_NOT_FOUND"
	ErrCodeInvalidInput             ErrorCode = "INVALID_INPUT"
)

// Infrastructure errors.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeProgressStoreFailed ErrorCode = "PROGRESS_STORE_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchIndexFailed             ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowEngineTimeout     ErrorCode = "WORKFLOW_ENGINE_TIMEOUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewUnknownSectorError creates a non-retryable sector error.
func NewUnknownSectorError(err error) *StandardError {
	stdErr := newError(ErrCodeUnknownSector, "Sector is not in the question catalog", err.Error(), false, err)
	var unknown *catalog.UnknownSectorError
	if stderrors.As(err, &unknown) {
		stdErr.Metadata = map[string]interface{}{
			"sector":       unknown.Sector,
			"knownSectors": unknown.Known,
		}
	}
	return stdErr
}

// NewResponseValidationError creates a non-retryable error carrying one
// entry per rejected answer under Metadata["issues"].
func NewResponseValidationError(err error) *StandardError {
	stdErr := newError(ErrCodeResponseValidationFailed, "Assessment responses failed validation", err.Error(), false, err)
	var verr *validator.ValidationError
	if stderrors.As(err, &verr) {
		issues := make([]map[string]interface{}, len(verr.Issues))
		for i, issue := range verr.Issues {
			issues[i] = map[string]interface{}{
				"questionId": issue.QuestionID,
				"reason":     string(issue.Reason),
			}
		}
		stdErr.Metadata = map[string]interface{}{
			"sector": verr.Sector,
			"issues": issues,
		}
	}
	return stdErr
}

func NewIncompleteDimensionError(err error) *StandardError {
	stdErr := newError(ErrCodeIncompleteDimension, "Dimension is missing required answers", err.Error(), false, err)
	var incomplete *scoring.IncompleteDimensionError
	if stderrors.As(err, &incomplete) {
		stdErr.Metadata = map[string]interface{}{
			"dimension": incomplete.Dimension,
			"missing":   incomplete.Missing,
		}
	}
	return stdErr
}

func NewInvalidScoreError(err error) *StandardError {
	return newError(ErrCodeInvalidScore, "Score is outside the valid range", err.Error(), false, err)
}

func NewNoBenchmarkDataError(err error) *StandardError {
	return newError(ErrCodeNoBenchmarkData, "No benchmark reference for sector", err.Error(), false, err)
}

// NewAssessmentNotFoundError creates a non-retryable lookup error.
func NewAssessmentNotFoundError(assessmentID string) *StandardError {
	return newError(ErrCodeAssessmentNotFound, "Assessment not found",
		fmt.Sprintf("assessmentId: %s", assessmentID), false, nil)
}

func NewProgressNotFoundError(assessmentID string) *StandardError {
	return newError(ErrCodeProgressNotFound, "No saved responses for assessment",
		fmt.Sprintf("assessmentId: %s", assessmentID), false, nil)
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input is invalid", details, false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true, nil)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true, err)
}

// NewProgressStoreFailedError creates a retryable cache error.
func NewProgressStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeProgressStoreFailed, "Progress store operation failed",
		fmt.Sprintf("operation: %s, error: %s", op, err.Error()), true, err)
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true, err)
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Elasticsearch indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true, err)
}

// NewWorkflowEngineError wraps a Zeebe gateway failure.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowEngineUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewWorkflowEngineTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowEngineTimeout, "Workflow engine request timed out",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in
// the assessment BPMN processes. They are currently identical.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnknownSector:                 "UNKNOWN_SECTOR",
	ErrCodeResponseValidationFailed:      "RESPONSE_VALIDATION_FAILED",
	ErrCodeIncompleteDimension:           "INCOMPLETE_DIMENSION",
	ErrCodeInvalidScore:                  "INVALID_SCORE",
	ErrCodeNoBenchmarkData:               "NO_BENCHMARK_DATA",
	ErrCodeAssessmentNotFound:            "ASSESSMENT_NOT_FOUND",
	ErrCodeProgressNotFound:              "PROGRESS_NOT_FOUND",
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeProgressStoreFailed:           "PROGRESS_STORE_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchIndexFailed:             "SEARCH_INDEX_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeWorkflowEngineUnavailable:     "WORKFLOW_ENGINE_UNAVAILABLE",
	ErrCodeWorkflowEngineTimeout:         "WORKFLOW_ENGINE_TIMEOUT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeProgressStoreFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout, ErrCodeWorkflowEngineTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Metadata is carried over as error variables.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// FromAssessment maps scoring-engine errors onto StandardErrors. Errors that
// already are StandardErrors pass through; anything else is INTERNAL_ERROR.
func FromAssessment(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	switch {
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, catalog.ErrUnknownSector):
		return NewUnknownSectorError(err)
	case stderrors.Is(err, validator.ErrValidation):
		return NewResponseValidationError(err)
	case stderrors.Is(err, scoring.ErrIncompleteDimension):
		return NewIncompleteDimensionError(err)
	case stderrors.Is(err, maturity.ErrInvalidScore):
		return NewInvalidScoreError(err)
	case stderrors.Is(err, benchmark.ErrNoBenchmarkData):
		return NewNoBenchmarkDataError(err)
	default:
		return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SECTOR") || strings.Contains(codeStr, "BENCHMARK") ||
		strings.Contains(codeStr, "DIMENSION") || strings.Contains(codeStr, "SCORE") ||
		strings.Contains(codeStr, "ASSESSMENT"):
		return "ASSESSMENT"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "PROGRESS"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
