package core

import "time"

// ErrorInfo is the caller-facing description of a failed workflow.
type ErrorInfo struct {
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
}

// WorkflowResult is the outcome of every workflow entry point.
// On success Token (create, refresh) or Claims (validate) is set; otherwise Error is set.
type WorkflowResult struct {
	StatusCode int        `json:"statusCode"`
	Token      *Token     `json:"token,omitempty"`
	Claims     *Claims    `json:"claims,omitempty"`
	Error      *ErrorInfo `json:"errorMessage,omitempty"`
}

// OK reports whether the result is a success.
func (r *WorkflowResult) OK() bool {
	return r != nil && r.Error == nil && r.StatusCode == StatusOK
}

// Status codes returned in WorkflowResult.StatusCode.
// They mirror the HTTP semantics without tying the core to net/http.
const (
	StatusOK                 = 200
	StatusForbidden          = 403
	StatusInternalError      = 500
	StatusServiceUnavailable = 503
)

// Failure builds an error result.
func Failure(status int, message string, now time.Time) *WorkflowResult {
	return &WorkflowResult{
		StatusCode: status,
		Error: &ErrorInfo{
			StatusCode: status,
			Timestamp:  now,
			Message:    message,
		},
	}
}
