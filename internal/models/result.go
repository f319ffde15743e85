package models

// ResultKind classifies the outcome of an engine or sync operation.
type ResultKind string

// Result kinds.
const (
	ResultKindAdded           ResultKind = "ADDED"
	ResultKindReactivated     ResultKind = "REACTIVATED"
	ResultKindRemoved         ResultKind = "REMOVED"
	ResultKindReserved        ResultKind = "RESERVED"
	ResultKindCancelled       ResultKind = "CANCELLED"
	ResultKindInitialized     ResultKind = "INITIALIZED"
	ResultKindSkipped         ResultKind = "SKIPPED"
	ResultKindReset           ResultKind = "RESET"
	ResultKindRejected        ResultKind = "REJECTED"
	ResultKindUpstreamFailure ResultKind = "UPSTREAM_FAILURE"
)

// Result is the (success, message) outcome returned to presentation layers.
type Result struct {
	Success bool       `json:"success"`
	Kind    ResultKind `json:"kind"`
	Message string     `json:"message"`
}

// Succeeded builds a successful result.
func Succeeded(kind ResultKind, message string) *Result {
	return &Result{Success: true, Kind: kind, Message: message}
}

// Rejected builds a business-rule rejection.
func Rejected(message string) *Result {
	return &Result{Success: false, Kind: ResultKindRejected, Message: message}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
