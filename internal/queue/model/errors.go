package model

import "errors"

var (
	// ErrRequestNotFound indicates that no request with the given ID exists.
	ErrRequestNotFound = errors.New("change request not found")
	// ErrMissingRequestID indicates a claimed row without an id.
	ErrMissingRequestID = errors.New("change request has no id")
	// ErrMissingBranchName indicates a claimed row without a branch name.
	ErrMissingBranchName = errors.New("change request has no branch_name")
	// ErrMissingFileName indicates a claimed row without a file name.
	ErrMissingFileName = errors.New("change request has no file_name")
	// ErrInvalidStatus indicates a status value outside the request lifecycle.
	ErrInvalidStatus = errors.New("invalid change request status")
)

// IsTerminalStatus reports whether status is COMPLETED or FAILED.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
