// Package model defines the change request queue entity.
package model

import (
	"time"
)

// Request status values. PENDING rows are claimable; COMPLETED and FAILED
// are terminal and never re-claimed.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// ChangeRequest represents a queued infrastructure-change request.
// Matches the change_requests table schema.
type ChangeRequest struct {
	ID            string     `gorm:"primaryKey;column:id;type:varchar(255)"                                     json:"id"`
	BranchName    string     `gorm:"column:branch_name;type:varchar(255);not null"                              json:"branch_name"`
	TargetBranch  string     `gorm:"column:target_branch;type:varchar(255);not null"                            json:"target_branch"`
	FileName      string     `gorm:"column:file_name;type:varchar(1024);not null"                               json:"file_name"`
	FileContent   string     `gorm:"column:file_content;type:text;not null"                                     json:"file_content"`
	PRTitle       string     `gorm:"column:pr_title;type:varchar(1024)"                                         json:"pr_title"`
	PRDescription string     `gorm:"column:pr_description;type:text"                                            json:"pr_description"`
	CreatedBy     string     `gorm:"column:created_by;type:varchar(255)"                                        json:"created_by"`
	Priority      int        `gorm:"column:priority;not null;default:0;index:idx_change_requests_priority"      json:"priority"`
	Status        string     `gorm:"column:status;type:varchar(32);not null;index:idx_change_requests_status"   json:"status"`
	ProcessorID   string     `gorm:"column:processor_id;type:varchar(255)"                                      json:"processor_id,omitempty"`
	BranchURL     string     `gorm:"column:branch_url;type:varchar(1024)"                                       json:"branch_url,omitempty"`
	PRURL         string     `gorm:"column:pr_url;type:varchar(1024)"                                           json:"pr_url,omitempty"`
	PRNumber      int        `gorm:"column:pr_number"                                                           json:"pr_number,omitempty"`
	ErrorMessage  string     `gorm:"column:error_message;type:text"                                             json:"error_message,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"                  json:"created_at"`
	ClaimedAt     *time.Time `gorm:"column:claimed_at;type:timestamptz"                                         json:"claimed_at,omitempty"`
	ProcessedAt   *time.Time `gorm:"column:processed_at;type:timestamptz"                                       json:"processed_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (ChangeRequest) TableName() string {
	return "change_requests"
}

// Validate checks that a claimed request carries everything the pipeline
// needs to act on it. A claimed row failing this check is treated as a
// queue-boundary fault, not skipped. TargetBranch may be empty; the worker
// falls back to its configured base branch.
func (r *ChangeRequest) Validate() error {
	if r.ID == "" {
		return ErrMissingRequestID
	}
	if r.BranchName == "" {
		return ErrMissingBranchName
	}
	if r.FileName == "" {
		return ErrMissingFileName
	}
	return nil
}

// Result carries the outcome metadata written back with a terminal status.
type Result struct {
	BranchURL    string
	PRURL        string
	PRNumber     int
	ErrorMessage string
	ProcessorID  string
}
