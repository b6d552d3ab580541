// ABOUTME: BackupJob ledger types for backup and restore operations.
// ABOUTME: Jobs are append-only records; terminal states are immutable.

package backup

import (
	"errors"
	"time"
)

// ErrBackupNotFound is returned when a restore targets a file that does
// not exist.
var ErrBackupNotFound = errors.New("backup file not found")

// Operation identifies the direction of a job.
type Operation string

const (
	OpBackup  Operation = "backup"
	OpRestore Operation = "restore"
)

// Status is a job lifecycle state. Jobs are recorded only once they
// reach a terminal state, so Pending, InProgress and Cancelled exist
// for completeness but never appear in the ledger today.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Metadata describes the snapshot file format.
type Metadata struct {
	Version     int    `json:"version"`
	AppVersion  string `json:"app_version"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description,omitempty"`
	Compression string `json:"compression,omitempty"`
	Encryption  string `json:"encryption,omitempty"`
}

// Job is one ledger record of a backup or restore attempt.
type Job struct {
	ID            string
	Operation     Operation
	Status        Status
	FilePath      string
	FileSizeBytes int64
	ItemsCount    int
	StartTime     time.Time
	EndTime       time.Time
	ErrorMessage  string
	Metadata      Metadata
}

// Failed reports whether the job ended in failure.
func (j *Job) Failed() bool {
	return j.Status == StatusFailed
}

// Duration is the wall-clock time the job took.
func (j *Job) Duration() time.Duration {
	if j.EndTime.IsZero() {
		return 0
	}
	return j.EndTime.Sub(j.StartTime)
}
