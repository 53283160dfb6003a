package generation

import "time"

// Source is one distinct input text ever submitted for generation,
// deduplicated by content fingerprint. Append-only.
type Source struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TextHash   string    `gorm:"type:char(64);uniqueIndex;not null" json:"text_hash"`
	Length     int       `gorm:"not null" json:"length"`
	Model      string    `gorm:"type:varchar(128);not null" json:"model"`
	SourceType string    `gorm:"type:varchar(32);not null" json:"source_type"`
	UserID     *uint64   `gorm:"index" json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Source) TableName() string { return "source" }

// Generation records one successful generation call against a Source.
// The accepted counters are bumped later when the user accepts proposals;
// everything else is immutable after creation.
type Generation struct {
	ID                    string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SourceID              string    `gorm:"type:varchar(36);index;not null" json:"source_id"`
	GeneratedCount        int       `gorm:"not null" json:"generated_count"`
	AcceptedEditedCount   int       `gorm:"not null;default:0" json:"accepted_edited_count"`
	AcceptedUneditedCount int       `gorm:"not null;default:0" json:"accepted_unedited_count"`
	UserID                *uint64   `gorm:"index" json:"user_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Generation) TableName() string { return "generations" }

// ErrorLog is the append-only audit trail for failed generation attempts.
type ErrorLog struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SourceID     *string   `gorm:"type:varchar(36);index" json:"source_id,omitempty"`
	ErrorCode    string    `gorm:"type:varchar(32);not null" json:"error_code"`
	ErrorMessage string    `gorm:"type:text;not null" json:"error_message"`
	UserID       *uint64   `gorm:"index" json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ErrorLog) TableName() string { return "generation_errors_log" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an async generation request processed by the worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID    uint64 `gorm:"not null;index:uniq_genjob_idempo,unique,priority:1"`
	InputText string `gorm:"type:text;not null"`
	Model     string `gorm:"type:varchar(128)"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_genjob_idempo,unique,priority:2" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	GenerationID *string `gorm:"type:varchar(36)"`
	Proposals    *string `gorm:"type:text"` // JSON-encoded proposal list

	// Filled when failed
	ErrorCode *string `gorm:"type:varchar(32)"`
	Error     *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "generation_jobs" }
