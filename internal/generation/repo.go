package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fingerprint is the deterministic content hash used to deduplicate Source
// rows. Cryptographic only for collision resistance, not security.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// EnsureSource returns the existing Source row for src.TextHash, or creates
// one. Check-then-insert: concurrent identical submissions can race, which is
// an accepted gap given single-writer-per-request semantics.
func (r *Repo) EnsureSource(ctx context.Context, src *Source) (*Source, error) {
	var existing Source
	err := r.db.WithContext(ctx).Where("text_hash = ?", src.TextHash).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

func (r *Repo) CreateGeneration(ctx context.Context, gen *Generation) error {
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(gen).Error
}

func (r *Repo) AppendErrorLog(ctx context.Context, entry *ErrorLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// IncrementAccepted bumps the acceptance counter on a Generation when a user
// keeps a proposal, edited or as-is.
func (r *Repo) IncrementAccepted(ctx context.Context, generationID string, edited bool) error {
	col := "accepted_unedited_count"
	if edited {
		col = "accepted_edited_count"
	}
	return r.db.WithContext(ctx).Model(&Generation{}).
		Where("id = ?", generationID).
		UpdateColumn(col, gorm.Expr(col+" + 1")).Error
}

// Job CRUD

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) GetJobByUserAndIdempotencyKey(ctx context.Context, userID uint64, key string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&j).Error
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJobOrGetExisting tries to create a job, but if (user_id,
// idempotency_key) already exists it returns the existing job instead.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByUserAndIdempotencyKey(ctx, job.UserID, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}

func (r *Repo) MarkJobRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id, generationID, proposalsJSON string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        JobSucceeded,
			"generation_id": generationID,
			"proposals":     proposalsJSON,
			"error_code":    nil,
			"error":         nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id, code, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        JobFailed,
			"error_code":    code,
			"error":         errMsg,
			"generation_id": nil,
			"proposals":     nil,
		}).Error
}
