package data

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	pkgerrors "KosBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// ChangeStatus represents the database ENUM type for change request status.
type ChangeStatus string

// Change request status constants covering the full lifecycle of a
// product change: accepted, deferred for retry, and terminal states.
const (
	ChangeStatusRequested ChangeStatus = "REQUESTED"
	ChangeStatusQueued    ChangeStatus = "QUEUED"
	ChangeStatusRetrying  ChangeStatus = "RETRYING"
	ChangeStatusCompleted ChangeStatus = "COMPLETED"
	ChangeStatusFailed    ChangeStatus = "FAILED"
)

// ChangeRecord is the GORM model for the product_change_requests table.
type ChangeRecord struct {
	ID            int64        `gorm:"primaryKey;column:id"`
	RequestID     string       `gorm:"column:request_id;size:64;uniqueIndex;not null"`
	PhoneNumber   string       `gorm:"column:phone_number;size:20;index;not null"`
	ProductCode   string       `gorm:"column:product_code;size:32;not null"`
	ChangeReason  string       `gorm:"column:change_reason;size:255"`
	Status        ChangeStatus `gorm:"column:status;type:enum('REQUESTED','QUEUED','RETRYING','COMPLETED','FAILED');default:'REQUESTED';index;not null"`
	Attempts      int          `gorm:"column:attempts;default:0;not null"`
	TransactionID string       `gorm:"column:transaction_id;size:64"`
	LastError     string       `gorm:"column:last_error;size:512"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (ChangeRecord) TableName() string {
	return "product_change_requests"
}

// Scan implements sql.Scanner interface for ChangeStatus.
func (s *ChangeStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = ChangeStatus(v)
	case string:
		*s = ChangeStatus(v)
	default:
		return fmt.Errorf("cannot scan type %T into ChangeStatus", value)
	}
	return nil
}

// Value implements driver.Valuer interface for ChangeStatus.
func (s ChangeStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// IsTerminal reports whether the status admits no further transitions.
func (s ChangeStatus) IsTerminal() bool {
	return s == ChangeStatusCompleted || s == ChangeStatusFailed
}

// ChangeRequestRepo implements biz.ChangeRequestRepo interface.
// Following Kratos v2 DDD architecture, interface is defined in biz layer.
type ChangeRequestRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewChangeRequestRepo creates a new change request repository.
func NewChangeRequestRepo(db *gorm.DB, logger log.Logger) *ChangeRequestRepo {
	return &ChangeRequestRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// Create persists a new change record.
// Returns a wrapped duplicate key error when the request ID already exists.
func (r *ChangeRequestRepo) Create(ctx context.Context, rec *ChangeRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		classified := pkgerrors.ClassifyDBError(err)
		if pkgerrors.IsDuplicateKey(classified) {
			return fmt.Errorf("change request %s already exists: %w", rec.RequestID, classified)
		}
		return fmt.Errorf("failed to create change request: %w", classified)
	}

	r.logger.Debugw("msg", "change request created",
		"request_id", rec.RequestID,
		"status", rec.Status)
	return nil
}

// FindByRequestID loads a change record by its request ID.
func (r *ChangeRequestRepo) FindByRequestID(ctx context.Context, requestID string) (*ChangeRecord, error) {
	var rec ChangeRecord
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		return nil, fmt.Errorf("failed to find change request %s: %w", requestID, err)
	}
	return &rec, nil
}

// FindRetryable returns change records waiting to be retried, oldest first.
func (r *ChangeRequestRepo) FindRetryable(ctx context.Context, limit int) ([]*ChangeRecord, error) {
	var recs []*ChangeRecord
	err := r.db.WithContext(ctx).
		Where("status IN ?", []ChangeStatus{ChangeStatusQueued, ChangeStatusRetrying}).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable change requests: %w", err)
	}
	return recs, nil
}

// ClaimForRetry atomically moves a record from QUEUED/RETRYING to RETRYING
// and bumps the attempt counter. Returns false when another worker already
// claimed the record or it reached a terminal state.
func (r *ChangeRequestRepo) ClaimForRetry(ctx context.Context, id int64, attempts int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&ChangeRecord{}).
		Where("id = ? AND attempts = ? AND status IN ?", id, attempts,
			[]ChangeStatus{ChangeStatusQueued, ChangeStatusRetrying}).
		Updates(map[string]interface{}{
			"status":   ChangeStatusRetrying,
			"attempts": attempts + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim change request %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkCompleted transitions a record to COMPLETED with the upstream
// transaction ID.
func (r *ChangeRequestRepo) MarkCompleted(ctx context.Context, id int64, transactionID string) error {
	res := r.db.WithContext(ctx).
		Model(&ChangeRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         ChangeStatusCompleted,
			"transaction_id": transactionID,
			"last_error":     "",
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark change request %d completed: %w", id, res.Error)
	}
	return nil
}

// MarkQueued transitions a record to QUEUED, recording the failure that
// deferred it.
func (r *ChangeRequestRepo) MarkQueued(ctx context.Context, id int64, lastError string) error {
	res := r.db.WithContext(ctx).
		Model(&ChangeRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     ChangeStatusQueued,
			"last_error": truncateError(lastError),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark change request %d queued: %w", id, res.Error)
	}
	return nil
}

// MarkFailed transitions a record to FAILED. Terminal state.
func (r *ChangeRequestRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	res := r.db.WithContext(ctx).
		Model(&ChangeRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     ChangeStatusFailed,
			"last_error": truncateError(lastError),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark change request %d failed: %w", id, res.Error)
	}
	return nil
}

// CountPending returns the number of records waiting for retry.
func (r *ChangeRequestRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ChangeRecord{}).
		Where("status IN ?", []ChangeStatus{ChangeStatusQueued, ChangeStatusRetrying}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending change requests: %w", err)
	}
	return count, nil
}

// truncateError bounds error messages to the column size.
func truncateError(msg string) string {
	const maxLen = 512
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
