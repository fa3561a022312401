package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/alchemorsel/pantrychef/internal/ports/outbound"
)

// ErrorLogRepository implements outbound.ErrorLogRepository using GORM
type ErrorLogRepository struct {
	db *gorm.DB
}

// NewErrorLogRepository creates a new error log repository
func NewErrorLogRepository(db *gorm.DB) *ErrorLogRepository {
	return &ErrorLogRepository{db: db}
}

var _ outbound.ErrorLogRepository = (*ErrorLogRepository)(nil)

// Append inserts a log entry
func (r *ErrorLogRepository) Append(ctx context.Context, entry outbound.ErrorLogEntry) error {
	return r.db.WithContext(ctx).Create(ErrorLogToModel(entry)).Error
}

// Recent returns the newest entries first
func (r *ErrorLogRepository) Recent(ctx context.Context, limit int) ([]outbound.ErrorLogEntry, error) {
	var models []ErrorLogModel
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]outbound.ErrorLogEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, outbound.ErrorLogEntry{
			Type:      m.Type,
			Message:   m.Message,
			RequestID: m.RequestID,
			CreatedAt: m.CreatedAt,
		})
	}
	return entries, nil
}
