package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamoski/relaydeck/internal/models"
)

// RecordStore persists upload records and the reconciliation outbox.
type RecordStore interface {
	Insert(ctx context.Context, record *models.UploadRecord) error
	ListRecent(ctx context.Context, ownerUserID string, limit int) ([]models.UploadRecord, error)
	EnqueueOutbox(ctx context.Context, record *models.UploadRecord, cause error) error
}

// UploadStore is the gorm-backed RecordStore over user_uploads and
// upload_outbox.
type UploadStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUploadStore(db *gorm.DB, logger *zap.Logger) *UploadStore {
	return &UploadStore{
		db:     db,
		logger: logger,
	}
}

func (s *UploadStore) Insert(ctx context.Context, record *models.UploadRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	return nil
}

func (s *UploadStore) ListRecent(ctx context.Context, ownerUserID string, limit int) ([]models.UploadRecord, error) {
	var records []models.UploadRecord
	err := s.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return records, nil
}

// EnqueueOutbox parks a record whose user_uploads insert failed after the
// relay already accepted the payload. Best effort: if even this write fails
// the inconsistency is only logged.
func (s *UploadStore) EnqueueOutbox(ctx context.Context, record *models.UploadRecord, cause error) error {
	entry := &models.UploadOutbox{
		ID:           uuid.NewString(),
		RecordID:     record.ID,
		OwnerUserID:  record.OwnerUserID,
		Filename:     record.Filename,
		Platforms:    record.Platforms,
		Notes:        record.Notes,
		CaptionIdeas: record.CaptionIdeas,
		UploadedAt:   record.UploadedAt,
		LastError:    cause.Error(),
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.logger.Error("Failed to enqueue upload into outbox",
			zap.String("record_id", record.ID),
			zap.Error(err))
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}

	s.logger.Warn("Upload record parked in outbox",
		zap.String("record_id", record.ID),
		zap.String("cause", cause.Error()))
	return nil
}

// FlushOutbox retries the user_uploads insert for every parked entry and
// removes entries that land. Entries that fail again keep their attempt
// count and last error for inspection.
func (s *UploadStore) FlushOutbox(ctx context.Context) (int, error) {
	var entries []models.UploadOutbox
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		return 0, fmt.Errorf("failed to load outbox entries: %w", err)
	}

	flushed := 0
	for _, entry := range entries {
		record := &models.UploadRecord{
			ID:           entry.RecordID,
			OwnerUserID:  entry.OwnerUserID,
			Filename:     entry.Filename,
			Platforms:    entry.Platforms,
			Notes:        entry.Notes,
			CaptionIdeas: entry.CaptionIdeas,
			Status:       models.UploadStatusPending,
			UploadedAt:   entry.UploadedAt,
		}

		if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
			if isDuplicateRecord(err) {
				// A previous flush inserted the record but failed to remove
				// the outbox entry. The record is already there, so only the
				// cleanup remains.
				s.logger.Info("Outbox entry already landed, removing it",
					zap.String("record_id", entry.RecordID))
				if err := s.db.WithContext(ctx).Delete(&models.UploadOutbox{}, "id = ?", entry.ID).Error; err != nil {
					s.logger.Warn("Failed to remove flushed outbox entry",
						zap.String("outbox_id", entry.ID),
						zap.Error(err))
				}
				flushed++
				continue
			}
			s.db.WithContext(ctx).Model(&models.UploadOutbox{}).
				Where("id = ?", entry.ID).
				Updates(map[string]interface{}{
					"attempts":   entry.Attempts + 1,
					"last_error": err.Error(),
				})
			s.logger.Error("Outbox retry failed",
				zap.String("record_id", entry.RecordID),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))
			continue
		}

		if err := s.db.WithContext(ctx).Delete(&models.UploadOutbox{}, "id = ?", entry.ID).Error; err != nil {
			s.logger.Warn("Failed to remove flushed outbox entry",
				zap.String("outbox_id", entry.ID),
				zap.Error(err))
		}
		flushed++
	}

	return flushed, nil
}

// isDuplicateRecord reports whether an insert failed because the row already
// exists. Falls back to matching the raw Postgres message for drivers that
// bypass gorm's error translation.
func isDuplicateRecord(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}
