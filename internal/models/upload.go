package models

import (
	"time"

	"gorm.io/gorm"
)

// Upload status values. Transitions past "pending" are driven by the
// downstream delivery process, not by this service.
const (
	UploadStatusPending   = "pending"
	UploadStatusCompleted = "completed"
	UploadStatusFailed    = "failed"
)

// UploadRecord is the persisted summary of one submission. A row is created
// with status "pending" only after the relay accepted the payload; Platforms
// is never empty for rows created through the submission flow.
type UploadRecord struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerUserID  string         `gorm:"not null;index;size:36" json:"owner_user_id"`
	Filename     string         `gorm:"not null;size:500" json:"filename"`
	Platforms    StringArray    `gorm:"type:text[]" json:"platforms"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CaptionIdeas string         `gorm:"type:text" json:"caption_ideas"`
	Status       string         `gorm:"size:50;default:'pending'" json:"status"`
	UploadedAt   time.Time      `gorm:"not null;index" json:"uploaded_at"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (UploadRecord) TableName() string {
	return "user_uploads"
}

// UploadOutbox holds upload records whose insert into user_uploads failed
// after the relay already accepted the payload. The outbox flusher retries
// the write until it lands.
type UploadOutbox struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	RecordID     string      `gorm:"not null;size:36" json:"record_id"`
	OwnerUserID  string      `gorm:"not null;index;size:36" json:"owner_user_id"`
	Filename     string      `gorm:"not null;size:500" json:"filename"`
	Platforms    StringArray `gorm:"type:text[]" json:"platforms"`
	Notes        string      `gorm:"type:text" json:"notes"`
	CaptionIdeas string      `gorm:"type:text" json:"caption_ideas"`
	UploadedAt   time.Time   `gorm:"not null" json:"uploaded_at"`
	Attempts     int         `gorm:"default:0" json:"attempts"`
	LastError    string      `gorm:"type:text" json:"last_error"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UploadOutbox) TableName() string {
	return "upload_outbox"
}
