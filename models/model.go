package models

import (
	"time"

	"gorm.io/gorm"
)

// Document represents an uploaded PDF, deduplicated by content hash.
type Document struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FileName  string         `gorm:"size:255;not null" json:"file_name"`
	SHA256    string         `gorm:"size:64;uniqueIndex;not null" json:"sha256"`
	PageCount int            `gorm:"default:0" json:"page_count"`
	SizeBytes int64          `gorm:"default:0" json:"size_bytes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Jobs []HighlightJob `json:"jobs,omitempty"`
}

// HighlightJob statuses.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// HighlightJob is an asynchronous detection/highlight run over a document.
type HighlightJob struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	DocumentID uint   `gorm:"not null;index" json:"document_id"`
	Query      string `gorm:"size:1024;not null" json:"query"`
	Shape      string `gorm:"size:16;default:'rect'" json:"shape"`
	DPI        int    `gorm:"default:200" json:"dpi"`
	Provider   string `gorm:"size:32" json:"provider"`
	Status     string `gorm:"size:16;index;default:'pending'" json:"status"`
	PagesDone  int    `gorm:"default:0" json:"pages_done"`
	PagesTotal int    `gorm:"default:0" json:"pages_total"`
	// ResultJSON holds the completed highlight response payload.
	ResultJSON string    `gorm:"type:text" json:"-"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}
