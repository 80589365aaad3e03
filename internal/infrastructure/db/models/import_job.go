package models

import "time"

type ImportJob struct {
	ID                string  `gorm:"type:uuid;primaryKey"`
	SourceName        string  `gorm:"size:512;not null"`
	SourcePayload     *string `gorm:"type:text"`
	Status            string  `gorm:"type:text;not null;default:queued"`
	TotalRows         *int64  `gorm:"column:total_rows"`
	ProcessedRows     int64   `gorm:"not null;default:0"`
	InsertedRows      int64   `gorm:"not null;default:0"`
	UpdatedRows       int64   `gorm:"not null;default:0"`
	SkippedRows       int64   `gorm:"not null;default:0"`
	ErrorText         *string `gorm:"type:text"`
	CancelRequestedAt *time.Time
	StartedAt         *time.Time
	FinishedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
