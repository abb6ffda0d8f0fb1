package service

import (
	"time"

	"AccelStream/internal/domain/models"
)

// StreamEngine is the in-memory stream processing core as seen by its collaborators.
type StreamEngine interface {
	Register(name string)
	AddDataPointAt(name string, value float64, ts time.Time) models.Sample
	DisplayData(name string) models.DisplayData
	PerformanceStats() models.PerformanceStats
	Reset()
	Streams() []string
	Export() []models.ExportRecord
}
