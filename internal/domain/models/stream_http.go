package models

import "time"

// Requests for stream HTTP endpoints.

type DisplayRequest struct {
	Stream string `query:"stream" json:"stream" validate:"required,max=64"`
}

type IngestRequest struct {
	Stream    string     `json:"stream" validate:"required,max=64"`
	Value     *float64   `json:"value" validate:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type HistoryRequest struct {
	Stream string `query:"stream" json:"stream" validate:"required,max=64"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=100000"`
}

type StatsResponse struct {
	PerformanceStats
	Progress CollectionProgress `json:"progress"`
	Streams  []string           `json:"streams"`
}

type ExportResponse struct {
	Count   int            `json:"count"`
	Records []ExportRecord `json:"records,omitempty"`
}
