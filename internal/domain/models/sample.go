package models

import "time"

const (
	// QualityNormal is the quality score of a sample that passed anomaly detection.
	QualityNormal = 1.0
	// QualityAnomalous is the quality score of a sample flagged as an anomaly.
	QualityAnomalous = 0.5
)

// Sample is one processed observation of a stream.
type Sample struct {
	Timestamp     time.Time `json:"timestamp"`
	RawValue      float64   `json:"raw_value"`
	SmoothedValue float64   `json:"smoothed_value"`
	IsAnomaly     bool      `json:"is_anomaly"`
	QualityScore  float64   `json:"quality_score"`
}

// QualityFor maps the anomaly flag to its quality score.
func QualityFor(anomaly bool) float64 {
	if anomaly {
		return QualityAnomalous
	}
	return QualityNormal
}

// DisplayData is the render-ready view of the newest samples of a stream.
// All three columns have the same length and are index-aligned.
type DisplayData struct {
	Stream          string      `json:"stream"`
	Timestamps      []time.Time `json:"timestamps"`
	RawValues       []float64   `json:"raw_values"`
	ProcessedValues []float64   `json:"processed_values"`
}

// Len returns the number of points in the view.
func (d DisplayData) Len() int { return len(d.Timestamps) }

// PerformanceStats is a consistent snapshot of the handler counters.
type PerformanceStats struct {
	TotalPoints uint64  `json:"total_points"`
	Anomalies   uint64  `json:"anomalies_detected"`
	AvgDataRate float64 `json:"avg_data_rate"`
	BufferUsage int     `json:"buffer_usage"`
}

// ExportRecord is one row of a full buffer dump.
type ExportRecord struct {
	Stream        string    `json:"stream"`
	Timestamp     time.Time `json:"timestamp"`
	RawValue      float64   `json:"raw_value"`
	SmoothedValue float64   `json:"smoothed_value"`
	IsAnomaly     bool      `json:"is_anomaly"`
	QualityScore  float64   `json:"quality_score"`
}

// ExportTimeFormat is the ISO-8601 layout used for exported timestamps.
const ExportTimeFormat = time.RFC3339Nano

// NewExportRecord flattens a sample of stream into an export row.
func NewExportRecord(stream string, s Sample) ExportRecord {
	return ExportRecord{
		Stream:        stream,
		Timestamp:     s.Timestamp,
		RawValue:      s.RawValue,
		SmoothedValue: s.SmoothedValue,
		IsAnomaly:     s.IsAnomaly,
		QualityScore:  s.QualityScore,
	}
}
