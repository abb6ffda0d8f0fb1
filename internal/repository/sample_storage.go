package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
	pkgch "AccelStream/pkg/clickhouse"
	applogger "AccelStream/pkg/logger"
)

const insertChunkSize = 2000

// SampleSchema returns the DDL for the exported samples table.
func SampleSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    stream         LowCardinality(String),
    ts             DateTime64(9, 'UTC'),
    raw_value      Float64,
    smoothed_value Float64,
    is_anomaly     UInt8,
    quality_score  Float64,
    exported_at    DateTime64(3, 'UTC') DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(exported_at)
ORDER BY (stream, ts)`, database, table),
	}
}

// ClickHouseSampleStorage implements SampleStorage on ClickHouse.
type ClickHouseSampleStorage struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string // database-qualified
	l     *applogger.Logger
}

var _ domrepo.SampleStorage = (*ClickHouseSampleStorage)(nil)

func NewClickHouseSampleStorage(ch *pkgch.Client, database, table string, l *applogger.Logger) *ClickHouseSampleStorage {
	return &ClickHouseSampleStorage{
		ch:    ch,
		db:    ch.DB(),
		table: database + "." + table,
		l:     l,
	}
}

func (s *ClickHouseSampleStorage) Init(ctx context.Context) error {
	db, table, _ := strings.Cut(s.table, ".")
	return s.ch.InitSchema(ctx, SampleSchema(db, table))
}

func (s *ClickHouseSampleStorage) StoreBatch(ctx context.Context, records []models.ExportRecord) error {
	for start := 0; start < len(records); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(records) {
			end = len(records)
		}
		q, args := buildInsert(s.table, records[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert samples failed",
				applogger.String("table", s.table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("store samples: %w", err)
		}
	}
	return nil
}

// buildInsert renders one multi-row INSERT for recs. Rows without a stream
// name or timestamp are skipped.
func buildInsert(table string, recs []models.ExportRecord) (string, []interface{}) {
	values := make([]string, 0, len(recs))
	args := make([]interface{}, 0, len(recs)*6)
	for _, r := range recs {
		if r.Stream == "" || r.Timestamp.IsZero() {
			continue
		}
		var anomaly uint8
		if r.IsAnomaly {
			anomaly = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, r.Stream, r.Timestamp.UTC(), r.RawValue, r.SmoothedValue, anomaly, r.QualityScore)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (stream, ts, raw_value, smoothed_value, is_anomaly, quality_score) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

func (s *ClickHouseSampleStorage) Query(ctx context.Context, stream string, from, to time.Time, limit int) ([]models.ExportRecord, error) {
	q := fmt.Sprintf(`SELECT stream, ts, raw_value, smoothed_value, is_anomaly, quality_score
FROM %s FINAL
WHERE stream = ? AND ts >= ? AND ts <= ?
ORDER BY ts ASC
LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, stream, from.UTC(), to.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse query samples failed", applogger.String("stream", stream), applogger.Error(err))
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExportRecord, 0, 256)
	for rows.Next() {
		var (
			r       models.ExportRecord
			anomaly uint8
		)
		if err := rows.Scan(&r.Stream, &r.Timestamp, &r.RawValue, &r.SmoothedValue, &anomaly, &r.QualityScore); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		r.IsAnomaly = anomaly == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseSampleStorage) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.Client.
func (s *ClickHouseSampleStorage) Close() error { return nil }
