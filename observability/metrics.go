// Package observability records operation timings and runtime samples in a
// SQLite timeseries table.
//
// Persistence is async: Record appends to a buffer that is flushed in one
// transaction per interval or when full. A failing store is logged and never
// slows down a request.
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/sf6scout/dbopen"
)

// Metric names.
const (
	MetricOperationMs     = "buckler_operation_ms"
	MetricRecordsCount    = "buckler_records_count"
	MetricSessionsActive  = "browser_sessions_active"
	MetricGoroutinesCount = "goroutines_count"
	MetricMemoryAllocMB   = "memory_alloc_mb"
)

// Metric is a single timeseries datapoint.
type Metric struct {
	Name      string
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
	Unit      string // "milliseconds", "count", "megabytes"
}

// MetricsManager buffers metrics and flushes them to SQLite in batches.
type MetricsManager struct {
	db            *sql.DB
	bufferSize    int
	flushInterval time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	buffer []*Metric
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

// NewMetricsManager starts a manager on db, which must already carry Schema.
// Zero arguments select bufferSize=100 and flushInterval=5s.
func NewMetricsManager(db *sql.DB, bufferSize int, flushInterval time.Duration, logger *slog.Logger) *MetricsManager {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	mm := &MetricsManager{
		db:            db,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		logger:        logger,
		buffer:        make([]*Metric, 0, bufferSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go mm.flushLoop()
	return mm
}

// Record queues a metric. Records after Close are dropped.
func (mm *MetricsManager) Record(m *Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.closed {
		return
	}
	mm.buffer = append(mm.buffer, m)
	if len(mm.buffer) >= mm.bufferSize {
		mm.flushLocked()
	}
}

// RecordDuration records d in milliseconds under name.
func (mm *MetricsManager) RecordDuration(name string, d time.Duration, labels map[string]string) {
	mm.Record(&Metric{
		Name:   name,
		Value:  float64(d.Microseconds()) / 1000,
		Labels: labels,
		Unit:   "milliseconds",
	})
}

// RecordSimple records a metric without labels.
func (mm *MetricsManager) RecordSimple(name string, value float64, unit string) {
	mm.Record(&Metric{Name: name, Value: value, Unit: unit})
}

// Flush writes the buffer now.
func (mm *MetricsManager) Flush() {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.flushLocked()
}

// Query returns metrics newest first, filtered by name (empty = all) and
// time range (nil = unbounded). limit <= 0 means no limit.
func (mm *MetricsManager) Query(ctx context.Context, metricName string, startTime, endTime *time.Time, limit int) ([]*Metric, error) {
	q := "SELECT name, ts_ms, value, labels, unit FROM operation_metrics WHERE 1=1"
	args := make([]any, 0, 4)

	if metricName != "" {
		q += " AND name = ?"
		args = append(args, metricName)
	}
	if startTime != nil {
		q += " AND ts_ms >= ?"
		args = append(args, startTime.UnixMilli())
	}
	if endTime != nil {
		q += " AND ts_ms <= ?"
		args = append(args, endTime.UnixMilli())
	}
	q += " ORDER BY ts_ms DESC, id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := mm.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("observability: query metrics: %w", err)
	}
	defer rows.Close()

	var out []*Metric
	for rows.Next() {
		var (
			name       string
			unit       sql.NullString
			ts         int64
			value      float64
			labelsJSON sql.NullString
		)
		if err := rows.Scan(&name, &ts, &value, &labelsJSON, &unit); err != nil {
			return nil, fmt.Errorf("observability: scan metric: %w", err)
		}
		m := &Metric{Name: name, Timestamp: time.UnixMilli(ts), Value: value, Unit: unit.String}
		if labelsJSON.Valid {
			var labels map[string]string
			if json.Unmarshal([]byte(labelsJSON.String), &labels) == nil {
				m.Labels = labels
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Cleanup deletes metrics older than retention and returns the count removed.
func (mm *MetricsManager) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := time.Now().Add(-retention).UnixMilli()
	res, err := dbopen.Exec(ctx, mm.db, "DELETE FROM operation_metrics WHERE ts_ms < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("observability: cleanup metrics: %w", err)
	}
	return res.RowsAffected()
}

// Close flushes remaining metrics and stops the flush loop. Idempotent.
func (mm *MetricsManager) Close() error {
	mm.mu.Lock()
	if mm.closed {
		mm.mu.Unlock()
		return nil
	}
	mm.closed = true
	mm.mu.Unlock()

	close(mm.stop)
	<-mm.done
	return nil
}

func (mm *MetricsManager) flushLoop() {
	defer close(mm.done)
	ticker := time.NewTicker(mm.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mm.stop:
			mm.Flush()
			return
		case <-ticker.C:
			mm.Flush()
		}
	}
}

func (mm *MetricsManager) flushLocked() {
	if len(mm.buffer) == 0 {
		return
	}
	batch := mm.buffer
	mm.buffer = make([]*Metric, 0, mm.bufferSize)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := dbopen.RunTx(ctx, mm.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO operation_metrics (name, ts_ms, value, labels, unit) VALUES (?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range batch {
			var labelsJSON sql.NullString
			if len(m.Labels) > 0 {
				if b, err := json.Marshal(m.Labels); err == nil {
					labelsJSON = sql.NullString{String: string(b), Valid: true}
				}
			}
			if _, err := stmt.ExecContext(ctx, m.Name, m.Timestamp.UnixMilli(), m.Value, labelsJSON, m.Unit); err != nil {
				return fmt.Errorf("insert %s: %w", m.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		mm.logger.Error("observability: flush metrics", "error", err, "dropped", len(batch))
	}
}
